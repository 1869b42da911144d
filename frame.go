package canutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame represents a classical CAN (2.0A/2.0B) frame.
//
// Supported features:
//   - Standard (11-bit) and Extended (29-bit) identifiers
//   - Data frames and Remote Transmission Request (RTR)
//   - Data length 0-8 bytes
type Frame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request
	Len      uint8  // 0..8
	Data     [8]byte

	// Reserved bits r0/r1 are unspecified by CAN 2.0 but may be received
	// with either value. SocketCAN does not carry them.
	Reserved0 bool
	Reserved1 bool
}

// Validation limits.
const (
	maxStdID = 0x7FF
	maxExtID = 0x1FFFFFFF
)

// SocketCAN can_id flags and masks.
const (
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canEffMask = 0x1FFFFFFF
	canStdMask = 0x7FF
)

const canFrameSize = 16

var (
	ErrInvalidID  = errors.New("canutil: invalid identifier")
	ErrInvalidLen = errors.New("canutil: invalid data length")
)

func validateID(id uint32, extended bool) error {
	if extended {
		if id > maxExtID {
			return ErrInvalidID
		}
		return nil
	}
	if id > maxStdID {
		return ErrInvalidID
	}
	return nil
}

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return ErrInvalidLen
	}
	return validateID(f.ID, f.Extended)
}

// MustFrame constructs a Frame and panics if invalid. Identifiers above
// 0x7FF select the extended format.
func MustFrame(id uint32, data []byte) Frame {
	var f Frame
	f.ID = id
	if id > maxStdID {
		f.Extended = true
	}
	if len(data) > 8 {
		panic(ErrInvalidLen)
	}
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// String formats the frame like candump: "123 [2] DE AD".
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	if f.RTR {
		b.WriteString(" RTR")
		return b.String()
	}
	for _, c := range f.Data[:min(int(f.Len), 8)] {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}

// MarshalBinary encodes the frame to the Linux SocketCAN "struct can_frame"
// layout (16 bytes).
//
// Layout (little-endian):
//
//	0..3  can_id (with flags: EFF/RTR)
//	4     len (0..8)
//	5..7  padding (set to zero)
//	8..15 data bytes
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	buf := make([]byte, canFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the Linux SocketCAN can_frame layout.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < canFrameSize {
		return fmt.Errorf("canutil: need %d bytes, got %d", canFrameSize, len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&canEffFlag != 0
	f.RTR = id&canRtrFlag != 0
	if f.Extended {
		f.ID = id & canEffMask
	} else {
		f.ID = id & canStdMask
	}
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}
