package canutil

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FDFrame represents a CAN-FD frame as described in the CAN FD
// specification version 1.0 (Bosch, 2012).
//
// Len is the payload size in bytes, not the DLC code. Use DLC to obtain the
// code and ByteCountToDLC/PaddedFDLen when building frames from arbitrary
// payloads.
type FDFrame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	Len      uint8  // 0..8, 12, 16, 20, 24, 32, 48, 64
	Data     [MaxFDLen]byte

	EDL bool // FD format frame (FDF); lets one type carry all bus traffic
	BRS bool // bit rate switch in the data phase
	ESI bool // sender is error passive

	// Reserved bits are unspecified but may be received with either value.
	// SocketCAN does not carry them.
	Reserved0 bool
	Reserved1 bool
}

// SocketCAN canfd_frame flags.
const (
	canFDBRS = 0x01
	canFDESI = 0x02
	canFDFDF = 0x04
)

const canFDFrameSize = 72

// NewFDFrame builds an FD frame carrying data, zero-padding it to the next
// valid payload size. Identifiers above 0x7FF select the extended format.
func NewFDFrame(id uint32, data []byte, brs bool) (FDFrame, error) {
	if len(data) > MaxFDLen {
		return FDFrame{}, ErrInvalidLen
	}
	f := FDFrame{ID: id, Extended: id > maxStdID, EDL: true, BRS: brs}
	f.Len = uint8(PaddedFDLen(len(data)))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return FDFrame{}, err
	}
	return f, nil
}

// Validate returns an error if the frame is not valid.
func (f FDFrame) Validate() error {
	if !ValidFDLen(int(f.Len)) {
		return ErrInvalidLen
	}
	return validateID(f.ID, f.Extended)
}

// DLC returns the data length code for the frame's payload size.
func (f FDFrame) DLC() uint8 {
	return ByteCountToDLC(int(f.Len))
}

// Payload returns the valid portion of Data.
func (f *FDFrame) Payload() []byte {
	return f.Data[:min(int(f.Len), MaxFDLen)]
}

// String formats the frame like candump: "123 [12] BRS 01 02 ...".
func (f FDFrame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	if f.BRS {
		b.WriteString(" BRS")
	}
	if f.ESI {
		b.WriteString(" ESI")
	}
	for _, c := range f.Payload() {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}

// MarshalBinary encodes the frame to the Linux SocketCAN "struct canfd_frame"
// layout (72 bytes).
//
// Layout (little-endian):
//
//	0..3  can_id (with EFF flag)
//	4     len (payload bytes)
//	5     flags (BRS 0x01, ESI 0x02, FDF 0x04)
//	6..7  reserved (set to zero)
//	8..71 data bytes
func (f FDFrame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	var flags byte
	if f.BRS {
		flags |= canFDBRS
	}
	if f.ESI {
		flags |= canFDESI
	}
	if f.EDL {
		flags |= canFDFDF
	}
	buf := make([]byte, canFDFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	buf[5] = flags
	copy(buf[8:], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the Linux SocketCAN canfd_frame layout.
func (f *FDFrame) UnmarshalBinary(data []byte) error {
	if len(data) < canFDFrameSize {
		return fmt.Errorf("canutil: need %d bytes, got %d", canFDFrameSize, len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&canEffFlag != 0
	if f.Extended {
		f.ID = id & canEffMask
	} else {
		f.ID = id & canStdMask
	}
	f.Len = data[4]
	flags := data[5]
	f.BRS = flags&canFDBRS != 0
	f.ESI = flags&canFDESI != 0
	f.EDL = flags&canFDFDF != 0
	copy(f.Data[:], data[8:canFDFrameSize])
	return f.Validate()
}
