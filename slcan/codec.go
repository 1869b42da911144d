// Package slcan speaks the Lawicel serial-line CAN (SLCAN) ASCII protocol
// used by USB-serial CAN adapters, and programs their bit timing from
// timing package solutions.
package slcan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/canutil"
	"github.com/notnil/canutil/timing"
)

// Clock is the CAN clock the sXXYY command's SJA1000 register values
// assume: a 16 MHz crystal divided by two.
const Clock timing.MegaHertz = 8

// Limits are the SJA1000 BTR0/BTR1 register limits.
var Limits = timing.Limits{MaxPrescaler: 64, MaxSeg1: 16, MaxSeg2: 8, MaxJumpWidth: 4}

var (
	ErrMalformed   = errors.New("slcan: malformed frame")
	ErrUnsupported = errors.New("slcan: unsupported bitrate")
)

// standardRates maps the bitrates with a predefined Sn command to n.
var standardRates = map[timing.BitsPerSecond]byte{
	10_000:    '0',
	20_000:    '1',
	50_000:    '2',
	100_000:   '3',
	125_000:   '4',
	250_000:   '5',
	500_000:   '6',
	800_000:   '7',
	1_000_000: '8',
}

// BitrateCommand returns the Sn command selecting a predefined bitrate.
func BitrateCommand(bitrate timing.BitsPerSecond) (string, error) {
	n, ok := standardRates[bitrate]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnsupported, bitrate)
	}
	return string([]byte{'S', n, '\r'}), nil
}

// BTR encodes timing parameters into SJA1000 bus timing registers.
//
//	BTR0: SJW-1 in bits 7..6, BRP-1 in bits 5..0
//	BTR1: SAM in bit 7, TSEG2-1 in bits 6..4, TSEG1-1 in bits 3..0
//
// Triple sampling (SAM) is left off.
func BTR(p timing.Parameters) (btr0, btr1 byte, err error) {
	switch {
	case p.Prescaler < 1 || p.Prescaler > Limits.MaxPrescaler:
		return 0, 0, fmt.Errorf("slcan: prescaler %d out of range [1, %d]", p.Prescaler, Limits.MaxPrescaler)
	case p.Seg1 < 1 || p.Seg1 > Limits.MaxSeg1:
		return 0, 0, fmt.Errorf("slcan: seg1 %d out of range [1, %d]", p.Seg1, Limits.MaxSeg1)
	case p.Seg2 < 1 || p.Seg2 > Limits.MaxSeg2:
		return 0, 0, fmt.Errorf("slcan: seg2 %d out of range [1, %d]", p.Seg2, Limits.MaxSeg2)
	case p.JumpWidth < 1 || p.JumpWidth > Limits.MaxJumpWidth:
		return 0, 0, fmt.Errorf("slcan: jump width %d out of range [1, %d]", p.JumpWidth, Limits.MaxJumpWidth)
	}
	btr0 = byte(p.JumpWidth-1)<<6 | byte(p.Prescaler-1)
	btr1 = byte(p.Seg2-1)<<4 | byte(p.Seg1-1)
	return btr0, btr1, nil
}

// TimingCommand returns the sXXYY command programming p.
func TimingCommand(p timing.Parameters) (string, error) {
	btr0, btr1, err := BTR(p)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("s%02X%02X\r", btr0, btr1), nil
}

// EncodeFrame converts a frame into its SLCAN transmit command.
func EncodeFrame(f canutil.Frame) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	switch {
	case f.RTR && f.Extended:
		b.WriteByte('R')
	case f.RTR:
		b.WriteByte('r')
	case f.Extended:
		b.WriteByte('T')
	default:
		b.WriteByte('t')
	}
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	b.WriteByte('0' + f.Len)
	if !f.RTR {
		for _, c := range f.Data[:f.Len] {
			fmt.Fprintf(&b, "%02X", c)
		}
	}
	b.WriteByte('\r')
	return b.String(), nil
}

// DecodeFrame parses a received frame line, with or without the trailing
// carriage return. A 4-digit timestamp after the data is ignored.
func DecodeFrame(line string) (canutil.Frame, error) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return canutil.Frame{}, ErrMalformed
	}
	var f canutil.Frame
	idLen := 3
	switch line[0] {
	case 't':
	case 'r':
		f.RTR = true
	case 'T':
		f.Extended, idLen = true, 8
	case 'R':
		f.Extended, f.RTR, idLen = true, true, 8
	default:
		return canutil.Frame{}, fmt.Errorf("%w: unknown command %q", ErrMalformed, line[0])
	}
	if len(line) < 1+idLen+1 {
		return canutil.Frame{}, fmt.Errorf("%w: %q too short", ErrMalformed, line)
	}
	id, err := strconv.ParseUint(line[1:1+idLen], 16, 32)
	if err != nil {
		return canutil.Frame{}, fmt.Errorf("%w: identifier: %v", ErrMalformed, err)
	}
	f.ID = uint32(id)
	dlc := line[1+idLen]
	if dlc < '0' || dlc > '8' {
		return canutil.Frame{}, fmt.Errorf("%w: dlc %q", ErrMalformed, dlc)
	}
	f.Len = dlc - '0'

	rest := line[2+idLen:]
	dataLen := 0
	if !f.RTR {
		dataLen = 2 * int(f.Len)
	}
	if len(rest) != dataLen && len(rest) != dataLen+4 {
		return canutil.Frame{}, fmt.Errorf("%w: %q has %d payload digits", ErrMalformed, line, len(rest))
	}
	for i := 0; i < dataLen/2; i++ {
		v, err := strconv.ParseUint(rest[2*i:2*i+2], 16, 8)
		if err != nil {
			return canutil.Frame{}, fmt.Errorf("%w: data: %v", ErrMalformed, err)
		}
		f.Data[i] = byte(v)
	}
	if err := f.Validate(); err != nil {
		return canutil.Frame{}, err
	}
	return f, nil
}
