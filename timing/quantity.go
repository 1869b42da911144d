package timing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MegaHertz is a controller input clock frequency.
type MegaHertz uint32

// Hertz returns the frequency in Hz.
func (m MegaHertz) Hertz() uint64 { return uint64(m) * 1_000_000 }

// BitsPerSecond is a nominal bus bitrate.
type BitsPerSecond uint32

// SegmentLength is a count of time quanta.
type SegmentLength uint16

// Sample point bounds, in tenths of a percent.
const (
	minSamplePointTenths = 500 // CAN requires sampling in the second half of the bit
	maxSamplePointTenths = 990 // seg2 must keep at least one quantum
)

// SamplePoint is the fraction of a bit time at which the controller samples
// the bus, stored in tenths of a percent (875 is 87.5%).
//
// The zero value is not a valid sample point.
type SamplePoint struct {
	tenths uint16
}

var (
	MinimumSamplePoint = SamplePoint{tenths: minSamplePointTenths}
	MaximumSamplePoint = SamplePoint{tenths: maxSamplePointTenths}
)

// NewSamplePoint validates tenths against [500, 990] and returns a
// *RangeError when it falls outside.
func NewSamplePoint(tenths uint16) (SamplePoint, error) {
	if tenths < minSamplePointTenths || tenths > maxSamplePointTenths {
		return SamplePoint{}, &RangeError{
			Quantity: "sample point",
			Value:    uint64(tenths),
			Min:      minSamplePointTenths,
			Max:      maxSamplePointTenths,
		}
	}
	return SamplePoint{tenths: tenths}, nil
}

// MustSamplePoint is like NewSamplePoint but panics on error.
func MustSamplePoint(tenths uint16) SamplePoint {
	sp, err := NewSamplePoint(tenths)
	if err != nil {
		panic(err)
	}
	return sp
}

// ParseSamplePoint parses a percentage such as "87.5" or "87.5%".
// At most one decimal digit is accepted.
func ParseSamplePoint(s string) (SamplePoint, error) {
	txt := strings.TrimSuffix(strings.TrimSpace(s), "%")
	whole, frac, hasFrac := strings.Cut(txt, ".")
	if hasFrac && len(frac) != 1 {
		return SamplePoint{}, fmt.Errorf("timing: invalid sample point %q", s)
	}
	w, err := strconv.ParseUint(whole, 10, 16)
	if err != nil {
		return SamplePoint{}, fmt.Errorf("timing: invalid sample point %q: %w", s, err)
	}
	tenths := w * 10
	if hasFrac {
		d := frac[0]
		if d < '0' || d > '9' {
			return SamplePoint{}, fmt.Errorf("timing: invalid sample point %q", s)
		}
		tenths += uint64(d - '0')
	}
	if tenths > math.MaxUint16 {
		return SamplePoint{}, &RangeError{Quantity: "sample point", Value: tenths, Min: minSamplePointTenths, Max: maxSamplePointTenths}
	}
	return NewSamplePoint(uint16(tenths))
}

// Tenths returns the sample point in tenths of a percent.
func (s SamplePoint) Tenths() uint16 { return s.tenths }

// String formats the sample point as a percentage, e.g. "87.5%".
func (s SamplePoint) String() string {
	return fmt.Sprintf("%d.%d%%", s.tenths/10, s.tenths%10)
}

// valid reports whether s was built through a validating constructor.
func (s SamplePoint) valid() bool {
	return s.tenths >= minSamplePointTenths && s.tenths <= maxSamplePointTenths
}

// quantumDuration returns the duration of one time quantum for a prescaler.
func quantumDuration(clock MegaHertz, prescaler uint32) time.Duration {
	if clock == 0 {
		return 0
	}
	return time.Duration(uint64(prescaler) * uint64(time.Microsecond) / uint64(clock))
}
