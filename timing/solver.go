package timing

import (
	"iter"
	"time"
)

// minQuanta is the smallest number of time quanta per bit accepted by CAN
// controllers and bit-rate calculators.
const minQuanta = 8

// Parameters is one bit-timing solution, in the units written to a
// controller's timing registers.
type Parameters struct {
	// Prescaler divides the controller clock down to one time quantum.
	Prescaler uint32
	// Seg1 is the number of quanta before the sample point, not counting
	// the sync quantum.
	Seg1 SegmentLength
	// Seg2 is the number of quanta after the sample point.
	Seg2 SegmentLength
	// JumpWidth is the resynchronization jump width.
	JumpWidth SegmentLength
}

// Quanta returns the number of time quanta in one bit: sync + seg1 + seg2.
func (p Parameters) Quanta() uint32 {
	return 1 + uint32(p.Seg1) + uint32(p.Seg2)
}

// SamplePoint returns the sample point these parameters achieve, in tenths
// of a percent, truncated.
func (p Parameters) SamplePoint() uint16 {
	return uint16((1 + uint32(p.Seg1)) * 1000 / p.Quanta())
}

// TimeQuantum returns the duration of one time quantum at the given clock.
func (p Parameters) TimeQuantum(clock MegaHertz) time.Duration {
	return quantumDuration(clock, p.Prescaler)
}

// Solutions enumerates bit-timing solutions in increasing prescaler order.
// It is produced by Compute and is not safe for concurrent use.
type Solutions struct {
	bitWidth    uint64
	samplePoint uint64
	jumpWidth   SegmentLength
	limits      Limits

	// prescaler is the last prescaler tried; the search is exhausted once it
	// reaches limits.MaxPrescaler.
	prescaler uint32
}

// Compute validates its inputs and returns the sequence of every prescaler
// in [1, limits.MaxPrescaler] for which segment lengths within limits exist.
//
// The jump width is passed through to every solution unchanged. An empty
// sequence is a valid result: relax the limits or pick another clock.
func Compute(clock MegaHertz, bitrate BitsPerSecond, samplePoint SamplePoint, jumpWidth SegmentLength, limits Limits) (*Solutions, error) {
	if clock == 0 {
		return nil, ErrInvalidClock
	}
	if bitrate == 0 {
		return nil, ErrInvalidBitrate
	}
	if !samplePoint.valid() {
		return nil, &RangeError{
			Quantity: "sample point",
			Value:    uint64(samplePoint.tenths),
			Min:      minSamplePointTenths,
			Max:      maxSamplePointTenths,
		}
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if jumpWidth > limits.MaxJumpWidth {
		return nil, &RangeError{
			Quantity: "jump width",
			Value:    uint64(jumpWidth),
			Min:      0,
			Max:      uint64(limits.MaxJumpWidth),
		}
	}
	return &Solutions{
		bitWidth:    clock.Hertz() / uint64(bitrate),
		samplePoint: uint64(samplePoint.tenths),
		jumpWidth:   jumpWidth,
		limits:      limits,
	}, nil
}

// Next returns the next solution, or false once the search is exhausted.
func (s *Solutions) Next() (Parameters, bool) {
	for s.prescaler < s.limits.MaxPrescaler {
		s.prescaler++
		p := uint64(s.prescaler)
		if s.bitWidth%p != 0 {
			continue
		}
		tq := s.bitWidth / p
		if tq < minQuanta {
			continue
		}
		sample := tq * 1000 / s.samplePoint
		seg2 := uint64(1) // seg2 never drops below one quantum
		if tq > sample {
			seg2 = tq - sample
		}
		seg1 := tq - seg2 - 1 // sync quantum
		// seg1 >= seg2 holds for any sample point >= 50%
		if seg1 > uint64(s.limits.MaxSeg1) || seg2 > uint64(s.limits.MaxSeg2) {
			continue
		}
		return Parameters{
			Prescaler: s.prescaler,
			Seg1:      SegmentLength(seg1),
			Seg2:      SegmentLength(seg2),
			JumpWidth: s.jumpWidth,
		}, true
	}
	return Parameters{}, false
}

// All returns an iterator over the remaining solutions. Breaking out of the
// loop leaves the cursor after the last solution yielded.
func (s *Solutions) All() iter.Seq[Parameters] {
	return func(yield func(Parameters) bool) {
		for {
			p, ok := s.Next()
			if !ok || !yield(p) {
				return
			}
		}
	}
}

// BitWidth returns the number of clock ticks in one bit at prescaler 1.
func (s *Solutions) BitWidth() uint64 { return s.bitWidth }
