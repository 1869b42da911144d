package timing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidClock   = errors.New("timing: clock frequency must be positive")
	ErrInvalidBitrate = errors.New("timing: bitrate must be positive")
	ErrInvalidLimits  = errors.New("timing: invalid controller limits")
)

// RangeError reports a quantity outside its permitted inclusive range.
type RangeError struct {
	Quantity string
	Value    uint64
	Min      uint64
	Max      uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("timing: %s %d out of range [%d, %d]", e.Quantity, e.Value, e.Min, e.Max)
}
