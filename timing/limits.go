package timing

import (
	"fmt"
	"sort"
)

// Limits describes the largest values a controller's bit-timing registers
// can hold. Field values are counts, not register encodings (a 6-bit BRP
// field that stores BRP-1 has MaxPrescaler 64).
type Limits struct {
	// MaxPrescaler is the largest baud rate prescaler, usually a power of two.
	MaxPrescaler uint32
	// MaxSeg1 is the longest segment before the sample point, excluding the
	// sync quantum.
	MaxSeg1 SegmentLength
	// MaxSeg2 is the longest segment after the sample point.
	MaxSeg2 SegmentLength
	// MaxJumpWidth is the largest configurable synchronization jump width.
	MaxJumpWidth SegmentLength
}

// Validate returns ErrInvalidLimits if any limit is zero.
func (l Limits) Validate() error {
	switch {
	case l.MaxPrescaler == 0:
		return fmt.Errorf("%w: max prescaler is zero", ErrInvalidLimits)
	case l.MaxSeg1 == 0:
		return fmt.Errorf("%w: max seg1 is zero", ErrInvalidLimits)
	case l.MaxSeg2 == 0:
		return fmt.Errorf("%w: max seg2 is zero", ErrInvalidLimits)
	case l.MaxJumpWidth == 0:
		return fmt.Errorf("%w: max jump width is zero", ErrInvalidLimits)
	}
	return nil
}

// Register limits of common controllers.
var controllers = map[string]Limits{
	// SJA1000 and its clones (BTR0/BTR1), also used by most SLCAN adapters.
	"sja1000": {MaxPrescaler: 64, MaxSeg1: 16, MaxSeg2: 8, MaxJumpWidth: 4},
	// MCP2515 CNF1..CNF3; seg1 is PRSEG + PHSEG1.
	"mcp2515": {MaxPrescaler: 64, MaxSeg1: 16, MaxSeg2: 8, MaxJumpWidth: 4},
	// STM32 bxCAN BTR.
	"bxcan": {MaxPrescaler: 1024, MaxSeg1: 16, MaxSeg2: 8, MaxJumpWidth: 4},
	// Bosch M_CAN NBTP (nominal phase).
	"mcan": {MaxPrescaler: 512, MaxSeg1: 256, MaxSeg2: 128, MaxJumpWidth: 128},
	// Bosch M_CAN DBTP (CAN-FD data phase).
	"mcan-data": {MaxPrescaler: 32, MaxSeg1: 32, MaxSeg2: 16, MaxJumpWidth: 16},
}

// Controller returns the register limits of a known controller.
func Controller(name string) (Limits, bool) {
	l, ok := controllers[name]
	return l, ok
}

// Controllers returns the names accepted by Controller, sorted.
func Controllers() []string {
	names := make([]string, 0, len(controllers))
	for name := range controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
