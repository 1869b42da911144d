package canutil

import "fmt"

// FaultConfinementState is one of the three fault confinement states of
// CAN 2.0.
type FaultConfinementState uint8

const (
	// ErrorActive nodes signal errors to the whole bus.
	ErrorActive FaultConfinementState = iota
	// ErrorPassive nodes may not signal errors but still transmit and receive.
	ErrorPassive
	// BusOff nodes are disconnected: transmit and receive are disabled.
	BusOff
)

func (s FaultConfinementState) String() string {
	switch s {
	case ErrorActive:
		return "error-active"
	case ErrorPassive:
		return "error-passive"
	case BusOff:
		return "bus-off"
	default:
		return fmt.Sprintf("FaultConfinementState(%d)", uint8(s))
	}
}

// FaultStateFromCounters derives the fault confinement state from the
// transmit and receive error counters as CAN 2.0 defines it.
func FaultStateFromCounters(tec, rec uint16) FaultConfinementState {
	switch {
	case tec > 255:
		return BusOff
	case tec > 127 || rec > 127:
		return ErrorPassive
	default:
		return ErrorActive
	}
}

// OperationMode describes what an interface is currently doing.
type OperationMode uint8

const (
	// Receiver is receiving a message from the bus.
	Receiver OperationMode = iota
	// Transmitter is transmitting a message to the bus.
	Transmitter
	// Integrating waits for 11 consecutive recessive bits to sync with the
	// bus. Described by CAN FD only, but classic controllers have it too.
	Integrating
	// Idle is ready to transmit or receive. Described by CAN FD only.
	Idle
)

func (m OperationMode) String() string {
	switch m {
	case Receiver:
		return "receiver"
	case Transmitter:
		return "transmitter"
	case Integrating:
		return "integrating"
	case Idle:
		return "idle"
	default:
		return fmt.Sprintf("OperationMode(%d)", uint8(m))
	}
}

// MessageFilterType is the intent of a MessageFilter.
type MessageFilterType uint8

const (
	// MatchMeansAccept forwards traffic the filter matches.
	MatchMeansAccept MessageFilterType = iota
	// MatchMeansIgnore drops traffic the filter matches.
	MatchMeansIgnore
)

func (t MessageFilterType) String() string {
	switch t {
	case MatchMeansAccept:
		return "accept"
	case MatchMeansIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("MessageFilterType(%d)", uint8(t))
	}
}

// MessageFilter is a filter the hardware (or the kernel) applies to
// incoming traffic.
type MessageFilter struct {
	// ID is the identifier, or the common part of identifiers when Mask is set.
	ID uint32
	// Mask, when non-nil, is applied to incoming identifiers and to ID
	// before comparing them. A nil Mask compares the full identifier.
	Mask *uint32
	// Type selects "forward if" or "forward unless".
	Type MessageFilterType
}

// Matches reports whether id matches the filter, ignoring Type.
func (m MessageFilter) Matches(id uint32) bool {
	if m.Mask == nil {
		return id == m.ID
	}
	return id&*m.Mask == m.ID&*m.Mask
}

// Accepts reports whether the filter forwards the frame.
func (m MessageFilter) Accepts(f Frame) bool {
	return m.FrameFilter()(f)
}

// FrameFilter converts the filter to a software FrameFilter.
func (m MessageFilter) FrameFilter() FrameFilter {
	match := ByID(m.ID)
	if m.Mask != nil {
		match = ByMask(m.ID, *m.Mask)
	}
	if m.Type == MatchMeansIgnore {
		return Not(match)
	}
	return match
}
