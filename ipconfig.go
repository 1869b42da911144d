package canutil

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/notnil/canutil/timing"
)

const ifNameSize = 16 // IFNAMSIZ

// LinuxBitTiming is an explicit bit timing in the form iproute2 accepts:
// the time quantum in nanoseconds and segment lengths in quanta.
type LinuxBitTiming struct {
	TQ        uint32 // time quantum in nanoseconds
	PropSeg   uint32
	PhaseSeg1 uint32
	PhaseSeg2 uint32
	SJW       uint32
}

// BitTimingFor converts solver output to iproute2 form. Seg1 is split
// into propagation and phase segments the way the kernel's own bit-timing
// calculator does. The quantum is rounded up to whole nanoseconds so the
// kernel derives the same prescaler back from it.
func BitTimingFor(p timing.Parameters, clock timing.MegaHertz) (LinuxBitTiming, error) {
	if clock == 0 {
		return LinuxBitTiming{}, timing.ErrInvalidClock
	}
	ns := (uint64(p.Prescaler)*1000 + uint64(clock) - 1) / uint64(clock)
	prop := uint32(p.Seg1) / 2
	return LinuxBitTiming{
		TQ:        uint32(ns),
		PropSeg:   prop,
		PhaseSeg1: uint32(p.Seg1) - prop,
		PhaseSeg2: uint32(p.Seg2),
		SJW:       uint32(p.JumpWidth),
	}, nil
}

// LinuxCANInterfaceOptions controls CAN interface parameters through the
// system `ip` tool. Nil fields are left unchanged.
//
// Notes:
//   - Bitrate and BitTiming are alternatives, as are DataBitrate and
//     DataBitTiming.
//   - Changing timing typically requires the interface to be DOWN.
//   - These operations require CAP_NET_ADMIN.
type LinuxCANInterfaceOptions struct {
	// Bitrate sets the nominal bit-rate in bits per second and lets the
	// kernel compute the timing.
	Bitrate *uint32
	// SamplePoint accompanies Bitrate.
	SamplePoint *timing.SamplePoint
	// BitTiming programs an explicit nominal timing.
	BitTiming *LinuxBitTiming

	// DataBitrate sets the CAN-FD data phase bit-rate.
	DataBitrate *uint32
	// DataSamplePoint accompanies DataBitrate.
	DataSamplePoint *timing.SamplePoint
	// DataBitTiming programs an explicit data phase timing.
	DataBitTiming *LinuxBitTiming

	// FD enables or disables CAN-FD mode.
	FD *bool

	// RestartMs sets automatic bus-off recovery delay in milliseconds.
	// Set to 0 to disable auto-restart.
	RestartMs *uint32

	// TxQueueLen sets the transmit queue length (number of packets).
	TxQueueLen *int
}

var errTimingConflict = errors.New("canutil: bitrate and explicit bit timing are mutually exclusive")

func validIfName(name string) error {
	if len(name) == 0 || len(name) >= ifNameSize {
		return fmt.Errorf("canutil: invalid interface name %q", name)
	}
	return nil
}

func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func samplePointArg(sp timing.SamplePoint) string {
	return fmt.Sprintf("0.%03d", sp.Tenths())
}

func timingArgs(prefix string, bt LinuxBitTiming) []string {
	return []string{
		prefix + "tq", u32(bt.TQ),
		prefix + "prop-seg", u32(bt.PropSeg),
		prefix + "phase-seg1", u32(bt.PhaseSeg1),
		prefix + "phase-seg2", u32(bt.PhaseSeg2),
		prefix + "sjw", u32(bt.SJW),
	}
}

// IPCommands returns the argument lists of the `ip` invocations that apply
// opts to the named interface, in order.
func IPCommands(name string, opts LinuxCANInterfaceOptions) ([][]string, error) {
	if err := validIfName(name); err != nil {
		return nil, err
	}
	if opts.Bitrate != nil && opts.BitTiming != nil {
		return nil, errTimingConflict
	}
	if opts.DataBitrate != nil && opts.DataBitTiming != nil {
		return nil, errTimingConflict
	}

	var cmds [][]string
	// txqueuelen can be changed while the interface is up on most drivers.
	if opts.TxQueueLen != nil {
		cmds = append(cmds, []string{"link", "set", "dev", name, "txqueuelen", strconv.Itoa(*opts.TxQueueLen)})
	}

	args := []string{"link", "set", "dev", name, "type", "can"}
	switch {
	case opts.Bitrate != nil:
		args = append(args, "bitrate", u32(*opts.Bitrate))
		if opts.SamplePoint != nil {
			args = append(args, "sample-point", samplePointArg(*opts.SamplePoint))
		}
	case opts.BitTiming != nil:
		args = append(args, timingArgs("", *opts.BitTiming)...)
	}
	switch {
	case opts.DataBitrate != nil:
		args = append(args, "dbitrate", u32(*opts.DataBitrate))
		if opts.DataSamplePoint != nil {
			args = append(args, "dsample-point", samplePointArg(*opts.DataSamplePoint))
		}
	case opts.DataBitTiming != nil:
		args = append(args, timingArgs("d", *opts.DataBitTiming)...)
	}
	if opts.FD != nil {
		if *opts.FD {
			args = append(args, "fd", "on")
		} else {
			args = append(args, "fd", "off")
		}
	}
	if opts.RestartMs != nil {
		args = append(args, "restart-ms", u32(*opts.RestartMs))
	}
	if len(args) > 6 {
		cmds = append(cmds, args)
	}
	return cmds, nil
}
