package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notnil/canutil/timing"
)

// timingFlags are the flags that describe one timing problem. apply
// registers a second set with a "data-" prefix for the CAN-FD data phase.
type timingFlags struct {
	prefix string

	clock       uint32
	bitrate     uint32
	samplePoint string
	protocol    string
	sjw         uint16
	controller  string
	maxBRP      uint32
	maxSeg1     uint16
	maxSeg2     uint16
	maxSJW      uint16
}

func (f *timingFlags) register(cmd *cobra.Command, prefix, what string) {
	f.prefix = prefix
	fs := cmd.Flags()
	if prefix == "" {
		fs.Uint32Var(&f.clock, "clock", 0, "Controller clock in MHz")
	}
	fs.Uint32Var(&f.bitrate, prefix+"bitrate", 0, what+" bitrate in bits per second")
	fs.StringVar(&f.samplePoint, prefix+"sample-point", "", what+" sample point in percent, e.g. 87.5")
	fs.StringVar(&f.protocol, prefix+"protocol", "", "Use the recommended "+what+" sample point of a protocol (canopen, devicenet, j1939, j2284, arinc825)")
	fs.Uint16Var(&f.sjw, prefix+"sjw", 0, what+" synchronization jump width in quanta (default 1)")
	fs.StringVar(&f.controller, prefix+"controller", "", "Controller profile for "+what+" register limits")
	fs.Uint32Var(&f.maxBRP, prefix+"max-brp", 0, "Override the maximum "+what+" prescaler")
	fs.Uint16Var(&f.maxSeg1, prefix+"max-seg1", 0, "Override the maximum "+what+" SEG1 length")
	fs.Uint16Var(&f.maxSeg2, prefix+"max-seg2", 0, "Override the maximum "+what+" SEG2 length")
	fs.Uint16Var(&f.maxSJW, prefix+"max-sjw", 0, "Override the maximum "+what+" jump width")
}

// problem is a fully resolved set of solver inputs.
type problem struct {
	clock       timing.MegaHertz
	bitrate     timing.BitsPerSecond
	samplePoint timing.SamplePoint
	jumpWidth   timing.SegmentLength
	limits      timing.Limits
}

func (p problem) solutions() (*timing.Solutions, error) {
	return timing.Compute(p.clock, p.bitrate, p.samplePoint, p.jumpWidth, p.limits)
}

// resolve fills in unset flags from the controller profile and the config
// defaults. Explicit flags always win.
func (f *timingFlags) resolve(cfg *fileConfig, clock uint32, defaultController string) (problem, error) {
	var pr problem
	if f.bitrate == 0 {
		return pr, fmt.Errorf("--%sbitrate is required", f.prefix)
	}
	pr.bitrate = timing.BitsPerSecond(f.bitrate)

	name := f.controller
	if name == "" {
		name = defaultController
	}
	var cc controllerConfig
	if name != "" {
		var ok bool
		if cc, ok = cfg.controller(name); !ok {
			return pr, fmt.Errorf("unknown controller %q (built-in: %v)", name, timing.Controllers())
		}
	}
	pr.limits = cc.limits()
	if f.maxBRP != 0 {
		pr.limits.MaxPrescaler = f.maxBRP
	}
	if f.maxSeg1 != 0 {
		pr.limits.MaxSeg1 = timing.SegmentLength(f.maxSeg1)
	}
	if f.maxSeg2 != 0 {
		pr.limits.MaxSeg2 = timing.SegmentLength(f.maxSeg2)
	}
	if f.maxSJW != 0 {
		pr.limits.MaxJumpWidth = timing.SegmentLength(f.maxSJW)
	}
	if err := pr.limits.Validate(); err != nil {
		return pr, fmt.Errorf("set --%scontroller or every --%smax-* flag: %w", f.prefix, f.prefix, err)
	}

	switch {
	case clock != 0:
		pr.clock = timing.MegaHertz(clock)
	case cc.Clock != 0:
		pr.clock = timing.MegaHertz(cc.Clock)
	default:
		pr.clock = timing.MegaHertz(cfg.Defaults.Clock)
	}
	if pr.clock == 0 {
		return pr, errors.New("--clock is required")
	}

	if f.samplePoint != "" && f.protocol != "" {
		return pr, fmt.Errorf("--%ssample-point and --%sprotocol are mutually exclusive", f.prefix, f.prefix)
	}
	protocol := f.protocol
	if protocol == "" {
		protocol = cfg.Defaults.Protocol
	}
	switch {
	case f.samplePoint != "":
		sp, err := timing.ParseSamplePoint(f.samplePoint)
		if err != nil {
			return pr, err
		}
		pr.samplePoint = sp
	case protocol != "":
		sp, ok := timing.Recommended(protocol)
		if !ok {
			return pr, fmt.Errorf("unknown protocol %q (known: %v)", protocol, timing.Protocols())
		}
		pr.samplePoint = sp
	default:
		pr.samplePoint = timing.CANopen
	}

	switch {
	case f.sjw != 0:
		pr.jumpWidth = timing.SegmentLength(f.sjw)
	case cfg.Defaults.JumpWidth != 0:
		pr.jumpWidth = timing.SegmentLength(cfg.Defaults.JumpWidth)
	default:
		pr.jumpWidth = 1
	}
	return pr, nil
}

func formatSamplePoint(tenths uint16) string {
	return fmt.Sprintf("%d.%d%%", tenths/10, tenths%10)
}

func solveCmd(root *rootOptions) *cobra.Command {
	var (
		flags timingFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "List bit-timing register values for a clock and bitrate",
		Long: `List every prescaler and segment combination that produces the requested
bitrate from the controller clock within the controller's register limits.

Rows are ordered by ascending prescaler.

Examples:
  canutil solve --clock 80 --bitrate 500000 --controller bxcan
  canutil solve --clock 40 --bitrate 250000 --protocol j1939 --controller mcan
  canutil solve --clock 16 --bitrate 125000 --max-brp 64 --max-seg1 16 --max-seg2 8 --max-sjw 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pr, err := flags.resolve(root.cfg, flags.clock, root.cfg.Defaults.Controller)
			if err != nil {
				return err
			}
			sols, err := pr.solutions()
			if err != nil {
				return err
			}
			root.logger.Debug("solving", "clock", pr.clock, "bitrate", pr.bitrate, "sample_point", pr.samplePoint.String(), "limits", pr.limits)

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BRP\tSEG1\tSEG2\tSJW\tTQ\tSAMPLE")
			n := 0
			for p := range sols.All() {
				if limit > 0 && n == limit {
					break
				}
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\n",
					p.Prescaler, p.Seg1, p.Seg2, p.JumpWidth, p.TimeQuantum(pr.clock), formatSamplePoint(p.SamplePoint()))
				n++
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(out, "no solutions")
			}
			return nil
		},
	}
	flags.register(cmd, "", "nominal")
	cmd.Flags().IntVar(&limit, "limit", 0, "Print at most this many rows (0 for all)")
	return cmd
}
