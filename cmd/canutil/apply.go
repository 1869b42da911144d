package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/notnil/canutil"
	"github.com/notnil/canutil/slcan"
	"github.com/notnil/canutil/timing"
)

type applyOptions struct {
	nominal timingFlags
	data    timingFlags

	prefer    string
	restartMs int64
	txQueue   int
	slcanDev  bool
	dryRun    bool
	timeout   time.Duration
}

func applyCmd(root *rootOptions) *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply IFACE",
		Short: "Solve a bit timing and program it into an interface",
		Long: `Solve a bit timing and program the chosen solution into a Linux CAN
network interface through iproute2, or into an SLCAN serial adapter.

The interface is taken down, configured and brought back up. Setting
--data-bitrate also enables CAN-FD and programs the data phase.

With --slcan, IFACE is the serial device and the adapter's fixed 8 MHz
SJA1000 clock and register limits are used.

Examples:
  canutil apply can0 --clock 80 --bitrate 500000 --controller mcan --prefer closest
  canutil apply can0 --clock 80 --bitrate 500000 --controller mcan --data-bitrate 2000000 --dry-run
  canutil apply --slcan /dev/ttyACM0 --bitrate 83333 --sample-point 87.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validPolicy(opts.prefer); err != nil {
				return err
			}
			if opts.slcanDev {
				return applySLCAN(cmd.Context(), root, opts, args[0], cmd.OutOrStdout())
			}
			return applyLinux(root, opts, args[0], cmd.OutOrStdout())
		},
	}
	opts.nominal.register(cmd, "", "nominal")
	opts.data.register(cmd, "data-", "data phase")
	cmd.Flags().StringVar(&opts.prefer, "prefer", preferClosest, "Which solution to program (first, last, closest)")
	cmd.Flags().Int64Var(&opts.restartMs, "restart-ms", -1, "Automatic bus-off restart delay in ms (0 disables, -1 leaves unchanged)")
	cmd.Flags().IntVar(&opts.txQueue, "txqueuelen", 0, "Transmit queue length (0 leaves unchanged)")
	cmd.Flags().BoolVar(&opts.slcanDev, "slcan", false, "IFACE is an SLCAN serial device")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print what would be done without touching the interface")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "Timeout for SLCAN adapter commands")
	return cmd
}

// pick solves pr and selects one solution under the given policy.
func pick(pr problem, policy string, logger *slog.Logger, phase string) (timing.Parameters, error) {
	sols, err := pr.solutions()
	if err != nil {
		return timing.Parameters{}, err
	}
	p, ok, err := choose(sols.All(), policy, pr.samplePoint)
	if err != nil {
		return timing.Parameters{}, err
	}
	if !ok {
		return timing.Parameters{}, fmt.Errorf("no %s bit timing for %d bit/s from %d MHz within %+v", phase, pr.bitrate, pr.clock, pr.limits)
	}
	logger.Info("selected bit timing", "phase", phase, "prescaler", p.Prescaler, "seg1", p.Seg1, "seg2", p.Seg2,
		"sjw", p.JumpWidth, "tq", p.TimeQuantum(pr.clock), "sample_point", formatSamplePoint(p.SamplePoint()))
	return p, nil
}

// linuxOptions resolves both phases into iproute2 options.
func linuxOptions(root *rootOptions, opts *applyOptions) (canutil.LinuxCANInterfaceOptions, error) {
	var out canutil.LinuxCANInterfaceOptions

	pr, err := opts.nominal.resolve(root.cfg, opts.nominal.clock, root.cfg.Defaults.Controller)
	if err != nil {
		return out, err
	}
	p, err := pick(pr, opts.prefer, root.logger, "nominal")
	if err != nil {
		return out, err
	}
	bt, err := canutil.BitTimingFor(p, pr.clock)
	if err != nil {
		return out, err
	}
	out.BitTiming = &bt

	if opts.data.bitrate != 0 {
		dpr, err := opts.data.resolve(root.cfg, uint32(pr.clock), "mcan-data")
		if err != nil {
			return out, err
		}
		dp, err := pick(dpr, opts.prefer, root.logger, "data")
		if err != nil {
			return out, err
		}
		dbt, err := canutil.BitTimingFor(dp, dpr.clock)
		if err != nil {
			return out, err
		}
		fd := true
		out.DataBitTiming = &dbt
		out.FD = &fd
	}
	if opts.restartMs >= 0 {
		ms := uint32(opts.restartMs)
		out.RestartMs = &ms
	}
	if opts.txQueue > 0 {
		q := opts.txQueue
		out.TxQueueLen = &q
	}
	return out, nil
}

func applyLinux(root *rootOptions, opts *applyOptions, iface string, w io.Writer) error {
	lopts, err := linuxOptions(root, opts)
	if err != nil {
		return err
	}
	if opts.dryRun {
		cmds, err := canutil.IPCommands(iface, lopts)
		if err != nil {
			return err
		}
		for _, args := range cmds {
			fmt.Fprintf(w, "ip %s\n", strings.Join(args, " "))
		}
		return nil
	}

	logger := root.logger.With("iface", iface)
	if err := canutil.SetInterfaceDown(iface); err != nil {
		return fmt.Errorf("failed to bring %s down: %w", iface, err)
	}
	logger.Debug("interface down")
	if err := canutil.ConfigureLinuxCANInterface(iface, lopts); err != nil {
		return err
	}
	if err := canutil.SetInterfaceUp(iface); err != nil {
		return fmt.Errorf("failed to bring %s up: %w", iface, err)
	}
	logger.Info("interface configured")
	fmt.Fprintf(w, "%s configured\n", iface)
	return nil
}

// narrowLimits replaces the controller with fixed limits. Max flags that
// are unset or larger than l are capped at l.
func narrowLimits(f timingFlags, l timing.Limits) timingFlags {
	f.controller = ""
	f.maxBRP = capAt(f.maxBRP, l.MaxPrescaler)
	f.maxSeg1 = capAt(f.maxSeg1, uint16(l.MaxSeg1))
	f.maxSeg2 = capAt(f.maxSeg2, uint16(l.MaxSeg2))
	f.maxSJW = capAt(f.maxSJW, uint16(l.MaxJumpWidth))
	return f
}

func capAt[T uint16 | uint32](v, limit T) T {
	if v == 0 {
		return limit
	}
	return min(v, limit)
}

func applySLCAN(ctx context.Context, root *rootOptions, opts *applyOptions, device string, w io.Writer) error {
	if opts.data.bitrate != 0 {
		return errors.New("SLCAN adapters do not support CAN-FD data phase timing")
	}
	if opts.nominal.clock != 0 && timing.MegaHertz(opts.nominal.clock) != slcan.Clock {
		root.logger.Warn("ignoring --clock for SLCAN adapter", "clock", opts.nominal.clock, "adapter_clock", slcan.Clock)
	}

	flags := narrowLimits(opts.nominal, slcan.Limits)
	pr, err := flags.resolve(root.cfg, uint32(slcan.Clock), "")
	if err != nil {
		return err
	}
	p, err := pick(pr, opts.prefer, root.logger, "nominal")
	if err != nil {
		return err
	}
	line, err := slcan.TimingCommand(p)
	if err != nil {
		return err
	}
	if opts.dryRun {
		fmt.Fprintf(w, "%q\n", line)
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	port, err := slcan.Open(slcan.DefaultConfig(device))
	if err != nil {
		return err
	}
	defer port.Close()

	logger := root.logger.With("device", device)
	// The channel may already be closed; adapters reject C in that state.
	if err := port.CloseChannel(ctx); err != nil && !errors.Is(err, slcan.ErrRejected) {
		return err
	}
	if err := port.SetTiming(ctx, p); err != nil {
		return fmt.Errorf("failed to program timing: %w", err)
	}
	if err := port.OpenChannel(ctx); err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	logger.Info("adapter configured", "command", strings.TrimSuffix(line, "\r"))
	fmt.Fprintf(w, "%s configured\n", device)
	return nil
}
