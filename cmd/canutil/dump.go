package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/notnil/canutil"
	"github.com/notnil/canutil/slcan"
)

// parseFilter parses ID or ID/MASK, both in any strconv base.
func parseFilter(s string, typ canutil.MessageFilterType) (canutil.MessageFilter, error) {
	f := canutil.MessageFilter{Type: typ}
	idStr, maskStr, hasMask := strings.Cut(s, "/")
	id, err := strconv.ParseUint(idStr, 0, 32)
	if err != nil {
		return f, fmt.Errorf("invalid filter id %q", idStr)
	}
	f.ID = uint32(id)
	if hasMask {
		m, err := strconv.ParseUint(maskStr, 0, 32)
		if err != nil {
			return f, fmt.Errorf("invalid filter mask %q", maskStr)
		}
		mask := uint32(m)
		f.Mask = &mask
	}
	return f, nil
}

func parseFilters(accept, ignore []string) ([]canutil.MessageFilter, error) {
	var out []canutil.MessageFilter
	for _, s := range accept {
		f, err := parseFilter(s, canutil.MatchMeansAccept)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	for _, s := range ignore {
		f, err := parseFilter(s, canutil.MatchMeansIgnore)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

const channelTimeout = 2 * time.Second

// startChannel resets the adapter's channel and opens it. Adapters reject
// C when the channel is already closed.
func startChannel(ctx context.Context, port *slcan.Port, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := port.CloseChannel(ctx); err != nil && !errors.Is(err, slcan.ErrRejected) {
		return err
	}
	if err := port.OpenChannel(ctx); err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	return nil
}

// dumpFrames prints frames from bus until ctx is done.
func dumpFrames(ctx context.Context, bus canutil.Bus, w func(string)) error {
	for {
		f, err := bus.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		w(f.String())
	}
}

func dumpCmd(root *rootOptions) *cobra.Command {
	var (
		accept  []string
		ignore  []string
		slcanOn bool
	)
	cmd := &cobra.Command{
		Use:   "dump IFACE",
		Short: "Print received frames",
		Long: `Print frames received on a SocketCAN interface, or on an SLCAN serial
adapter with --slcan, until interrupted.

Filters take the form ID or ID/MASK. --filter forwards matching frames
and --ignore drops them. On SocketCAN they are also installed in the
kernel.

Examples:
  canutil dump can0
  canutil dump can0 --filter 0x100/0x700 --ignore 0x123
  canutil dump --slcan /dev/ttyACM0 --log-level debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(accept, ignore)
			if err != nil {
				return err
			}
			var bus canutil.Bus
			if slcanOn {
				port, err := slcan.Open(slcan.DefaultConfig(args[0]))
				if err != nil {
					return err
				}
				if err := startChannel(cmd.Context(), port, channelTimeout); err != nil {
					_ = port.Close()
					return err
				}
				bus = port
			} else {
				bus, err = canutil.DialSocketCAN(args[0], filters...)
				if errors.Is(err, canutil.ErrUnsupported) {
					return fmt.Errorf("SocketCAN is only available on Linux: %w", err)
				}
				if err != nil {
					return err
				}
			}
			var sw canutil.FrameFilter
			if len(filters) > 0 {
				sw = canutil.ByMessageFilters(filters...)
			}
			bus = canutil.NewLoggedBus(bus, root.logger.With("iface", args[0]), slog.LevelDebug, canutil.LogRead, sw)
			defer bus.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The kernel ORs its filter entries, so mixed accept and ignore
			// filters are checked again here.
			if sw != nil {
				bus = filteredBus{bus, sw}
			}
			out := cmd.OutOrStdout()
			return dumpFrames(ctx, bus, func(s string) { fmt.Fprintln(out, s) })
		},
	}
	cmd.Flags().StringSliceVar(&accept, "filter", nil, "Forward only frames matching ID[/MASK] (repeatable)")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Drop frames matching ID[/MASK] (repeatable)")
	cmd.Flags().BoolVar(&slcanOn, "slcan", false, "IFACE is an SLCAN serial device")
	return cmd
}

// filteredBus drops received frames the filter rejects.
type filteredBus struct {
	canutil.Bus
	filter canutil.FrameFilter
}

func (b filteredBus) Receive(ctx context.Context) (canutil.Frame, error) {
	for {
		f, err := b.Bus.Receive(ctx)
		if err != nil || b.filter(f) {
			return f, err
		}
	}
}
