package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notnil/canutil"
)

func dlcCmd() *cobra.Command {
	var bytes bool
	cmd := &cobra.Command{
		Use:   "dlc [VALUE...]",
		Short: "Convert between CAN-FD DLC codes and payload lengths",
		Long: `Convert CAN-FD data length codes to payload byte counts, or with --bytes
convert byte counts to the smallest DLC that holds them. Without arguments
the whole DLC table is printed.

Examples:
  canutil dlc
  canutil dlc 9 15
  canutil dlc --bytes 10 33`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if len(args) == 0 {
				fmt.Fprintln(w, "DLC\tBYTES")
				for dlc := uint8(0); dlc < 16; dlc++ {
					fmt.Fprintf(w, "%d\t%d\n", dlc, canutil.DLCToByteCount(dlc))
				}
				return w.Flush()
			}
			if bytes {
				fmt.Fprintln(w, "BYTES\tDLC\tFRAME")
				for _, a := range args {
					n, err := strconv.Atoi(a)
					if err != nil {
						return fmt.Errorf("invalid byte count %q", a)
					}
					dlc := canutil.ByteCountToDLC(n)
					fmt.Fprintf(w, "%d\t%d\t%d\n", n, dlc, canutil.DLCToByteCount(dlc))
				}
				return w.Flush()
			}
			fmt.Fprintln(w, "DLC\tBYTES")
			for _, a := range args {
				v, err := strconv.ParseUint(a, 0, 8)
				if err != nil || v > 15 {
					return fmt.Errorf("invalid DLC %q (0-15)", a)
				}
				fmt.Fprintf(w, "%d\t%d\n", v, canutil.DLCToByteCount(uint8(v)))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&bytes, "bytes", false, "Arguments are byte counts instead of DLC codes")
	return cmd
}
