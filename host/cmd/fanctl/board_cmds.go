package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fanctl/host/board"
	"fanctl/protocol"
)

func newModeCmd(g *globalFlags) *cobra.Command {
	modeCmd := &cobra.Command{
		Use:   "mode",
		Short: "Query or change the firmware mode",
	}

	modeCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withBoard(func(b *board.Board) error {
				mode, err := b.GetMode()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mode)
				return nil
			})
		},
	})

	modeCmd.AddCommand(&cobra.Command{
		Use:   "set <normal|manual|test>",
		Short: "Switch the firmware mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := protocol.ParseMode(args[0])
			if !ok {
				return fmt.Errorf("unknown mode %q", args[0])
			}
			return g.withBoard(func(b *board.Board) error {
				return b.SetMode(mode)
			})
		},
	})
	return modeCmd
}

func parseReadablePort(s string) (protocol.ReadablePort, error) {
	for _, p := range []protocol.ReadablePort{protocol.PortPWMInput, protocol.PortSpeedInput} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown input port %q (want pwm_input or speed_input)", s)
}

func parseWritablePort(s string) (protocol.WritablePort, error) {
	for _, p := range []protocol.WritablePort{protocol.PortSpeedOutput, protocol.PortPWMOutput} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown output port %q (want speed_output or pwm_output)", s)
}

func newPortCmd(g *globalFlags) *cobra.Command {
	portCmd := &cobra.Command{
		Use:   "port",
		Short: "Sample inputs or drive outputs (test mode only)",
	}

	var watch time.Duration
	var count int
	readCmd := &cobra.Command{
		Use:   "read <pwm_input|speed_input>",
		Short: "Print the level of an input line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parseReadablePort(args[0])
			if err != nil {
				return err
			}
			return g.withBoard(func(b *board.Board) error {
				for i := 0; watch == 0 || count == 0 || i < count; i++ {
					if i > 0 {
						select {
						case <-cmd.Context().Done():
							return nil
						case <-time.After(watch):
						}
					}
					level, err := b.ReadPort(port)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%d\n", port, boolToInt(level))
					if watch == 0 {
						return nil
					}
				}
				return nil
			})
		},
	}
	readCmd.Flags().DurationVar(&watch, "watch", 0, "poll the line at this interval until interrupted")
	readCmd.Flags().IntVar(&count, "count", 0, "stop after this many reads when watching (0 = no limit)")
	portCmd.AddCommand(readCmd)

	portCmd.AddCommand(&cobra.Command{
		Use:   "write <speed_output|pwm_output> <0|1>",
		Short: "Drive an output line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parseWritablePort(args[0])
			if err != nil {
				return err
			}
			level, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid level %q", args[1])
			}
			return g.withBoard(func(b *board.Board) error {
				return b.WritePort(port, level)
			})
		},
	})
	return portCmd
}

func newClockCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clock",
		Short: "Print the controller's time since boot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withBoard(func(b *board.Board) error {
				us, err := b.ReadClock()
				if err != nil {
					return err
				}
				uptime := time.Duration(us) * time.Microsecond
				fmt.Fprintf(cmd.OutOrStdout(), "boot_time=%dus (%v)\n", us, uptime)
				return nil
			})
		},
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
