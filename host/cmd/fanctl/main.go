// Command fanctl talks to a fan controller over its serial command link
// and inspects raw dumps of its configuration flash.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"fanctl/host/board"
	"fanctl/host/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

// globalFlags are shared by every subcommand that opens the link.
type globalFlags struct {
	configPath string
	device     string
	baud       int
	timeoutMs  int
}

// dialBoard opens the controller described by cfg. Tests replace it.
var dialBoard = func(cfg *config.Config) (*board.Board, error) {
	b, err := board.ConnectWithConfig(cfg.SerialPort())
	if err != nil {
		return nil, err
	}
	b.SetTimeout(cfg.Timeout())
	return b, nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "fanctl",
		Short: "Fan controller companion tool",
		Long: `fanctl sends commands to a fan controller over its 9600 baud serial
link and decodes dumps of the controller's configuration flash.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&g.device, "device", "", "serial device (overrides config)")
	pf.IntVar(&g.baud, "baud", 0, "baud rate (overrides config)")
	pf.IntVar(&g.timeoutMs, "timeout", 0, "reply timeout in milliseconds (overrides config)")
	pf.AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newModeCmd(g))
	rootCmd.AddCommand(newPortCmd(g))
	rootCmd.AddCommand(newClockCmd(g))
	rootCmd.AddCommand(newDumpCmd())
	return rootCmd
}

// load resolves the effective configuration: file (or defaults), then flags.
func (g *globalFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}
	if g.device != "" {
		cfg.Serial.Device = g.device
	}
	if g.baud != 0 {
		cfg.Serial.Baud = g.baud
	}
	if g.timeoutMs != 0 {
		cfg.Serial.TimeoutMs = g.timeoutMs
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withBoard opens the link, runs fn and closes the link again.
func (g *globalFlags) withBoard(fn func(b *board.Board) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	glog.V(1).Infof("device %s, reply timeout %v", cfg.Serial.Device, cfg.Timeout())
	b, err := dialBoard(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "fanctl %s (commit %s)\n", version, commit)
			return nil
		},
	}
}

func main() {
	// glog registers on the standard flag set; cobra parses it for us.
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		glog.Flush()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
