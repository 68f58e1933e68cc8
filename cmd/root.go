// Package cmd holds the holdem command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/decred/slog"
	"github.com/lazharichir/holdem/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// loggers are the subsystem loggers of the server, all fed by one backend.
type loggers struct {
	server slog.Logger
	lobby  slog.Logger
	table  slog.Logger
	ledger slog.Logger
}

func newLoggers(level string) (loggers, error) {
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return loggers{}, fmt.Errorf("unknown log level %q", level)
	}

	backend := slog.NewBackend(os.Stderr)
	l := loggers{
		server: backend.Logger("SRVR"),
		lobby:  backend.Logger("LBBY"),
		table:  backend.Logger("TBLE"),
		ledger: backend.Logger("LDGR"),
	}
	for _, logger := range []slog.Logger{l.server, l.lobby, l.table, l.ledger} {
		logger.SetLevel(lvl)
	}
	return l, nil
}

// loadConfig reads holdem.yaml and the environment. Flags given on the
// command line win; flags maps config keys to flag names.
func loadConfig(cmd *cobra.Command, flags map[string]string) (config.Config, error) {
	v := viper.New()
	for key, name := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return config.Config{}, fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return config.Load(v, cfgFile)
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "holdem",
		Short:         "Texas Hold'em table server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./holdem.yaml)")

	root.AddCommand(newServeCmd(), newTablesCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
