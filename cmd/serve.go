package cmd

import (
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazharichir/holdem/bot"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/domain/hands"
	"github.com/lazharichir/holdem/ledger"
	"github.com/lazharichir/holdem/server"
	"github.com/lazharichir/holdem/table"
	"github.com/spf13/cobra"
)

const eventLogLimit = 1000

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket and HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":8080", "address to listen on")
	cmd.Flags().String("log-level", "info", "trace, debug, info, warn, error, critical or off")
	cmd.Flags().String("ledger-path", "data/holdem.db", "hand history database, empty to keep no history")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"listen":      "listen",
		"log_level":   "log-level",
		"ledger_path": "ledger-path",
	})
	if err != nil {
		return err
	}
	logs, err := newLoggers(cfg.LogLevel)
	if err != nil {
		return err
	}

	var store ledger.Store = ledger.NopStore{}
	if cfg.LedgerPath != "" {
		sqlite, err := ledger.NewSQLiteStore(cfg.LedgerPath, logs.ledger)
		if err != nil {
			return err
		}
		store = sqlite
		logs.ledger.Infof("Recording hands in %s", cfg.LedgerPath)
	} else {
		logs.ledger.Infof("No ledger path, hand history is not kept")
	}
	defer store.Close()

	srv := server.NewServer(server.Options{
		Rules: cfg.Table.Rules(),
		Loop: table.Config{
			NextHandDelay: cfg.Table.NextHandDelay,
			RunoutDelay:   cfg.Table.RunoutDelay,
			BotDelay:      cfg.Table.BotDelay,
			Log:           logs.table,
			Ledger:        store,
			EventStore:    events.NewInMemoryEventStore(eventLogLimit),
			Policy:        bot.NewStrengthPolicy(hands.NewEvaluator(), rand.New(rand.NewSource(time.Now().UnixNano()))),
		},
		Log:           logs.server,
		LobbyLog:      logs.lobby,
		EmptyTableTTL: cfg.Table.EmptyTTL,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx, cfg.Listen)
}
