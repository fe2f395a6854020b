package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tidemark/marketd/internal/config"
	"github.com/tidemark/marketd/internal/core/market"
	"github.com/tidemark/marketd/internal/log"
	"github.com/tidemark/marketd/internal/server"
	"github.com/tidemark/marketd/internal/storage"
	"github.com/tidemark/marketd/internal/storage/history"
	"github.com/tidemark/marketd/internal/storage/journal"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketd daemon",
	Long: `Start the marketd daemon: opens the configured storage backend,
restores market state, and serves the JSON-RPC API until interrupted.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// running without a subcommand starts the daemon
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger, err := log.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := storage.OpenBackend(cfg.Storage.Backend, storage.Config{
		Path:         cfg.Storage.Path,
		CacheEntries: cfg.Storage.CacheEntries,
		Sync:         cfg.Storage.Sync,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	logger.Info("storage opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("path", cfg.Storage.Path))

	clock := market.ClockFunc(func() int64 { return time.Now().Unix() })
	engine := market.NewEngine(storage.NewStoreView(store),
		cfg.Market.EngineConfig(), clock, logger.Named("engine"))

	opts := server.Options{Log: logger.Named("rpc")}
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.History.Enabled {
		hist, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer hist.Close()
		opts.History = hist
	}
	if cfg.Journal.Enabled {
		jrnl, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jrnl.Close()
		opts.Journal = jrnl
	}

	srv := server.New(engine, clock, opts)
	logger.Info("marketd starting",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("config", cfg.Path()))

	if err := srv.Start(ctx, cfg.Server.Addr()); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("marketd stopped")
	return nil
}
