package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"conti/internal/amqp"
	"conti/internal/cache"
	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/log"
	"conti/internal/sheets"
	gsheet "conti/internal/sheets/google"
	memmirror "conti/internal/sheets/memory"
	"conti/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheCleanup    = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "conti-worker:", err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	if err != nil {
		return err
	}

	logger, closeLog, err := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFile, log.ComponentWorker)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("Starting conti-worker", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process; only seed data will be mirrored")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	// The worker only reads the store, so it never publishes events itself.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be, err := cli.InitBackend(startupCtx, logger, &storeCfg)
	if err != nil {
		return err
	}
	defer be.Close()

	caches := cache.NewManager(logger)
	mirror, err := newMirror(startupCtx, cfg, logger, caches)
	if err != nil {
		return err
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer consumer.Close()

	mirrorWorker := worker.NewMirrorWorker(be.Repository, mirror, logger)
	runnerCfg := worker.DefaultRunnerConfig()
	runnerCfg.ReconcileInterval = cfg.ReconcileInterval
	if cfg.DefaultPeriod != "" {
		p := cfg.DefaultPeriod
		runnerCfg.Period = func() string { return p }
	}
	runner := worker.NewRunner(mirrorWorker, consumer, runnerCfg)

	caches.StartCleanup(cacheCleanup)

	ctx, shutdownDone := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := runner.Stop(ctx); err != nil {
			logger.Error("Failed to stop runner", log.FieldError, err)
		}
		caches.Stop()
		caches.Wait()
	})

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}

	select {
	case <-shutdownDone:
	case <-runner.Done():
		if err := runner.Err(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Runner stopped", log.FieldError, err)
			caches.Stop()
			return err
		}
		<-shutdownDone
	}
	return nil
}

// newMirror returns the Google Sheets mirror, or an in-memory one when no
// spreadsheet is configured.
func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger, caches *cache.Manager) (sheets.Mirror, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - mirroring in memory")
		return memmirror.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CacheSize:       cfg.MirrorCacheSize,
		CacheTTL:        cfg.MirrorCacheTTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets mirror: %w", err)
	}
	caches.Register(client.RowCache())
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
