package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"conti/internal/cli"
	"conti/internal/grid"
	"conti/internal/log"
	"conti/internal/period"
	"conti/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "conti:", err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(nil)
	if err != nil {
		return err
	}

	// The terminal belongs to the grid; logs go to LOG_FILE or nowhere.
	var logger *log.Logger
	closeLog := func() error { return nil }
	if cfg.LogFile != "" {
		logger, closeLog, err = cli.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogFile, log.ComponentApp)
		if err != nil {
			return err
		}
	} else {
		logger = log.Discard()
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting conti", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)

	tax, err := cli.LoadTaxonomy(logger, cfg)
	if err != nil {
		return err
	}

	be, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Warn("Failed to close backend", log.FieldError, err)
		}
	}()

	sel, err := period.New(cfg.DefaultPeriod)
	if err != nil {
		return err
	}

	notifier := tui.NewNotifier()
	ctrl := grid.New(be.Repository, tax, sel, grid.Options{
		Logger:            logger,
		PageSize:          cfg.PageSize,
		DeleteConcurrency: cfg.DeleteConcurrency,
		OnChange:          notifier.Notify,
	})
	defer ctrl.Watch(ctx)()
	sel.MarkLoaded()

	model := tui.New(ctx, ctrl, sel, notifier, tui.Options{
		Logger:          logger,
		SuggestionLimit: cfg.SuggestionLimit,
		BlurDelay:       cfg.BlurDelay,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	return nil
}
