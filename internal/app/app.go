// Package app provides the top-level application lifecycle management for the
// ledger client. It wires together all dependencies (authority client,
// journal, cache, blob storage, services) and runs the background loops:
// the change-event stream and the journal archival cycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphaledger/ledgerd/internal/config"
	"github.com/alphaledger/ledgerd/internal/domain"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the change
// stream and the archival loop when configured, and blocks until the context
// is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("endpoint", a.cfg.Ledger.Endpoint),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if deps.Stream != nil {
		if err := deps.Stream.Connect(ctx); err != nil {
			return fmt.Errorf("app: connect stream: %w", err)
		}
		kinds := []string{domain.KindTransaction, domain.KindPosition}
		if err := deps.Stream.Subscribe(ctx, kinds, a.cfg.Stream.Owners); err != nil {
			return fmt.Errorf("app: subscribe stream: %w", err)
		}
		a.logger.InfoContext(ctx, "change stream connected",
			slog.String("ws_url", a.cfg.Stream.WSURL),
			slog.Int("owner_count", len(a.cfg.Stream.Owners)),
		)
	}

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		go a.archiveLoop(ctx, deps.Archiver)
	}

	<-ctx.Done()
	return ctx.Err()
}

// archiveLoop periodically archives journal entries older than the retention
// window and prunes them once the archive is durable.
func (a *App) archiveLoop(ctx context.Context, archiver domain.Archiver) {
	ticker := time.NewTicker(a.cfg.Archive.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)

			archived, err := archiver.ArchiveJournal(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "journal archive failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if archived == 0 {
				continue
			}

			pruned, err := archiver.PruneJournal(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "journal prune failed",
					slog.String("error", err.Error()),
				)
				continue
			}

			a.logger.InfoContext(ctx, "journal archived",
				slog.Int64("archived", archived),
				slog.Int64("pruned", pruned),
			)
		}
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
