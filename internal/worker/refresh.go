package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/coinconv/internal/domain"
)

// AssetRefresher fetches a fresh asset list from upstream.
type AssetRefresher interface {
	Refresh(ctx context.Context) ([]domain.Asset, error)
}

// AfterRefreshHook is called with the list after each successful refresh.
type AfterRefreshHook interface {
	Export(ctx context.Context, assets []domain.Asset) error
}

// RefreshWorker periodically refreshes the market asset list.
type RefreshWorker struct {
	refresher AssetRefresher
	interval  time.Duration
	hook      AfterRefreshHook // optional
}

// NewRefreshWorker creates a new RefreshWorker with an optional post-refresh hook.
func NewRefreshWorker(refresher AssetRefresher, interval time.Duration, hook AfterRefreshHook) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
		hook:      hook,
	}
}

// Run starts the refresh loop. It blocks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	slog.Info("RefreshWorker: starting", "interval", w.interval)

	// Refresh immediately on startup
	w.tick(ctx, "initial refresh")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RefreshWorker: shutting down")
			return
		case <-ticker.C:
			w.tick(ctx, "refresh")
		}
	}
}

func (w *RefreshWorker) tick(ctx context.Context, label string) {
	assets, err := w.refresher.Refresh(ctx)
	if err != nil {
		slog.Error("RefreshWorker: "+label+" failed", "error", err)
		return
	}
	slog.Info("RefreshWorker: "+label+" completed", "assets", len(assets))
	w.runHook(ctx, assets)
}

// runHook calls the post-refresh hook if one is configured.
func (w *RefreshWorker) runHook(ctx context.Context, assets []domain.Asset) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, assets); err != nil {
		slog.Error("RefreshWorker: export hook failed", "error", err)
	} else {
		slog.Info("RefreshWorker: export hook completed")
	}
}
