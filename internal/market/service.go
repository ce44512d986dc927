package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/coinconv/internal/domain"
)

// AssetSource supplies an ordered list of assets priced in USD.
type AssetSource interface {
	FetchTopAssets(ctx context.Context, limit int) ([]domain.Asset, error)
}

// Service caches the asset list from an upstream source and optionally persists it.
// It is itself an AssetSource.
type Service struct {
	source       AssetSource
	repo         Repository
	cache        *assetCache
	defaultLimit int
}

// NewService creates a market Service. repo may be nil when no database is configured.
func NewService(source AssetSource, repo Repository, ttl time.Duration, defaultLimit int) *Service {
	return &Service{
		source:       source,
		repo:         repo,
		cache:        newAssetCache(ttl),
		defaultLimit: defaultLimit,
	}
}

// DefaultLimit is the list size used by Refresh and Asset.
func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// FetchTopAssets returns up to limit assets, from cache when fresh. When the upstream
// fetch fails it falls back to the last known list (memory, then database).
func (s *Service) FetchTopAssets(ctx context.Context, limit int) ([]domain.Asset, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if assets, ok := s.cache.get(limit); ok {
		return assets, nil
	}

	assets, err := s.refresh(ctx, limit)
	if err == nil {
		return assets, nil
	}

	if stale, fetchedAt, ok := s.cache.stale(limit); ok {
		slog.Warn("market: serving stale assets", "fetchedAt", fetchedAt, "error", err)
		return stale, nil
	}

	if s.repo != nil {
		stored, savedAt, repoErr := s.repo.LoadAssets(ctx, limit)
		if repoErr == nil {
			slog.Warn("market: serving stored assets", "savedAt", savedAt, "error", err)
			return stored, nil
		}
		slog.Debug("market: no stored fallback", "error", repoErr)
	}

	return nil, err
}

// Refresh forces an upstream fetch of the default list size.
func (s *Service) Refresh(ctx context.Context) ([]domain.Asset, error) {
	return s.refresh(ctx, s.defaultLimit)
}

// Asset resolves an asset id against the default list.
func (s *Service) Asset(ctx context.Context, id string) (domain.Asset, error) {
	assets, err := s.FetchTopAssets(ctx, s.defaultLimit)
	if err != nil {
		return domain.Asset{}, err
	}
	a, ok := domain.FindAsset(assets, id)
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	return a, nil
}

func (s *Service) refresh(ctx context.Context, limit int) ([]domain.Asset, error) {
	assets, err := s.source.FetchTopAssets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching top assets: %w", err)
	}

	s.cache.set(assets, limit)

	if s.repo != nil && len(assets) > 0 {
		if err := s.repo.SaveAssets(ctx, assets); err != nil {
			slog.Warn("market: failed to persist assets", "count", len(assets), "error", err)
		}
	}

	return head(assets, limit), nil
}
