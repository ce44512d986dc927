package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mtlprog/coinconv/internal/domain"
)

type mockSource struct {
	assets []domain.Asset
	err    error
	calls  int
	limits []int
}

func (m *mockSource) FetchTopAssets(_ context.Context, limit int) ([]domain.Asset, error) {
	m.calls++
	m.limits = append(m.limits, limit)
	if m.err != nil {
		return nil, m.err
	}
	return head(m.assets, limit), nil
}

type mockRepo struct {
	saved   []domain.Asset
	saveErr error
	stored  []domain.Asset
}

func (m *mockRepo) SaveAssets(_ context.Context, assets []domain.Asset) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = assets
	return nil
}

func (m *mockRepo) LoadAssets(_ context.Context, limit int) ([]domain.Asset, time.Time, error) {
	if len(m.stored) == 0 {
		return nil, time.Time{}, ErrNoAssets
	}
	return head(m.stored, limit), time.Now(), nil
}

func TestFetchTopAssetsCaches(t *testing.T) {
	src := &mockSource{assets: sampleAssets()}
	svc := NewService(src, nil, time.Minute, 100)

	first, err := svc.FetchTopAssets(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("len = %d, want 2", len(first))
	}

	if _, err := svc.FetchTopAssets(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1 (second call cached)", src.calls)
	}
}

func TestFetchTopAssetsDefaultLimit(t *testing.T) {
	src := &mockSource{assets: sampleAssets()}
	svc := NewService(src, nil, time.Minute, 100)

	if _, err := svc.FetchTopAssets(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.limits) != 1 || src.limits[0] != 100 {
		t.Errorf("limits = %v, want [100]", src.limits)
	}
}

func TestFetchTopAssetsPersists(t *testing.T) {
	src := &mockSource{assets: sampleAssets()}
	repo := &mockRepo{}
	svc := NewService(src, repo, time.Minute, 100)

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 3 {
		t.Errorf("saved %d assets, want 3", len(repo.saved))
	}
}

func TestFetchTopAssetsPersistFailureIsNotFatal(t *testing.T) {
	src := &mockSource{assets: sampleAssets()}
	repo := &mockRepo{saveErr: errors.New("db down")}
	svc := NewService(src, repo, time.Minute, 100)

	assets, err := svc.FetchTopAssets(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 3 {
		t.Errorf("len = %d, want 3", len(assets))
	}
}

func TestFetchTopAssetsFallsBackToStaleCache(t *testing.T) {
	src := &mockSource{assets: sampleAssets()}
	svc := NewService(src, nil, time.Minute, 100)

	if _, err := svc.FetchTopAssets(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.cache.mu.Lock()
	svc.cache.entry.expiresAt = time.Now().Add(-time.Second)
	svc.cache.mu.Unlock()
	src.err = errors.New("rate limited")

	assets, err := svc.FetchTopAssets(context.Background(), 3)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if len(assets) != 3 {
		t.Errorf("len = %d, want 3", len(assets))
	}
}

func TestFetchTopAssetsFallsBackToRepository(t *testing.T) {
	src := &mockSource{err: errors.New("offline")}
	repo := &mockRepo{stored: sampleAssets()}
	svc := NewService(src, repo, time.Minute, 100)

	assets, err := svc.FetchTopAssets(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected stored fallback, got error: %v", err)
	}
	if len(assets) != 2 || assets[0].ID != "bitcoin" {
		t.Errorf("assets = %+v", assets)
	}
}

func TestFetchTopAssetsErrorWithoutFallback(t *testing.T) {
	src := &mockSource{err: errors.New("offline")}
	svc := NewService(src, &mockRepo{}, time.Minute, 100)

	if _, err := svc.FetchTopAssets(context.Background(), 2); err == nil {
		t.Fatal("expected error when upstream fails and nothing is stored")
	}
}

func TestAssetLookup(t *testing.T) {
	svc := NewService(&mockSource{assets: sampleAssets()}, nil, time.Minute, 100)

	a, err := svc.Asset(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.PriceUSD != 2500 {
		t.Errorf("PriceUSD = %v, want 2500", a.PriceUSD)
	}

	_, err = svc.Asset(context.Background(), "dogecoin")
	if !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("err = %v, want ErrUnknownAsset", err)
	}
}
