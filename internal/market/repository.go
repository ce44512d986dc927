package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/coinconv/internal/domain"
)

var (
	// ErrNoAssets indicates that no asset list has been stored yet.
	ErrNoAssets = errors.New("no stored assets")
	// ErrUnknownAsset indicates an asset id that is not in the current list.
	ErrUnknownAsset = errors.New("unknown asset")
)

// Repository defines persistent storage for the last fetched asset list.
type Repository interface {
	SaveAssets(ctx context.Context, assets []domain.Asset) error
	LoadAssets(ctx context.Context, limit int) ([]domain.Asset, time.Time, error)
}

// PgAssetRepository implements Repository with PostgreSQL.
type PgAssetRepository struct {
	pool *pgxpool.Pool
}

// NewPgAssetRepository creates a new PostgreSQL asset repository.
func NewPgAssetRepository(pool *pgxpool.Pool) *PgAssetRepository {
	return &PgAssetRepository{pool: pool}
}

// SaveAssets replaces the stored list. Rank is the position in the source order.
func (r *PgAssetRepository) SaveAssets(ctx context.Context, assets []domain.Asset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting asset transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM market_assets`); err != nil {
		return fmt.Errorf("clearing market assets: %w", err)
	}

	batch := &pgx.Batch{}
	for i, a := range assets {
		batch.Queue(
			`INSERT INTO market_assets (rank, id, symbol, name, image, price_usd, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			i+1, a.ID, a.Symbol, a.Name, a.Image, decimal.NewFromFloat(a.PriceUSD))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving market assets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing market assets: %w", err)
	}
	return nil
}

// LoadAssets returns up to limit stored assets in rank order and the time they were saved.
func (r *PgAssetRepository) LoadAssets(ctx context.Context, limit int) ([]domain.Asset, time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, name, image, price_usd, updated_at
		 FROM market_assets ORDER BY rank LIMIT $1`, limit)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading market assets: %w", err)
	}
	defer rows.Close()

	var (
		assets    []domain.Asset
		updatedAt time.Time
	)
	for rows.Next() {
		var (
			a     domain.Asset
			price decimal.Decimal
		)
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Image, &price, &updatedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning market asset: %w", err)
		}
		a.PriceUSD = price.InexactFloat64()
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterating market assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, time.Time{}, ErrNoAssets
	}
	return assets, updatedAt, nil
}
