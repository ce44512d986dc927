package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/mtlprog/coinconv/internal/domain"
)

// RatesSheet is the sheet every writer fills.
const RatesSheet = "RATES"

// ErrEmpty is returned when there are no assets to export.
var ErrEmpty = errors.New("nothing to export: empty asset list")

// SheetWriter writes a rate table (header row first) to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, table [][]any) error
}

// Service builds the rate table for an asset list and delegates writing to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	return &Service{writer: writer}
}

// Export writes one row per asset with its price in USD and every static fiat currency.
// Implements worker.AfterRefreshHook.
func (s *Service) Export(ctx context.Context, assets []domain.Asset) error {
	if len(assets) == 0 {
		return ErrEmpty
	}
	if err := s.writer.Write(ctx, BuildRateTable(assets, domain.FiatCurrencies())); err != nil {
		return fmt.Errorf("writing rate table: %w", err)
	}
	return nil
}

// BuildRateTable lays out the sheet.
// Columns: Rank | ID | Symbol | Name | <one price column per fiat, USD first>
func BuildRateTable(assets []domain.Asset, fiats []domain.FiatCurrency) [][]any {
	header := []any{"Rank", "ID", "Symbol", "Name"}
	header = append(header, lo.Map(fiats, func(c domain.FiatCurrency, _ int) any {
		return "Price " + c.Code
	})...)

	table := make([][]any, 0, len(assets)+1)
	table = append(table, header)

	for i, a := range assets {
		row := []any{i + 1, a.ID, a.Ticker(), a.Name}
		for _, c := range fiats {
			row = append(row, a.PriceUSD*c.RateToUSD)
		}
		table = append(table, row)
	}

	return table
}
