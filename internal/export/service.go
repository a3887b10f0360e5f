package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	ComparisonSheet = "Comparisons"
	StorePriceSheet = "Store Prices"
)

var (
	comparisonHeaders = []string{
		"Product",
		"Stores",
		"Min Price",
		"Max Price",
		"Average Price",
		"Spread",
		"Spread %",
		"Trend",
		"Variation",
	}
	storePriceHeaders = []string{
		"Product",
		"Store",
		"Price",
		"Currency",
		"Updated At",
	}
)

// Service renders comparison lists as XLSX workbooks
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ComparisonsXLSX returns a workbook with one summary row per comparison and
// one row per store offer on a second sheet. Row order follows comparisons.
func (s *Service) ComparisonsXLSX(ctx context.Context, comparisons []domain.PriceComparison) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ComparisonSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(StorePriceSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	writeRow(f, ComparisonSheet, 1, toCells(comparisonHeaders))
	writeRow(f, StorePriceSheet, 1, toCells(storePriceHeaders))

	row, priceRow := 2, 2
	for _, c := range comparisons {
		writeRow(f, ComparisonSheet, row, []any{
			c.Product.Name,
			c.StoresCount,
			c.MinPrice.InexactFloat64(),
			c.MaxPrice.InexactFloat64(),
			c.AveragePrice.Round(2).InexactFloat64(),
			c.Spread.InexactFloat64(),
			roundPercent(c.SpreadPercent),
			string(c.Trend),
			yesNo(c.HasVariation),
		})
		row++

		for _, p := range c.Stores {
			updated := ""
			if !p.UpdatedAt.IsZero() {
				updated = p.UpdatedAt.Format("2006-01-02 15:04")
			}
			writeRow(f, StorePriceSheet, priceRow, []any{
				c.Product.Name,
				storeLabel(p),
				p.Price.InexactFloat64(),
				p.Currency,
				updated,
			})
			priceRow++
		}
	}

	_ = f.SetColWidth(ComparisonSheet, "A", "A", 32)
	_ = f.SetColWidth(ComparisonSheet, "B", "G", 14)
	_ = f.SetColWidth(StorePriceSheet, "A", "B", 28)
	_ = f.SetColWidth(StorePriceSheet, "C", "E", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("comparison export written",
		"comparisons", len(comparisons),
		"offers", priceRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toCells(headers []string) []any {
	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}

func storeLabel(p domain.StorePrice) string {
	if p.StoreName != "" {
		return p.StoreName
	}
	return p.StoreID
}

func roundPercent(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
