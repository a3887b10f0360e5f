package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestComparisonsXLSX(t *testing.T) {
	updated := time.Date(2024, time.June, 1, 8, 30, 0, 0, time.UTC)
	comparisons := []domain.PriceComparison{
		{
			Key:           "lait",
			Product:       domain.Product{Name: "Lait"},
			MinPrice:      decimal.NewFromInt(750),
			MaxPrice:      decimal.NewFromInt(900),
			AveragePrice:  decimal.NewFromInt(825),
			Spread:        decimal.NewFromInt(150),
			SpreadPercent: 20,
			StoresCount:   2,
			Trend:         domain.TrendDown,
			HasVariation:  true,
			Stores: []domain.StorePrice{
				{StoreID: "s2", StoreName: "Auchan", Price: decimal.NewFromInt(750), Currency: "XOF", UpdatedAt: updated},
				{StoreID: "s1", Price: decimal.NewFromInt(900), Currency: "XOF"},
			},
		},
	}

	data, err := NewService(nil).ComparisonsXLSX(context.Background(), comparisons)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ComparisonSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Product", rows[0][0])
	assert.Equal(t, []string{"Lait", "2", "750", "900", "825", "150", "20", "down", "yes"}, rows[1])

	offers, err := f.GetRows(StorePriceSheet)
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, []string{"Lait", "Auchan", "750", "XOF", "2024-06-01 08:30"}, offers[1])
	assert.Equal(t, "s1", offers[2][1], "store id is used when the name is missing")
}

func TestComparisonsXLSXEmpty(t *testing.T) {
	data, err := NewService(nil).ComparisonsXLSX(context.Background(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ComparisonSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestComparisonsXLSXCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil).ComparisonsXLSX(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
