package comparison

import (
	"testing"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []domain.PriceComparison {
	return []domain.PriceComparison{
		{Key: "riz", AveragePrice: decimal.NewFromInt(500), SpreadPercent: 10, StoresCount: 2, HasVariation: true},
		{Key: "huile", AveragePrice: decimal.NewFromInt(1200), SpreadPercent: 0, StoresCount: 1},
		{Key: "lait", AveragePrice: decimal.NewFromInt(825), SpreadPercent: 20, StoresCount: 2, HasVariation: true},
		{Key: "bière", AveragePrice: decimal.NewFromInt(500), SpreadPercent: 10, StoresCount: 3, HasVariation: true},
	}
}

func keys(list []domain.PriceComparison) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Key)
	}
	return out
}

func TestFilterComparisons(t *testing.T) {
	list := sample()

	assert.Equal(t, []string{"riz", "huile", "lait", "bière"}, keys(FilterComparisons(list, FilterAll)))
	assert.Equal(t, []string{"riz", "lait", "bière"}, keys(FilterComparisons(list, FilterVariation)))
	assert.Equal(t, []string{"huile"}, keys(FilterComparisons(list, FilterNoVariation)))
	assert.Len(t, list, 4, "input must not be modified")
}

func TestSort(t *testing.T) {
	tests := []struct {
		key    SortKey
		expect []string
	}{
		{SortName, []string{"bière", "huile", "lait", "riz"}},
		{SortAveragePrice, []string{"huile", "lait", "bière", "riz"}},
		{SortSpreadPercent, []string{"lait", "bière", "riz", "huile"}},
		{SortStoresCount, []string{"bière", "lait", "riz", "huile"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			list := sample()
			sorted := Sort(list, tt.key)
			assert.Equal(t, tt.expect, keys(sorted))
			assert.Equal(t, "riz", list[0].Key, "input order must be preserved")
		})
	}
}

func TestSortIsDeterministic(t *testing.T) {
	list := sample()
	reversed := make([]domain.PriceComparison, len(list))
	for i := range list {
		reversed[len(list)-1-i] = list[i]
	}

	for _, key := range []SortKey{SortName, SortAveragePrice, SortSpreadPercent, SortStoresCount} {
		assert.Equal(t, keys(Sort(list, key)), keys(Sort(reversed, key)), "sort by %s", key)
	}
}

func TestSortEmpty(t *testing.T) {
	sorted := Sort(nil, SortName)
	assert.NotNil(t, sorted)
	assert.Empty(t, sorted)
}

func TestApply(t *testing.T) {
	out := Apply(sample(), FilterVariation, SortAveragePrice)
	assert.Equal(t, []string{"lait", "bière", "riz"}, keys(out))
}

func TestParseFilter(t *testing.T) {
	for in, expect := range map[string]Filter{
		"":             FilterAll,
		"all":          FilterAll,
		"variation":    FilterVariation,
		"hasVariation": FilterVariation,
		"no_variation": FilterNoVariation,
		"noVariation":  FilterNoVariation,
	} {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, expect, got, in)
	}

	_, err := ParseFilter("cheap")
	assert.Error(t, err)
}

func TestParseSort(t *testing.T) {
	for in, expect := range map[string]SortKey{
		"":               SortName,
		"name":           SortName,
		"average_price":  SortAveragePrice,
		"averagePrice":   SortAveragePrice,
		"spread_percent": SortSpreadPercent,
		"variation":      SortSpreadPercent,
		"stores_count":   SortStoresCount,
		"stores":         SortStoresCount,
	} {
		got, err := ParseSort(in)
		require.NoError(t, err, in)
		assert.Equal(t, expect, got, in)
	}

	_, err := ParseSort("price")
	assert.Error(t, err)
}
