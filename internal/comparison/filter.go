package comparison

import (
	"fmt"
	"sort"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
)

// Filter selects comparisons by whether more than one store sells the product
type Filter string

const (
	FilterAll         Filter = "all"
	FilterVariation   Filter = "variation"
	FilterNoVariation Filter = "no_variation"
)

// SortKey orders a comparison list
type SortKey string

const (
	SortName          SortKey = "name"
	SortAveragePrice  SortKey = "average_price"
	SortSpreadPercent SortKey = "spread_percent"
	SortStoresCount   SortKey = "stores_count"
)

// ParseFilter maps a query value to a Filter. Empty selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(FilterVariation), "hasVariation", "has_variation":
		return FilterVariation, nil
	case string(FilterNoVariation), "noVariation":
		return FilterNoVariation, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// ParseSort maps a query value to a SortKey. Empty selects SortName.
func ParseSort(s string) (SortKey, error) {
	switch s {
	case "", string(SortName):
		return SortName, nil
	case string(SortAveragePrice), "averagePrice":
		return SortAveragePrice, nil
	case string(SortSpreadPercent), "spreadPercent", "variation":
		return SortSpreadPercent, nil
	case string(SortStoresCount), "storesCount", "stores":
		return SortStoresCount, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Apply filters then sorts a copy of comparisons
func Apply(comparisons []domain.PriceComparison, filter Filter, key SortKey) []domain.PriceComparison {
	return Sort(FilterComparisons(comparisons, filter), key)
}

// FilterComparisons returns the comparisons matching filter; the input is not modified
func FilterComparisons(comparisons []domain.PriceComparison, filter Filter) []domain.PriceComparison {
	out := make([]domain.PriceComparison, 0, len(comparisons))
	for _, c := range comparisons {
		switch filter {
		case FilterVariation:
			if !c.HasVariation {
				continue
			}
		case FilterNoVariation:
			if c.HasVariation {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// Sort returns a sorted copy. Name sorts ascending; the numeric keys sort descending.
// Ties fall back to the group key, so equal inputs always give the same order.
func Sort(comparisons []domain.PriceComparison, key SortKey) []domain.PriceComparison {
	out := append([]domain.PriceComparison(nil), comparisons...)
	if out == nil {
		out = []domain.PriceComparison{}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch key {
		case SortAveragePrice:
			if cmp := a.AveragePrice.Cmp(b.AveragePrice); cmp != 0 {
				return cmp > 0
			}
		case SortSpreadPercent:
			if a.SpreadPercent != b.SpreadPercent {
				return a.SpreadPercent > b.SpreadPercent
			}
		case SortStoresCount:
			if a.StoresCount != b.StoresCount {
				return a.StoresCount > b.StoresCount
			}
		}
		return a.Key < b.Key
	})
	return out
}
