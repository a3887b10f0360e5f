// Package comparison groups the same product across stores and computes comparative price statistics.
package comparison

import (
	"sort"

	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(100)
	upBound   = decimal.RequireFromString("1.05")
	downBound = decimal.RequireFromString("0.95")
)

type group struct {
	key      string
	products []domain.Product
}

// Compare builds one PriceComparison per product name.
// Output order follows the first occurrence of each name in products.
// Groups without a single positive price are left out.
func Compare(products []domain.Product) []domain.PriceComparison {
	groups := groupByName(products)

	comparisons := make([]domain.PriceComparison, 0, len(groups))
	for _, g := range groups {
		valid := validProducts(g.products)
		if len(valid) == 0 {
			continue
		}
		comparisons = append(comparisons, summarize(g.key, valid))
	}
	return comparisons
}

func groupByName(products []domain.Product) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, p := range products {
		key := p.GroupKey()
		g, ok := index[key]
		if !ok {
			g = &group{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.products = append(g.products, p)
	}
	return groups
}

func validProducts(products []domain.Product) []domain.Product {
	valid := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.HasValidPrice() {
			valid = append(valid, p)
		}
	}
	return valid
}

// summarize computes the statistics of a group holding at least one valid product
func summarize(key string, valid []domain.Product) domain.PriceComparison {
	minPrice := valid[0].Price.Amount
	maxPrice := valid[0].Price.Amount
	sum := decimal.Zero
	storeKeys := make(map[string]struct{}, len(valid))

	for _, p := range valid {
		amount := p.Price.Amount
		if amount.LessThan(minPrice) {
			minPrice = amount
		}
		if amount.GreaterThan(maxPrice) {
			maxPrice = amount
		}
		sum = sum.Add(amount)
		storeKeys[p.StoreKey()] = struct{}{}
	}

	average := sum.Div(decimal.NewFromInt(int64(len(valid))))
	// keep the mean inside [min, max] whatever the division rounding did
	if average.LessThan(minPrice) {
		average = minPrice
	}
	if average.GreaterThan(maxPrice) {
		average = maxPrice
	}

	spread := maxPrice.Sub(minPrice)
	spreadPercent := 0.0
	if len(valid) > 1 && minPrice.IsPositive() {
		spreadPercent = spread.Div(minPrice).Mul(hundred).InexactFloat64()
	}

	storesCount := len(storeKeys)
	return domain.PriceComparison{
		Key:           key,
		Product:       valid[0],
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		AveragePrice:  average,
		Spread:        spread,
		SpreadPercent: spreadPercent,
		StoresCount:   storesCount,
		Trend:         classifyTrend(valid),
		HasVariation:  storesCount > 1,
		Stores:        breakdown(valid),
	}
}

// classifyTrend compares the oldest and newest price of the group with a ±5% dead-band
func classifyTrend(valid []domain.Product) domain.Trend {
	if len(valid) < 2 {
		return domain.TrendStable
	}

	ordered := append([]domain.Product(nil), valid...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UpdatedAt.Before(ordered[j].UpdatedAt)
	})

	first := ordered[0].Price.Amount
	last := ordered[len(ordered)-1].Price.Amount
	switch {
	case last.GreaterThan(first.Mul(upBound)):
		return domain.TrendUp
	case last.LessThan(first.Mul(downBound)):
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// breakdown lists every valid offer, cheapest first
func breakdown(valid []domain.Product) []domain.StorePrice {
	prices := make([]domain.StorePrice, 0, len(valid))
	for _, p := range valid {
		prices = append(prices, domain.StorePrice{
			StoreID:   p.StoreID,
			StoreName: p.StoreName,
			Price:     p.Price.Amount,
			Currency:  p.Price.Currency,
			UpdatedAt: p.UpdatedAt,
		})
	}
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Price.LessThan(prices[j].Price)
	})
	return prices
}
