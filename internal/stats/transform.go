package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/currency"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// Transform maps a loosely typed stats payload onto DashboardStats.
// Numbers, numeric strings and formatted currency strings are accepted for every counter.
// Missing or unusable fields become zero and missing lists become empty.
// Only a payload that is not a JSON object is an error.
func Transform(raw []byte) (domain.DashboardStats, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("failed to decode dashboard stats: %w", err)
	}
	if payload == nil {
		return domain.DashboardStats{}, errors.New("dashboard stats payload is empty")
	}
	if data, ok := payload["data"].(map[string]any); ok {
		payload = data
	}

	stats := domain.EmptyDashboardStats("", time.Time{})
	stats.TotalReceipts = intField(payload, "totalReceipts")
	stats.TotalSpent = intField(payload, "totalSpent")
	stats.ThisMonthSpent = intField(payload, "thisMonthSpent", "monthlySpent")
	stats.AverageReceipt = intField(payload, "averageReceipt", "averageReceiptValue")

	receipts := objectField(payload, "receipts")
	stats.Receipts = domain.ReceiptCounts{
		Scanned:   intField(receipts, "scanned"),
		Manual:    intField(receipts, "manual"),
		Archived:  intField(receipts, "archived"),
		Favorites: intField(receipts, "favorites"),
	}
	stats.Products = entityCounts(objectField(payload, "products"))
	stats.Stores = entityCounts(objectField(payload, "stores"))

	for _, item := range listField(payload, "monthlySpending") {
		stats.MonthlySpending = append(stats.MonthlySpending, domain.MonthlySpend{
			Month:  stringField(item, "month"),
			Amount: intField(item, "amount"),
		})
	}
	for _, item := range listField(payload, "topStores") {
		stats.TopStores = append(stats.TopStores, domain.StoreSpend{
			Name:          stringField(item, "name"),
			ReceiptsCount: intField(item, "receiptsCount"),
			TotalSpent:    intField(item, "totalSpent"),
		})
	}
	return stats, nil
}

func entityCounts(m map[string]any) domain.EntityCounts {
	return domain.EntityCounts{
		Total:     intField(m, "total"),
		Active:    intField(m, "active"),
		Archived:  intField(m, "archived"),
		Favorites: intField(m, "favorites"),
	}
}

// intField returns the first present key coerced to int64
func intField(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return toInt64(v)
		}
	}
	return 0
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func objectField(m map[string]any, key string) map[string]any {
	if obj, ok := m[key].(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

// listField returns the object elements of an array field; other elements are skipped
func listField(m map[string]any, key string) []map[string]any {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func toInt64(v any) int64 {
	switch value := v.(type) {
	case json.Number:
		return decimalToInt64(value.String())
	case float64:
		return decimalToInt64(decimal.NewFromFloat(value).String())
	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return 0
		}
		if _, err := decimal.NewFromString(s); err == nil {
			return decimalToInt64(s)
		}
		return currency.ParseAmount(s)
	default:
		return 0
	}
}

func decimalToInt64(s string) int64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0
	}
	return d.IntPart()
}
