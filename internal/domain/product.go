package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/currency"
	"github.com/shopspring/decimal"
)

// Status is the active/archived flag shared by products and stores
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Money is an amount in a given currency
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// UnmarshalJSON accepts {"amount":..,"currency":..}, a bare number, a numeric string or a
// formatted string such as "750 F CFA". An amount that cannot be parsed decodes as zero,
// which makes the product invalid for comparison.
func (m *Money) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw struct {
			Amount   json.RawMessage `json:"amount"`
			Currency string          `json:"currency"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*m = Money{Amount: lenientDecimal(raw.Amount), Currency: raw.Currency}
		return nil
	}

	*m = Money{Amount: lenientDecimal(trimmed)}
	return nil
}

func lenientDecimal(raw []byte) decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err == nil {
		return d
	}

	// formatted prices carry whole currency units, like receipt totals
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(currency.ParseAmount(text))
}

// Product represents an item as sold at one store
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CategoryID string    `json:"categoryId,omitempty"`
	StoreID    string    `json:"storeId"`
	StoreName  string    `json:"storeName,omitempty"`
	Price      Money     `json:"price"`
	Status     Status    `json:"status"`
	Favorite   bool      `json:"favorite"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NormalizeName returns the key used to decide whether two free-text names are the same
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GroupKey is the comparison grouping key of the product
func (p Product) GroupKey() string {
	return NormalizeName(p.Name)
}

// StoreKey identifies the store the product is sold at, falling back to the store name
func (p Product) StoreKey() string {
	if id := strings.TrimSpace(p.StoreID); id != "" {
		return "id:" + id
	}
	return "name:" + NormalizeName(p.StoreName)
}

// HasValidPrice reports whether the product can take part in a comparison
func (p Product) HasValidPrice() bool {
	return p.Price.Amount.IsPositive()
}
