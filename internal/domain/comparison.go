package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend is the coarse price movement of a comparison group
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// StorePrice is one store's entry in a comparison breakdown
type StorePrice struct {
	StoreID   string          `json:"storeId"`
	StoreName string          `json:"storeName"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PriceComparison summarises one product across every store selling it
type PriceComparison struct {
	Key           string          `json:"key"`
	Product       Product         `json:"product"`
	MinPrice      decimal.Decimal `json:"minPrice"`
	MaxPrice      decimal.Decimal `json:"maxPrice"`
	AveragePrice  decimal.Decimal `json:"averagePrice"`
	Spread        decimal.Decimal `json:"spread"`
	SpreadPercent float64         `json:"spreadPercent"`
	StoresCount   int             `json:"storesCount"`
	Trend         Trend           `json:"trend"`
	HasVariation  bool            `json:"hasVariation"`
	Stores        []StorePrice    `json:"stores"`
}
