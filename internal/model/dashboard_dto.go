package model

import (
	"math"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/currency"
	"github.com/ridwanfathin/price-dashboard-service/internal/domain"
	"github.com/ridwanfathin/price-dashboard-service/internal/recordstore"
)

// ProductSummary represents the representative product of a comparison group
type ProductSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId,omitempty"`
	StoreID    string `json:"storeId"`
	StoreName  string `json:"storeName,omitempty"`
}

// StorePriceResponse represents one store's offer within a comparison
type StorePriceResponse struct {
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ComparisonResponse represents a single product compared across stores
type ComparisonResponse struct {
	Key           string               `json:"key"`
	Product       ProductSummary       `json:"product"`
	Currency      string               `json:"currency"`
	MinPrice      string               `json:"minPrice"`
	MaxPrice      string               `json:"maxPrice"`
	AveragePrice  string               `json:"averagePrice"`
	Spread        string               `json:"spread"`
	SpreadPercent float64              `json:"spreadPercent"`
	StoresCount   int                  `json:"storesCount"`
	Trend         string               `json:"trend"`
	HasVariation  bool                 `json:"hasVariation"`
	Stores        []StorePriceResponse `json:"stores"`
}

// ComparisonListResponse represents a filtered and sorted list of comparisons
type ComparisonListResponse struct {
	Data   []ComparisonResponse `json:"data"`
	Total  int                  `json:"total"`
	Filter string               `json:"filter"`
	Sort   string               `json:"sort"`
}

// FromDomain converts a domain PriceComparison to a ComparisonResponse
func (dto *ComparisonResponse) FromDomain(c domain.PriceComparison) {
	dto.Key = c.Key
	dto.Product = ProductSummary{
		ID:         c.Product.ID,
		Name:       c.Product.Name,
		CategoryID: c.Product.CategoryID,
		StoreID:    c.Product.StoreID,
		StoreName:  c.Product.StoreName,
	}
	dto.Currency = c.Product.Price.Currency
	dto.MinPrice = c.MinPrice.String()
	dto.MaxPrice = c.MaxPrice.String()
	dto.AveragePrice = c.AveragePrice.Round(2).String()
	dto.Spread = c.Spread.String()
	dto.SpreadPercent = math.Round(c.SpreadPercent*100) / 100
	dto.StoresCount = c.StoresCount
	dto.Trend = string(c.Trend)
	dto.HasVariation = c.HasVariation

	dto.Stores = make([]StorePriceResponse, len(c.Stores))
	for i, p := range c.Stores {
		dto.Stores[i] = StorePriceResponse{
			StoreID:   p.StoreID,
			StoreName: p.StoreName,
			Price:     p.Price.String(),
			Currency:  p.Currency,
			UpdatedAt: formatTime(p.UpdatedAt),
		}
	}
}

// NewComparisonListResponse converts a comparison list
func NewComparisonListResponse(comparisons []domain.PriceComparison, filter, sort string) ComparisonListResponse {
	resp := ComparisonListResponse{
		Data:   make([]ComparisonResponse, len(comparisons)),
		Total:  len(comparisons),
		Filter: filter,
		Sort:   sort,
	}
	for i, c := range comparisons {
		resp.Data[i].FromDomain(c)
	}
	return resp
}

// FormattedTotals holds the money fields of the dashboard as receipts print them
type FormattedTotals struct {
	TotalSpent     string `json:"totalSpent"`
	ThisMonthSpent string `json:"thisMonthSpent"`
	AverageReceipt string `json:"averageReceipt"`
}

// DashboardStatsResponse represents dashboard summary statistics
type DashboardStatsResponse struct {
	TotalReceipts   int64                 `json:"totalReceipts"`
	TotalSpent      int64                 `json:"totalSpent"`
	ThisMonthSpent  int64                 `json:"thisMonthSpent"`
	AverageReceipt  int64                 `json:"averageReceipt"`
	Formatted       FormattedTotals       `json:"formatted"`
	Receipts        domain.ReceiptCounts  `json:"receipts"`
	Products        domain.EntityCounts   `json:"products"`
	Stores          domain.EntityCounts   `json:"stores"`
	MonthlySpending []domain.MonthlySpend `json:"monthlySpending"`
	TopStores       []domain.StoreSpend   `json:"topStores"`
	Source          string                `json:"source"`
	GeneratedAt     string                `json:"generatedAt,omitempty"`
}

// FromDomain converts domain DashboardStats, formatting money with the currency suffix
func (dto *DashboardStatsResponse) FromDomain(stats domain.DashboardStats, suffix string) {
	dto.TotalReceipts = stats.TotalReceipts
	dto.TotalSpent = stats.TotalSpent
	dto.ThisMonthSpent = stats.ThisMonthSpent
	dto.AverageReceipt = stats.AverageReceipt
	dto.Formatted = FormattedTotals{
		TotalSpent:     currency.FormatAmount(stats.TotalSpent, suffix),
		ThisMonthSpent: currency.FormatAmount(stats.ThisMonthSpent, suffix),
		AverageReceipt: currency.FormatAmount(stats.AverageReceipt, suffix),
	}
	dto.Receipts = stats.Receipts
	dto.Products = stats.Products
	dto.Stores = stats.Stores
	dto.MonthlySpending = stats.MonthlySpending
	if dto.MonthlySpending == nil {
		dto.MonthlySpending = []domain.MonthlySpend{}
	}
	dto.TopStores = stats.TopStores
	if dto.TopStores == nil {
		dto.TopStores = []domain.StoreSpend{}
	}
	dto.Source = string(stats.Source)
	dto.GeneratedAt = formatTime(stats.GeneratedAt)
}

// StoreActivityResponse represents a store with its recomputed counters
type StoreActivityResponse struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Address             string  `json:"address"`
	City                string  `json:"city,omitempty"`
	Type                string  `json:"type,omitempty"`
	Status              string  `json:"status,omitempty"`
	Favorite            bool    `json:"favorite"`
	ReceiptsCount       int     `json:"receiptsCount"`
	TotalSpent          int64   `json:"totalSpent"`
	TotalSpentFormatted string  `json:"totalSpentFormatted"`
	LastVisit           *string `json:"lastVisit"`
}

// StoreActivityListResponse represents every store with its activity
type StoreActivityListResponse struct {
	Data  []StoreActivityResponse `json:"data"`
	Total int                     `json:"total"`
}

// FromDomain converts a domain Store
func (dto *StoreActivityResponse) FromDomain(store domain.Store, suffix string) {
	dto.ID = store.ID
	dto.Name = store.Name
	dto.Address = store.Address
	dto.City = store.City
	dto.Type = string(store.Type)
	dto.Status = string(store.Status)
	dto.Favorite = store.Favorite
	dto.ReceiptsCount = store.ReceiptsCount
	dto.TotalSpent = store.TotalSpent
	dto.TotalSpentFormatted = currency.FormatAmount(store.TotalSpent, suffix)
	dto.LastVisit = nil
	if store.LastVisit != nil {
		visit := formatTime(*store.LastVisit)
		dto.LastVisit = &visit
	}
}

// NewStoreActivityListResponse converts a store list
func NewStoreActivityListResponse(stores []domain.Store, suffix string) StoreActivityListResponse {
	resp := StoreActivityListResponse{
		Data:  make([]StoreActivityResponse, len(stores)),
		Total: len(stores),
	}
	for i, s := range stores {
		resp.Data[i].FromDomain(s, suffix)
	}
	return resp
}

// SnapshotResponse describes one in-memory snapshot
type SnapshotResponse struct {
	Kind      string  `json:"kind"`
	Count     int     `json:"count"`
	Origin    string  `json:"origin"`
	FetchedAt *string `json:"fetchedAt"`
}

// SnapshotListResponse represents every snapshot
type SnapshotListResponse struct {
	Data []SnapshotResponse `json:"data"`
}

// FromInfo converts snapshot info
func (dto *SnapshotResponse) FromInfo(info recordstore.Info) {
	dto.Kind = string(info.Kind)
	dto.Count = info.Count
	dto.Origin = string(info.Origin)
	dto.FetchedAt = nil
	if info.FetchedAt != nil {
		fetched := formatTime(*info.FetchedAt)
		dto.FetchedAt = &fetched
	}
}

// NewSnapshotListResponse converts a list of snapshot info
func NewSnapshotListResponse(infos []recordstore.Info) SnapshotListResponse {
	resp := SnapshotListResponse{Data: make([]SnapshotResponse, len(infos))}
	for i, info := range infos {
		resp.Data[i].FromInfo(info)
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
