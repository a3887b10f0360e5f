package domain

import "time"

// StatsSource tells which resolution tier produced a DashboardStats value
type StatsSource string

const (
	SourceRemote StatsSource = "remote"
	SourceCache  StatsSource = "cache"
	SourceLocal  StatsSource = "local"
)

// EntityCounts splits an entity collection by status and favorite flag
type EntityCounts struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Archived  int64 `json:"archived"`
	Favorites int64 `json:"favorites"`
}

// ReceiptCounts splits receipts by lifecycle type and favorite flag
type ReceiptCounts struct {
	Scanned   int64 `json:"scanned"`
	Manual    int64 `json:"manual"`
	Archived  int64 `json:"archived"`
	Favorites int64 `json:"favorites"`
}

// MonthlySpend is the amount spent in one calendar month (YYYY-MM)
type MonthlySpend struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
}

// StoreSpend is a store ranked by spend
type StoreSpend struct {
	Name          string `json:"name"`
	ReceiptsCount int64  `json:"receiptsCount"`
	TotalSpent    int64  `json:"totalSpent"`
}

// DashboardStats represents summary data for the dashboard
type DashboardStats struct {
	TotalReceipts   int64          `json:"totalReceipts"`
	TotalSpent      int64          `json:"totalSpent"`
	ThisMonthSpent  int64          `json:"thisMonthSpent"`
	AverageReceipt  int64          `json:"averageReceipt"`
	Receipts        ReceiptCounts  `json:"receipts"`
	Products        EntityCounts   `json:"products"`
	Stores          EntityCounts   `json:"stores"`
	MonthlySpending []MonthlySpend `json:"monthlySpending"`
	TopStores       []StoreSpend   `json:"topStores"`
	Source          StatsSource    `json:"source"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}

// EmptyDashboardStats returns all-zero stats with non-nil slices
func EmptyDashboardStats(source StatsSource, at time.Time) DashboardStats {
	return DashboardStats{
		MonthlySpending: []MonthlySpend{},
		TopStores:       []StoreSpend{},
		Source:          source,
		GeneratedAt:     at,
	}
}
