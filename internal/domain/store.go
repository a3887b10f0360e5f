package domain

import "time"

// StoreType is the retail category of a store
type StoreType string

const (
	StoreSupermarket StoreType = "supermarket"
	StoreMarket      StoreType = "market"
	StorePharmacy    StoreType = "pharmacy"
	StoreRestaurant  StoreType = "restaurant"
	StoreGasStation  StoreType = "gas_station"
	StoreElectronics StoreType = "electronics"
	StoreClothing    StoreType = "clothing"
	StoreOther       StoreType = "other"
)

// Store represents a shop the user buys from.
// ReceiptsCount, TotalSpent and LastVisit are derived and only meaningful after
// the activity aggregator has recomputed them.
type Store struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	Type          StoreType  `json:"type"`
	Status        Status     `json:"status"`
	Favorite      bool       `json:"favorite"`
	ReceiptsCount int        `json:"receiptsCount"`
	TotalSpent    int64      `json:"totalSpent"`
	LastVisit     *time.Time `json:"lastVisit,omitempty"`
}
