package domain

import "fmt"

// EntityKind names one of the collections held by the record store
type EntityKind string

const (
	KindProducts EntityKind = "products"
	KindStores   EntityKind = "stores"
	KindReceipts EntityKind = "receipts"
)

// AllKinds lists every entity kind in refresh order
var AllKinds = []EntityKind{KindProducts, KindStores, KindReceipts}

// ParseEntityKind validates a kind coming from user input
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case KindProducts, KindStores, KindReceipts:
		return EntityKind(s), nil
	default:
		return "", fmt.Errorf("unknown entity kind: %q", s)
	}
}
