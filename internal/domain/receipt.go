package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ridwanfathin/price-dashboard-service/internal/currency"
	"github.com/shopspring/decimal"
)

// ReceiptType is the lifecycle state of a receipt
type ReceiptType string

const (
	ReceiptScanned  ReceiptType = "scanned"
	ReceiptManual   ReceiptType = "manual"
	ReceiptArchived ReceiptType = "archived"
)

// ReceiptItem represents a line on a receipt
type ReceiptItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Receipt represents a scanned or manually entered receipt.
// Store and Address are free text copied from the ticket, not a reference to a Store record.
// Amount is derived from Total when decoding; a wire "amount" field is ignored.
type Receipt struct {
	ID       string        `json:"id"`
	Store    string        `json:"store"`
	Address  string        `json:"address"`
	Date     string        `json:"date"`
	Time     string        `json:"time"`
	Items    []ReceiptItem `json:"items"`
	Total    string        `json:"total"`
	Amount   int64         `json:"-"`
	Type     ReceiptType   `json:"type"`
	Favorite bool          `json:"favorite"`
}

// UnmarshalJSON accepts a total sent either as a formatted string or as a bare number,
// and derives Amount from it
func (r *Receipt) UnmarshalJSON(data []byte) error {
	type alias Receipt
	aux := struct {
		*alias
		Total json.RawMessage `json:"total"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Total, r.Amount = "", 0
	if len(aux.Total) > 0 && string(aux.Total) != "null" {
		var text string
		if err := json.Unmarshal(aux.Total, &text); err == nil {
			r.Total = text
			r.Amount = currency.ParseAmount(text)
		} else if d, err := decimal.NewFromString(string(aux.Total)); err == nil {
			// a bare number is already an amount; digit stripping would misread decimals
			r.Total = d.String()
			r.Amount = d.IntPart()
		}
	}
	return nil
}

var receiptDateLayouts = []struct {
	layout   string
	hasClock bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02", false},
	{"02/01/2006", false},
	{"2/1/2006", false},
}

var receiptTimeLayouts = []string{
	"15:04:05",
	"15:04",
}

// Spent returns the receipt amount in whole currency units.
// Receipts normalised at ingestion carry Amount; older payloads only have the formatted Total.
func (r Receipt) Spent() int64 {
	if r.Amount != 0 {
		return r.Amount
	}
	return currency.ParseAmount(r.Total)
}

// Timestamp parses Date (and Time when present) in loc.
// The second return value is false when the date cannot be parsed.
func (r Receipt) Timestamp(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(r.Date)
	if date == "" {
		return time.Time{}, false
	}

	var day time.Time
	parsed, hasClock := false, false
	for _, candidate := range receiptDateLayouts {
		t, err := time.ParseInLocation(candidate.layout, date, loc)
		if err == nil {
			day, parsed, hasClock = t, true, candidate.hasClock
			break
		}
	}
	if !parsed {
		return time.Time{}, false
	}

	clock := strings.TrimSpace(r.Time)
	if clock == "" || hasClock {
		return day, true
	}
	for _, layout := range receiptTimeLayouts {
		t, err := time.Parse(layout, clock)
		if err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), true
		}
	}
	return day, true
}

// NormalizeReceipts fills Amount from the formatted Total for every receipt that lacks it
func NormalizeReceipts(receipts []Receipt) {
	for i := range receipts {
		if receipts[i].Amount == 0 {
			receipts[i].Amount = currency.ParseAmount(receipts[i].Total)
		}
	}
}
