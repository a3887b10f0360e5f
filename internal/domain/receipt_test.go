package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptAmountComesFromTotal(t *testing.T) {
	var receipts []Receipt
	err := json.Unmarshal([]byte(`[
		{"id":"r1","store":"Carrefour","total":"1 000 F CFA"},
		{"id":"r2","store":"Carrefour","total":"2 000 F CFA","amount":7}
	]`), &receipts)
	require.NoError(t, err)

	require.Len(t, receipts, 2)
	assert.Equal(t, int64(1000), receipts[0].Spent())
	assert.Equal(t, int64(2000), receipts[1].Spent())
	assert.Equal(t, "2 000 F CFA", receipts[1].Total)
}

func TestReceiptNumericTotal(t *testing.T) {
	var r Receipt
	require.NoError(t, json.Unmarshal([]byte(`{"total":2500.75,"amount":1}`), &r))

	assert.Equal(t, "2500.75", r.Total)
	assert.Equal(t, int64(2500), r.Spent())
}

func TestReceiptMissingTotal(t *testing.T) {
	var r Receipt
	require.NoError(t, json.Unmarshal([]byte(`{"store":"Auchan","amount":900}`), &r))

	assert.Empty(t, r.Total)
	assert.Zero(t, r.Spent())
}

func TestReceiptAmountIsNotEncoded(t *testing.T) {
	data, err := json.Marshal(Receipt{ID: "r1", Total: "500 F CFA", Amount: 500})
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"amount"`)
}
