package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComparison represents a comparison in the API
type TestComparison struct {
	Key           string  `json:"key"`
	MinPrice      string  `json:"minPrice"`
	MaxPrice      string  `json:"maxPrice"`
	AveragePrice  string  `json:"averagePrice"`
	SpreadPercent float64 `json:"spreadPercent"`
	StoresCount   int     `json:"storesCount"`
	Trend         string  `json:"trend"`
	HasVariation  bool    `json:"hasVariation"`
}

// TestComparisonListResponse represents the response from GET /comparisons
type TestComparisonListResponse struct {
	Data   []TestComparison `json:"data"`
	Total  int              `json:"total"`
	Filter string           `json:"filter"`
	Sort   string           `json:"sort"`
}

// TestSnapshot represents one snapshot entry
type TestSnapshot struct {
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
	Origin string `json:"origin"`
}

// TestDashboardAPI runs against a live server. Set API_BASE_URL to point it elsewhere.
func TestDashboardAPI(t *testing.T) {
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/v1"
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	healthURL := strings.TrimSuffix(baseURL, "/v1") + "/health"
	resp, err := client.Get(healthURL)
	if err != nil {
		t.Skipf("Skipping integration tests, server not reachable at %s: %v", healthURL, err)
	}
	resp.Body.Close()

	t.Run("ListSnapshots", func(t *testing.T) {
		var body struct {
			Data []TestSnapshot `json:"data"`
		}
		getJSON(t, client, baseURL+"/snapshots", http.StatusOK, &body)

		require.Len(t, body.Data, 3, "Expected one snapshot per entity kind")
		kinds := []string{body.Data[0].Kind, body.Data[1].Kind, body.Data[2].Kind}
		assert.ElementsMatch(t, []string{"products", "stores", "receipts"}, kinds)
	})

	t.Run("RefreshSnapshots", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/snapshots/refresh", nil)
		require.NoError(t, err, "Failed to create request")

		resp, err := client.Do(req)
		require.NoError(t, err, "Failed to execute request")
		defer resp.Body.Close()

		// 502 is expected when the backend is down; previous data stays published
		assert.Contains(t, []int{http.StatusOK, http.StatusBadGateway}, resp.StatusCode)
	})

	t.Run("RefreshUnknownSnapshot", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/snapshots/invoices/refresh", nil)
		require.NoError(t, err, "Failed to create request")

		resp, err := client.Do(req)
		require.NoError(t, err, "Failed to execute request")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("ListComparisons", func(t *testing.T) {
		var body TestComparisonListResponse
		getJSON(t, client, baseURL+"/comparisons?filter=all&sort=spread_percent", http.StatusOK, &body)

		assert.Equal(t, "all", body.Filter)
		assert.Equal(t, "spread_percent", body.Sort)
		assert.Equal(t, len(body.Data), body.Total)
		for i := 1; i < len(body.Data); i++ {
			assert.GreaterOrEqual(t, body.Data[i-1].SpreadPercent, body.Data[i].SpreadPercent, "Comparisons should be sorted by spread")
		}
		for _, c := range body.Data {
			assert.Equal(t, c.StoresCount > 1, c.HasVariation, "hasVariation must follow the store count for %s", c.Key)
			assert.Contains(t, []string{"up", "down", "stable"}, c.Trend)
		}
	})

	t.Run("ListComparisonsWithVariation", func(t *testing.T) {
		var body TestComparisonListResponse
		getJSON(t, client, baseURL+"/comparisons?filter=variation", http.StatusOK, &body)

		for _, c := range body.Data {
			assert.True(t, c.HasVariation, "Only comparisons with variation expected, got %s", c.Key)
		}
	})

	t.Run("ListComparisonsInvalidFilter", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/comparisons?filter=cheapest")
		require.NoError(t, err, "Failed to execute request")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ExportComparisons", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/comparisons/export")
		require.NoError(t, err, "Failed to execute request")
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "Failed to read workbook")
		assert.True(t, bytes.HasPrefix(data, []byte("PK")), "Workbook should be a zip archive")
	})

	t.Run("GetDashboardStats", func(t *testing.T) {
		var body map[string]interface{}
		getJSON(t, client, baseURL+"/dashboard/stats", http.StatusOK, &body)

		assert.Contains(t, []interface{}{"remote", "cache", "local"}, body["source"])
		for _, field := range []string{"totalReceipts", "totalSpent", "thisMonthSpent", "averageReceipt", "monthlySpending", "topStores"} {
			assert.Contains(t, body, field, "Missing field %s", field)
		}
	})

	t.Run("GetStoreActivity", func(t *testing.T) {
		var body struct {
			Data []struct {
				Name          string `json:"name"`
				ReceiptsCount int    `json:"receiptsCount"`
				TotalSpent    int64  `json:"totalSpent"`
			} `json:"data"`
			Total int `json:"total"`
		}
		getJSON(t, client, baseURL+"/stores/activity", http.StatusOK, &body)

		assert.Equal(t, len(body.Data), body.Total)
		for _, s := range body.Data {
			assert.GreaterOrEqual(t, s.ReceiptsCount, 0)
			if s.ReceiptsCount == 0 {
				assert.Zero(t, s.TotalSpent, "Store %s has spend without receipts", s.Name)
			}
		}
	})
}

func getJSON(t *testing.T, client *http.Client, url string, wantStatus int, out interface{}) {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err, "Failed to execute request")
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")
	require.Equal(t, wantStatus, resp.StatusCode, fmt.Sprintf("Response body: %s", string(bodyBytes)))
	require.NoError(t, json.Unmarshal(bodyBytes, out), "Failed to decode response body")
}
