package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/marketplace-scraper/internal/models"
	"github.com/maltedev/marketplace-scraper/internal/storage"
)

func testRun() *models.RunResult {
	return models.NewRunResult("zapatillas", []*models.Product{
		{
			Title:  "Zapatillas Nike",
			Price:  "S/ 120",
			URL:    "https://www.facebook.com/marketplace/item/123",
			Images: []models.ProductImage{{URL: "http://fbcdn/x.jpg"}},
		},
	}, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
}

func newTestServer(run *models.RunResult) *httptest.Server {
	h := NewHandlers(func() *models.RunResult { return run }, nil)
	return httptest.NewServer(NewRouter(h, nil))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(testRun())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["total_products"])
}

func TestListProducts(t *testing.T) {
	srv := newTestServer(testRun())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Metadata       map[string]interface{}            `json:"metadata"`
		HTMLCards      []string                          `json:"html_cards"`
		ProductDetails map[string]map[string]interface{} `json:"product_details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "zapatillas", body.Metadata["niche"])
	assert.Len(t, body.HTMLCards, 1)
	assert.Contains(t, body.ProductDetails, "123")
}

func TestGetProduct(t *testing.T) {
	srv := newTestServer(testRun())
	defer srv.Close()

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{name: "known product", id: "123", status: http.StatusOK},
		{name: "unknown product", id: "999", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/v1/products/" + tt.id)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.status == http.StatusOK {
				assert.Equal(t, "Zapatillas Nike", body["nombre"])
				assert.Equal(t, "http://fbcdn/x.jpg", body["screenshot"])
			} else {
				assert.Equal(t, "product not found", body["error"])
			}
		})
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace_products.json")

	source := FileSource(path, nil)
	assert.Empty(t, source().Products)

	require.NoError(t, storage.NewRunStore(path).Save(testRun()))
	assert.Len(t, source().Products, 1)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(testRun())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
