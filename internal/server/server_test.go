package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openlistings/mortgage-engine/internal/cache"
	"github.com/openlistings/mortgage-engine/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingCache wraps the memory cache to observe hits and writes.
type countingCache struct {
	inner *cache.Memory
	hits  int
	sets  int
}

func (c *countingCache) Get(ctx context.Context, key string) (string, bool) {
	value, ok := c.inner.Get(ctx, key)
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *countingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.sets++
	return c.inner.Set(ctx, key, value, ttl)
}

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	return NewHandler(zap.NewNop(), opts)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlePayment(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rec := postJSON(t, handler, "/api/payment",
		`{"principal": 120000, "annualRatePercent": 0, "termYears": 25, "paymentFrequency": "monthly"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Payment   float64 `json:"payment"`
		Frequency string  `json:"paymentFrequency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 400, resp.Payment, 0.001)
	assert.Equal(t, "monthly", resp.Frequency)
}

func TestHandlePaymentInvalidInput(t *testing.T) {
	handler := newTestHandler(t, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"Negative principal", `{"principal": -1, "annualRatePercent": 4, "termYears": 25}`},
		{"Zero term", `{"principal": 100000, "annualRatePercent": 4, "termYears": 0}`},
		{"Unknown frequency", `{"principal": 100000, "annualRatePercent": 4, "termYears": 25, "paymentFrequency": "fortnightly"}`},
		{"Malformed JSON", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, "/api/payment", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestHandleInsurance(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rec := postJSON(t, handler, "/api/insurance", `{"downPaymentPercent": 10, "loanAmount": 585000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Premium float64 `json:"premium"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 585000*0.031, resp.Premium, 0.001)
}

func TestHandleLandTransferTax(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rec := postJSON(t, handler, "/api/land-transfer-tax",
		`{"purchasePrice": 500000, "firstTimeBuyer": true, "location": "Toronto, ON"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Provincial float64 `json:"provincial"`
		Municipal  float64 `json:"municipal"`
		Rebate     float64 `json:"rebate"`
		NetPayable float64 `json:"netPayable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 6475, resp.Provincial, 0.001)
	assert.InDelta(t, 6475, resp.Municipal, 0.001)
	assert.InDelta(t, resp.Provincial+resp.Municipal-resp.Rebate, resp.NetPayable, 0.001)
}

func TestHandleAffordabilityCaches(t *testing.T) {
	counting := &countingCache{inner: cache.NewMemory()}
	handler := newTestHandler(t, Options{Cache: counting})

	body := `{"annualIncome": 120000, "monthlyDebts": 500, "downPaymentPercent": 10,
		"interestRate": 5, "loanTermYears": 30, "propertyTaxRate": 1.0,
		"insuranceRate": 3.5, "pmiRate": 0.5, "dtiFrontEndPercent": 28, "dtiBackEndPercent": 36}`

	first := postJSON(t, handler, "/api/affordability", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, counting.sets)
	assert.Equal(t, 0, counting.hits)

	var resp struct {
		MaxHomePrice float64 `json:"maxHomePrice"`
		FrontEndDTI  float64 `json:"frontEndDTI"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.Greater(t, resp.MaxHomePrice, 0.0)
	assert.LessOrEqual(t, resp.FrontEndDTI, 28.01)

	second := postJSON(t, handler, "/api/affordability", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, counting.hits)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestHandleAffordabilityInvalid(t *testing.T) {
	handler := newTestHandler(t, Options{})
	rec := postJSON(t, handler, "/api/affordability", `{"annualIncome": -5, "loanTermYears": 30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAmortization(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rec := postJSON(t, handler, "/api/amortization",
		`{"principal": 350000, "annualRatePercent": 4.5, "termYears": 25, "paymentFrequency": "monthly"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows []struct {
			Period  int     `json:"period"`
			Balance float64 `json:"balance"`
		} `json:"rows"`
		Summary struct {
			Periods        int     `json:"periods"`
			TotalPrincipal float64 `json:"totalPrincipal"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 300)
	assert.Equal(t, 300, resp.Summary.Periods)
	assert.InDelta(t, 350000, resp.Summary.TotalPrincipal, 1.0)
	assert.Equal(t, 0.0, resp.Rows[len(resp.Rows)-1].Balance)
}

func TestHandleAmortizationPDF(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rec := postJSON(t, handler, "/api/amortization/pdf",
		`{"principal": 350000, "annualRatePercent": 4.5, "termYears": 25, "paymentFrequency": "monthly"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestHandleScenarioUpload(t *testing.T) {
	handler := newTestHandler(t, Options{})

	configYAML := `
scenarios:
  - name: upload-test
    purchase:
      price: 500000
      downPaymentPercent: 20
      interestRate: 4.5
      termYears: 25
      paymentFrequency: monthly
      location: "Ottawa, ON"
`

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "config.yaml")
	require.NoError(t, err)
	_, err = part.Write([]byte(configYAML))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scenario", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reports []struct {
			Scenario string `json:"scenario"`
			Purchase *struct {
				LoanAmount float64 `json:"loanAmount"`
			} `json:"purchase"`
		} `json:"reports"`
		CSV string `json:"csv"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, 1)
	assert.Equal(t, "upload-test", resp.Reports[0].Scenario)
	require.NotNil(t, resp.Reports[0].Purchase)
	assert.InDelta(t, 400000, resp.Reports[0].Purchase.LoanAmount, 0.001)
	assert.Contains(t, resp.CSV, "upload-test")
}

func TestHandleScenarioMissingFile(t *testing.T) {
	handler := newTestHandler(t, Options{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scenario", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing configuration file")
}

func TestHandleHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	handler := newTestHandler(t, Options{Store: store})

	rec := postJSON(t, handler, "/api/payment",
		`{"principal": 120000, "annualRatePercent": 0, "termYears": 25}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=10", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var resp struct {
		Entries []struct {
			Kind string `json:"kind"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "payment", resp.Entries[0].Kind)
}

func TestHandleHistoryDisabled(t *testing.T) {
	handler := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHistoryInvalidLimit(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	handler := newTestHandler(t, Options{Store: store})

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=zero", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t, Options{Version: "1.2.3"})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version": "1.2.3"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/payment", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestBodyLimit(t *testing.T) {
	handler := newTestHandler(t, Options{MaxBodySize: 64})

	rec := postJSON(t, handler, "/api/payment",
		`{"principal": 120000, "annualRatePercent": 4.5, "termYears": 25, "paymentFrequency": "accelerated-biweekly", "padding": "`+strings.Repeat("x", 256)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
