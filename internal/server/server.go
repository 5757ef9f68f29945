// Package server exposes the calculators over an HTTP JSON API.
package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/openlistings/mortgage-engine/internal/cache"
	"github.com/openlistings/mortgage-engine/internal/config"
	"github.com/openlistings/mortgage-engine/internal/engine"
	"github.com/openlistings/mortgage-engine/internal/history"
	"github.com/openlistings/mortgage-engine/pkg/affordability"
	"github.com/openlistings/mortgage-engine/pkg/constants"
	"github.com/openlistings/mortgage-engine/pkg/landtransfer"
	"github.com/openlistings/mortgage-engine/pkg/mortgage"
	"github.com/openlistings/mortgage-engine/pkg/output"
	"github.com/openlistings/mortgage-engine/pkg/report"
	"github.com/openlistings/mortgage-engine/pkg/schedule"
	"go.uber.org/zap"
)

// affordabilityCacheTTL bounds how long a solver result is served from cache.
const affordabilityCacheTTL = time.Hour

// Options configures the HTTP handler.
type Options struct {
	MaxBodySize    int64
	Version        string
	AllowedOrigins []string
	Cache          cache.Cache
	Store          *history.Store
}

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	cache       cache.Cache
	store       *history.Store
}

// NewHandler constructs the HTTP handler that serves the calculator API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		maxBodySize: opts.MaxBodySize,
		version:     trimmedVersion,
		cache:       opts.Cache,
		store:       opts.Store,
	}

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/api/payment", h.handlePayment)
	r.Post("/api/insurance", h.handleInsurance)
	r.Post("/api/land-transfer-tax", h.handleLandTransferTax)
	r.Post("/api/affordability", h.handleAffordability)
	r.Post("/api/amortization", h.handleAmortization)
	r.Post("/api/amortization/pdf", h.handleAmortizationPDF)
	r.Post("/api/scenario", h.handleScenario)
	r.Get("/api/history", h.handleHistory)
	r.Get("/api/version", h.handleVersion)

	return r
}

type paymentRequest struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TermYears         int     `json:"termYears"`
	Frequency         string  `json:"paymentFrequency"`
}

type paymentResponse struct {
	Payment   float64            `json:"payment"`
	Frequency mortgage.Frequency `json:"paymentFrequency"`
}

func (h *handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !h.decodeJSON(w, r, &req, "server.handlePayment") {
		return
	}

	frequency, err := mortgage.ParseFrequency(req.Frequency)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handlePayment")
		return
	}

	payment, err := mortgage.PeriodicPayment(req.Principal, req.AnnualRatePercent, req.TermYears, frequency)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handlePayment")
		return
	}

	resp := paymentResponse{Payment: payment, Frequency: frequency}
	h.record(r, "payment", req, resp)
	h.writeJSON(w, http.StatusOK, resp)
}

type insuranceRequest struct {
	DownPaymentPercent float64 `json:"downPaymentPercent"`
	LoanAmount         float64 `json:"loanAmount"`
}

func (h *handler) handleInsurance(w http.ResponseWriter, r *http.Request) {
	var req insuranceRequest
	if !h.decodeJSON(w, r, &req, "server.handleInsurance") {
		return
	}

	premium := mortgage.InsurancePremium(req.DownPaymentPercent, req.LoanAmount)
	resp := map[string]float64{"premium": premium}
	h.record(r, "insurance", req, resp)
	h.writeJSON(w, http.StatusOK, resp)
}

type landTransferTaxRequest struct {
	PurchasePrice  float64 `json:"purchasePrice"`
	FirstTimeBuyer bool    `json:"firstTimeBuyer"`
	Location       string  `json:"location"`
}

func (h *handler) handleLandTransferTax(w http.ResponseWriter, r *http.Request) {
	var req landTransferTaxRequest
	if !h.decodeJSON(w, r, &req, "server.handleLandTransferTax") {
		return
	}

	result := landtransfer.CalculateForLocation(req.PurchasePrice, req.FirstTimeBuyer, req.Location)
	h.record(r, "land-transfer-tax", req, result)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleAffordability(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, "server.handleAffordability")
	if !ok {
		return
	}

	cacheKey := "affordability:" + hashBody(body)
	if cached, found := h.cache.Get(r.Context(), cacheKey); found {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, cached)
		return
	}

	var in affordability.Inputs
	if err := json.Unmarshal(body, &in); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), "server.handleAffordability")
		return
	}

	result, err := affordability.MaxAffordablePrice(h.logger, in)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleAffordability")
		return
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode result: %v", err), "server.handleAffordability")
		return
	}

	if err := h.cache.Set(r.Context(), cacheKey, string(encoded), affordabilityCacheTTL); err != nil {
		h.logger.Warn("failed to cache affordability result",
			zap.String("op", "server.handleAffordability"),
			zap.Error(err),
		)
	}
	h.record(r, "affordability", in, result)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}

type amortizationRequest struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TermYears         int     `json:"termYears"`
	Frequency         string  `json:"paymentFrequency"`
	UntilPaid         bool    `json:"untilPaid"`
	Title             string  `json:"title,omitempty"`
}

type amortizationResponse struct {
	Rows    []schedule.Row   `json:"rows"`
	Summary schedule.Summary `json:"summary"`
}

func (h *handler) generateSchedule(req amortizationRequest) ([]schedule.Row, mortgage.Frequency, error) {
	frequency, err := mortgage.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, frequency, err
	}

	var rows []schedule.Row
	if req.UntilPaid {
		rows, err = schedule.GenerateUntilPaid(req.Principal, req.AnnualRatePercent, req.TermYears, frequency)
	} else {
		rows, err = schedule.Generate(req.Principal, req.AnnualRatePercent, req.TermYears, frequency)
	}
	return rows, frequency, err
}

func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	var req amortizationRequest
	if !h.decodeJSON(w, r, &req, "server.handleAmortization") {
		return
	}

	rows, _, err := h.generateSchedule(req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleAmortization")
		return
	}

	resp := amortizationResponse{Rows: rows, Summary: schedule.Summarize(rows)}
	h.record(r, "amortization", req, resp.Summary)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleAmortizationPDF(w http.ResponseWriter, r *http.Request) {
	var req amortizationRequest
	if !h.decodeJSON(w, r, &req, "server.handleAmortizationPDF") {
		return
	}

	rows, frequency, err := h.generateSchedule(req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleAmortizationPDF")
		return
	}

	loan := report.Loan{
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TermYears:         req.TermYears,
		Frequency:         frequency,
	}
	data, err := report.AmortizationPDF(req.Title, loan, rows, schedule.Summarize(rows))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), "server.handleAmortizationPDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="amortization-schedule.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type scenarioResponse struct {
	Reports  []engine.Report `json:"reports"`
	Warnings []string        `json:"warnings,omitempty"`
	CSV      string          `json:"csv"`
	Duration string          `json:"duration"`
}

func (h *handler) handleScenario(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), "server.handleScenario")
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), "server.handleScenario")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file", "server.handleScenario")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleScenario"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), "server.handleScenario")
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleScenario")
		return
	}

	warnings := cfg.ValidateConfiguration()
	reports, err := engine.GetReports(h.logger, *cfg)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), "server.handleScenario")
		return
	}

	elapsed := time.Since(start)
	resp := scenarioResponse{
		Reports:  reports,
		Warnings: warnings,
		CSV:      output.CsvString(reports),
		Duration: elapsed.String(),
	}

	h.logger.Info("scenario evaluated",
		zap.String("op", "server.handleScenario"),
		zap.Int("scenarios", len(reports)),
		zap.Duration("duration", elapsed),
	)
	h.record(r, "scenario", json.RawMessage(`{}`), reports)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.respondError(w, http.StatusServiceUnavailable, "history is not enabled", "server.handleHistory")
		return
	}

	limit := constants.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), "server.handleHistory")
			return
		}
		limit = parsed
	}

	entries, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), "server.handleHistory")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// readBody reads the request body subject to the configured size limit.
func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return body, true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}, op string) bool {
	body, ok := h.readBody(w, r, op)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// record saves the calculation to history when a store is configured.
// Failures are logged and do not affect the response.
func (h *handler) record(r *http.Request, kind string, inputs, outputs interface{}) {
	if h.store == nil {
		return
	}
	if err := h.store.Record(r.Context(), kind, inputs, outputs); err != nil {
		h.logger.Warn("failed to record calculation",
			zap.String("op", "server.record"),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
