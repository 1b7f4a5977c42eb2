// Package server exposes the loan scenario engine over an HTTP JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/loan-analyzer/internal/config"
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/datasource"
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/iwvelando/loan-analyzer/pkg/loans"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/iwvelando/loan-analyzer/pkg/summary"
	"github.com/iwvelando/loan-analyzer/pkg/validation"
	"go.uber.org/zap"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// RunIDHeader carries the journal run ID of a recorded request.
	RunIDHeader = "X-Run-ID"
	// RejectedHeader carries the number of skipped records on file exports.
	RejectedHeader = "X-Rejected-Records"
)

// Recorder persists scenario runs. *export.Journal satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry export.Entry) (string, error)
}

// Options configures the handler. Scenario parameters omitted from a request
// fall back to Scenarios.
type Options struct {
	MaxUploadSize int64
	Version       string
	Scenarios     config.ScenariosConfig
	Journal       Recorder
}

// DefaultOptions returns options with the built-in scenario defaults.
func DefaultOptions() Options {
	return Options{
		MaxUploadSize: constants.DefaultMaxUploadSizeBytes,
		Scenarios: config.ScenariosConfig{
			RateShock:  config.RateShockConfig{Deltas: constants.DefaultRateDeltas},
			Prepayment: config.PrepaymentConfig{ExtraFraction: constants.DefaultExtraFraction},
			Refinance:  config.RefinanceConfig{NewRate: constants.DefaultRefinanceRate},
		},
	}
}

type handler struct {
	logger        *zap.Logger
	engine        scenario.Engine
	maxUploadSize int64
	version       string
	defaults      config.ScenariosConfig
	journal       Recorder
}

// NewHandler constructs the HTTP handler serving the analysis and scenario API.
// A nil engine is replaced by a strict Simulator with default options.
func NewHandler(logger *zap.Logger, engine scenario.Engine, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scenario.NewSimulator(logger, scenario.DefaultOptions())
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	defaults := opts.Scenarios
	if len(defaults.RateShock.Deltas) == 0 {
		defaults.RateShock.Deltas = constants.DefaultRateDeltas
	}

	h := &handler{
		logger:        logger,
		engine:        engine,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		defaults:      defaults,
		journal:       opts.Journal,
	}

	mux := http.NewServeMux()

	// Batch analysis of a JSON loan list
	mux.HandleFunc("/api/analyze", h.handleAnalyze)

	// What-if scenarios
	mux.HandleFunc("/api/scenarios/rate-shock", h.handleRateShock)
	mux.HandleFunc("/api/scenarios/prepayment", h.handlePrepayment)
	mux.HandleFunc("/api/scenarios/refinance", h.handleRefinance)

	// Analysis of an uploaded CSV or XLSX loan file
	mux.HandleFunc("/api/upload", h.handleUpload)

	// Metrics downloads
	mux.HandleFunc("/api/export/csv", h.handleExportCSV)
	mux.HandleFunc("/api/export/xlsx", h.handleExportXLSX)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/status", h.handleStatus)

	return mux
}

// NewServer wraps handler in an http.Server with the configured address and
// a per-request deadline.
func NewServer(cfg *Config, handler http.Handler) *http.Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	timeout := cfg.RequestTimeoutDuration()
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           withTimeout(handler, timeout),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

const timeoutBody = `{"error":"request timed out"}`

// withTimeout bounds each request by timeout. The JSON content type is set
// up front for the timeout body; handlers replace it with their own.
func withTimeout(handler http.Handler, timeout time.Duration) http.Handler {
	th := http.TimeoutHandler(handler, timeout, timeoutBody)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		th.ServeHTTP(w, r)
	})
}

type batchRequest struct {
	Loans []loans.LoanRecord `json:"loans"`
}

type rateShockRequest struct {
	Loans  []loans.LoanRecord `json:"loans"`
	Deltas []float64          `json:"deltas,omitempty"`
}

type prepaymentRequest struct {
	Loans         []loans.LoanRecord `json:"loans"`
	ExtraFraction *float64           `json:"extra_fraction,omitempty"`
}

type refinanceRequest struct {
	Loans   []loans.LoanRecord `json:"loans"`
	NewRate *float64           `json:"new_rate,omitempty"`
}

type analysisResponse struct {
	Source string `json:"source,omitempty"`
	scenario.BatchAnalysis
	Summary  summary.Summary `json:"summary"`
	Warnings []string        `json:"warnings,omitempty"`
	Duration string          `json:"duration"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Record     *int   `json:"record,omitempty"`
	LoanID     string `json:"loan_id,omitempty"`
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Source     string `json:"source,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     string `json:"column,omitempty"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	start := time.Now()
	var req batchRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	h.runAnalysis(w, r, req.Loans, "", start, op)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing loan file", op)
		return
	}
	defer file.Close()

	format, err := datasource.DetectFormat(header.Filename)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}
	batch, err := datasource.Read(file, header.Filename, format)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}

	h.logger.Debug("loan file uploaded",
		zap.String("op", op),
		zap.String("file", header.Filename),
		zap.Int("loans", len(batch)),
	)
	h.runAnalysis(w, r, batch, header.Filename, start, op)
}

func (h *handler) runAnalysis(w http.ResponseWriter, r *http.Request, batch []loans.LoanRecord, source string, start time.Time, op string) {
	analysis, err := h.engine.AnalyzeBatch(batch)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}

	bv := validation.BatchValidator{Batch: batch}
	resp := analysisResponse{
		Source:        source,
		BatchAnalysis: analysis,
		Summary:       summary.Summarize(analysis.Metrics),
		Warnings:      bv.ValidateAll(),
		Duration:      time.Since(start).String(),
	}

	h.record(r.Context(), w, export.AnalysisEntry(analysis), op)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRateShock(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRateShock"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req rateShockRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	deltas := req.Deltas
	if len(deltas) == 0 {
		deltas = h.defaults.RateShock.Deltas
	}

	report, err := h.engine.RateShock(req.Loans, deltas)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}
	h.record(r.Context(), w, export.RateShockEntry(report), op)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handlePrepayment(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePrepayment"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req prepaymentRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	fraction := h.defaults.Prepayment.ExtraFraction
	if req.ExtraFraction != nil {
		fraction = *req.ExtraFraction
	}

	report, err := h.engine.Prepayment(req.Loans, fraction)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}
	h.record(r.Context(), w, export.PrepaymentEntry(report), op)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleRefinance(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRefinance"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req refinanceRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	newRate := h.defaults.Refinance.NewRate
	if req.NewRate != nil {
		newRate = *req.NewRate
	}

	report, err := h.engine.Refinance(req.Loans, newRate)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}
	h.record(r.Context(), w, export.RefinanceEntry(report), op)
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportMetrics(w, r, "server.handleExportCSV", contentTypeCSV, constants.DefaultExportFile, export.WriteMetricsCSV)
}

func (h *handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportMetrics(w, r, "server.handleExportXLSX", contentTypeXLSX, "analysis_results.xlsx", export.WriteMetricsXLSX)
}

func (h *handler) exportMetrics(w http.ResponseWriter, r *http.Request, op, contentType, filename string,
	write func(io.Writer, []loans.DerivedMetrics) error) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req batchRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	analysis, err := h.engine.AnalyzeBatch(req.Loans)
	if err != nil {
		h.respondEngineError(w, err, op)
		return
	}

	// Render fully before writing headers so failures still produce a JSON error.
	var buf bytes.Buffer
	if err := write(&buf, analysis.Metrics); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to export metrics: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set(RejectedHeader, strconv.Itoa(len(analysis.Rejected)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write export",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// record journals a run when a journal is configured. Journal failures are
// logged and never fail the request.
func (h *handler) record(ctx context.Context, w http.ResponseWriter, entry export.Entry, op string) {
	if h.journal == nil {
		return
	}
	runID, err := h.journal.Record(ctx, entry)
	if err != nil {
		h.logger.Warn("failed to journal run",
			zap.String("op", op),
			zap.String("kind", entry.Kind),
			zap.Error(err),
		)
		return
	}
	w.Header().Set(RunIDHeader, runID)
}

func (h *handler) respondEngineError(w http.ResponseWriter, err error, op string) {
	var recordErr *scenario.RecordError
	var invalid *loans.InvalidInputError
	var sourceErr *datasource.DataSourceError

	switch {
	case errors.As(err, &recordErr):
		index := recordErr.Index
		h.respondErrorBody(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      err.Error(),
			Record:     &index,
			LoanID:     recordErr.LoanID,
			Field:      recordErr.Field,
			Constraint: recordErr.Constraint,
		}, op)
	case errors.As(err, &invalid):
		h.respondErrorBody(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      err.Error(),
			Field:      invalid.Field,
			Constraint: invalid.Constraint,
		}, op)
	case errors.As(err, &sourceErr):
		h.respondErrorBody(w, http.StatusBadRequest, errorResponse{
			Error:  err.Error(),
			Source: sourceErr.Source,
			Line:   sourceErr.Line,
			Column: sourceErr.Column,
		}, op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.respondErrorBody(w, status, errorResponse{Error: msg}, op)
}

func (h *handler) respondErrorBody(w http.ResponseWriter, status int, body errorResponse, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", body.Error),
	)
	h.writeJSON(w, status, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Int("status", status),
			zap.Error(err),
		)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "result cannot be encoded as JSON"})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
