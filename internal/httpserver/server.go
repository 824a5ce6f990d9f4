package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/config"
	"github.com/radiusdt/vector-insights/internal/ingest"
	"github.com/radiusdt/vector-insights/internal/insights"
	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/middleware"
	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/report"
	"github.com/radiusdt/vector-insights/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	Service  *insights.Service
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// RateLimiter is optional; NewServer builds one from Config when nil.
	RateLimiter *middleware.RateLimitMiddleware
}

// Server wraps HTTP handlers around the insights service.
type Server struct {
	service *insights.Service
	logger  *zap.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered and
// the middleware chain applied.
func NewServer(deps *Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: deps.Service,
		logger:  logger,
		config:  deps.Config,
		metrics: deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Analyses
	mux.HandleFunc("POST /analyses", s.handleAnalyzeUpload)
	mux.HandleFunc("POST /analyses/source", s.handleAnalyzeSource)
	mux.HandleFunc("GET /analyses/latest", s.handleLatest)
	mux.HandleFunc("GET /analyses/{id}", s.handleGet)
	mux.HandleFunc("GET /analyses/{id}/tables/{name}", s.handleTable)
	mux.HandleFunc("GET /analyses/{id}/brief", s.handleBrief)

	// Rule set in effect
	mux.HandleFunc("GET /thresholds", s.handleThresholds)

	if s.config.Metrics.Enabled {
		mux.Handle("GET "+s.config.Metrics.Path, metrics.Handler(deps.Gatherer))
	}

	rl := deps.RateLimiter
	if rl == nil {
		rl = middleware.NewRateLimitMiddleware(s.config.RateLimit, logger, deps.Metrics)
	}

	var h http.Handler = mux
	h = middleware.NewAuthMiddleware(s.config.Auth, logger).Handler(h)
	h = rl.Handler(h)
	h = middleware.NewLoggingMiddleware(logger, deps.Metrics).Handler(h)
	h = middleware.NewRecoveryMiddleware(logger).Handler(h)
	return h
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "ok"})
}

// ---- Analyses ----

// analysisSummary is the response of a completed analysis.
type analysisSummary struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	Source      string            `json:"source"`
	AnchorDate  string            `json:"anchor_date"`
	Input       models.InputStats `json:"input"`
	Windows     []models.Window   `json:"windows"`
	Alerts      int               `json:"alerts"`
	Trends      int               `json:"trends"`
	TableCounts map[string]int    `json:"table_counts"`
}

func summarize(res *models.Result) analysisSummary {
	return analysisSummary{
		ID:          res.ID,
		CreatedAt:   res.CreatedAt,
		Source:      res.Source,
		AnchorDate:  res.Anchor.Format("2006-01-02"),
		Input:       res.Input,
		Windows:     res.Windows,
		Alerts:      len(res.Alerts),
		Trends:      len(res.Trends),
		TableCounts: report.Counts(res),
	}
}

func (s *Server) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	opts, err := runOptions(r)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes)

	name := "upload.csv"
	var body io.Reader = r.Body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.errorResponse(w, "failed to parse form: "+err.Error(), uploadStatus(err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.errorResponse(w, "file field missing: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "" {
			name = header.Filename
		}
		body = file
	} else if q := r.URL.Query().Get("name"); q != "" {
		name = q
	}

	res, err := s.service.AnalyzeCSV(r.Context(), name, body, opts)
	if err != nil {
		s.analysisError(w, err)
		return
	}
	s.jsonStatus(w, summarize(res), http.StatusCreated)
}

// sourceRequest is the body of POST /analyses/source. Dates are YYYY-MM-DD.
type sourceRequest struct {
	AccountID string `json:"account_id"`
	Since     string `json:"since"`
	Until     string `json:"until"`
	TopN      int    `json:"top_n"`
}

func (s *Server) handleAnalyzeSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	filter := storage.RecordFilter{AccountID: req.AccountID}
	var err error
	if filter.Since, err = parseDay(req.Since); err != nil {
		s.errorResponse(w, "invalid since: "+err.Error(), http.StatusBadRequest)
		return
	}
	if filter.Until, err = parseDay(req.Until); err != nil {
		s.errorResponse(w, "invalid until: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !filter.Since.IsZero() && !filter.Until.IsZero() && filter.Until.Before(filter.Since) {
		s.errorResponse(w, "until is before since", http.StatusBadRequest)
		return
	}
	if req.TopN < 0 {
		s.errorResponse(w, "top_n must be positive", http.StatusBadRequest)
		return
	}

	res, err := s.service.AnalyzeSource(r.Context(), filter, insights.Options{TopN: req.TopN})
	if err != nil {
		s.analysisError(w, err)
		return
	}
	s.jsonStatus(w, summarize(res), http.StatusCreated)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Latest(r.Context())
	if err != nil {
		s.lookupError(w, err)
		return
	}
	s.jsonResponse(w, summarize(res))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	switch r.URL.Query().Get("format") {
	case "", string(report.FormatJSON):
	case string(report.FormatXLSX):
		s.workbookResponse(w, res)
		return
	default:
		s.errorResponse(w, "format must be json or xlsx", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("full") == "true" {
		s.jsonResponse(w, report.Document{Report: res.ReportName(), Result: res, Tables: report.Flatten(res)})
		return
	}
	s.jsonResponse(w, summarize(res))
}

func (s *Server) workbookResponse(w http.ResponseWriter, res *models.Result) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, res); err != nil {
		s.logger.Error("failed to build workbook", zap.String("id", res.ID), zap.Error(err))
		s.errorResponse(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.ReportName()+`.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	t, ok := report.Find(res, r.PathValue("name"))
	if !ok {
		s.errorResponse(w, "table not found", http.StatusNotFound)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", string(report.FormatJSON):
		s.jsonResponse(w, t)
	case string(report.FormatCSV):
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+res.ReportName()+"_"+t.Name+`.csv"`)
		if err := report.WriteTableCSV(w, t); err != nil {
			s.logger.Warn("failed to stream table", zap.String("table", t.Name), zap.Error(err))
		}
	default:
		s.errorResponse(w, "format must be csv or json", http.StatusBadRequest)
	}
}

func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	sample := s.service.Thresholds().Sample
	opts := report.BriefOptions{TopN: sample.TopN, MinSpend: sample.MinSpend}
	q := r.URL.Query()
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, "top_n must be a positive integer", http.StatusBadRequest)
			return
		}
		opts.TopN = n
	}
	if v := q.Get("preamble"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.errorResponse(w, "preamble must be true or false", http.StatusBadRequest)
			return
		}
		opts.Preamble = b
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, report.RenderBrief(res, opts))
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.service.Thresholds())
}

// ---- Helper Methods ----

func runOptions(r *http.Request) (insights.Options, error) {
	q := r.URL.Query()
	opts := insights.Options{ConversionColumn: q.Get("conversion")}
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New("top_n must be a positive integer")
		}
		opts.TopN = n
	}
	return opts, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func uploadStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) analysisError(w http.ResponseWriter, err error) {
	var se *ingest.SchemaError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &se), errors.Is(err, ingest.ErrEmptyDataset):
		s.errorResponse(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &mbe):
		s.errorResponse(w, "upload too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, insights.ErrNoSource):
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.errorResponse(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.logger.Error("analysis failed", zap.Error(err))
		s.errorResponse(w, "analysis failed", http.StatusInternalServerError)
	}
}

func (s *Server) lookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.errorResponse(w, "analysis not found", http.StatusNotFound)
		return
	}
	s.logger.Error("result lookup failed", zap.Error(err))
	s.errorResponse(w, "result lookup failed", http.StatusInternalServerError)
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
