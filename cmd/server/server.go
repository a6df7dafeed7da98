package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"scoring-engine/internal/handlers"
	"scoring-engine/internal/metrics"
	"scoring-engine/internal/models"
	"scoring-engine/internal/services/assessment"
	"scoring-engine/internal/utils"
)

const (
	maxJSONBody   = 1 << 20  // 1MB
	maxUploadSize = 10 << 20 // 10MB
)

// Server holds all dependencies
type Server struct {
	svc     *assessment.Service
	health  *handlers.HealthHandler
	metrics *metrics.Metrics
	limiter *RateLimiter
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PresetInfo describes one scoring preset.
type PresetInfo struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	ApprovalThreshold int      `json:"approval_threshold"`
	Rules             []string `json:"rules"`
	Default           bool     `json:"default"`
}

// NotifyRequest asks for a decision e-mail for a stored loan record.
type NotifyRequest struct {
	Email    string `json:"email"`
	RecordID string `json:"record_id"`
}

// NewServer creates a server. m and limiter may be nil.
func NewServer(svc *assessment.Service, health *handlers.HealthHandler, m *metrics.Metrics, limiter *RateLimiter) *Server {
	return &Server{svc: svc, health: health, metrics: m, limiter: limiter}
}

// Routes returns the CORS-wrapped router.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /health", s.healthHandler)
	s.handle(mux, "GET /api/presets", s.presetsHandler)

	// Scoring endpoints are rate limited per client
	s.handleLimited(mux, "POST /api/loan/score", s.scoreLoanHandler)
	s.handleLimited(mux, "POST /api/loan/batch", s.scoreBatchHandler)
	s.handleLimited(mux, "POST /api/email/classify", s.classifyHandler)

	s.handle(mux, "GET /api/history/loans", s.listLoansHandler)
	s.handle(mux, "DELETE /api/history/loans", s.clearLoansHandler)
	s.handle(mux, "GET /api/history/loans/stats", s.loanStatsHandler)
	s.handle(mux, "GET /api/history/emails", s.listEmailsHandler)
	s.handle(mux, "DELETE /api/history/emails", s.clearEmailsHandler)
	s.handle(mux, "GET /api/history/emails/stats", s.emailStatsHandler)
	s.handle(mux, "POST /api/history/export", s.exportHandler)
	s.handle(mux, "POST /api/notify", s.notifyHandler)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(mux)
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) handleLimited(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, RateLimitMiddleware(s.limiter, h)))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records the latency of every request under its route pattern.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.metrics.ObserveRequest(route, rec.status, time.Since(start))
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, Response{
		Success: status == http.StatusOK,
		Message: "Scoring engine API is running",
		Data:    report,
	})
}

func (s *Server) presetsHandler(w http.ResponseWriter, r *http.Request) {
	presets := s.svc.Presets()
	infos := make([]PresetInfo, 0, len(presets))
	for _, p := range presets {
		rules := make([]string, len(p.Order))
		for i, rule := range p.Order {
			rules[i] = string(rule)
		}
		infos = append(infos, PresetInfo{
			Name:              p.Name,
			Description:       p.Description,
			ApprovalThreshold: p.ApprovalThreshold,
			Rules:             rules,
			Default:           p.Name == s.svc.DefaultPreset(),
		})
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: infos})
}

func (s *Server) scoreLoanHandler(w http.ResponseWriter, r *http.Request) {
	var form utils.LoanForm
	if !decodeJSON(w, r, &form) {
		return
	}

	app, err := utils.ParseLoanForm(form)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	record, err := s.svc.ScoreLoan(r.Context(), app, r.URL.Query().Get("preset"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: record})
}

func (s *Server) scoreBatchHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Failed to parse form: " + err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "No file provided"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Only CSV files are allowed"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to read file"})
		return
	}

	utils.GetLogger().Info("Processing CSV upload",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	result, err := s.svc.ScoreBatch(r.Context(), string(content), r.URL.Query().Get("preset"))
	if errors.Is(err, assessment.ErrInvalidBatch) {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "No valid applications found in CSV",
			Data:    result,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "CSV processed successfully",
		Data:    result,
	})
}

func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var in models.EmailInput
	if !decodeJSON(w, r, &in) {
		return
	}

	record, err := s.svc.ClassifyEmail(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: record})
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.ListLoans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.LoanRecord{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: records})
}

func (s *Server) clearLoansHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearLoans(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Loan history cleared"})
}

func (s *Server) loanStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.LoanStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}

func (s *Server) listEmailsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.ListEmails(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.EmailRecord{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: records})
}

func (s *Server) clearEmailsHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearEmails(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Email history cleared"})
}

func (s *Server) emailStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.EmailStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	kind := models.RecordKind(r.URL.Query().Get("kind"))
	if !kind.IsValid() {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "kind must be one of: loans, emails",
		})
		return
	}

	result, err := s.svc.Export(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "History exported",
		Data:    result,
	})
}

func (s *Server) notifyHandler(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RecordID == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "record_id is required"})
		return
	}

	result, err := s.svc.Notify(r.Context(), req.Email, req.RecordID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Notification sent",
		Data:    result,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return false
	}
	return true
}

// writeError maps service errors to a status. Internal errors are logged, not returned.
func writeError(w http.ResponseWriter, err error) {
	status := handlers.StatusFor(err)
	if status == http.StatusInternalServerError {
		utils.GetLogger().Error("Request failed", zap.Error(err))
		writeJSON(w, status, Response{Success: false, Error: "Internal server error"})
		return
	}
	writeJSON(w, status, Response{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		utils.GetLogger().Error("Failed to encode response", zap.Error(err))
	}
}
