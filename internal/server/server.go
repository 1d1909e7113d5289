// SPDX-License-Identifier: Apache-2.0

// Package server exposes the readiness analyzer over HTTP: upload, analyze,
// report retrieval and listing. The analysis itself stays in-process and
// synchronous; concurrent requests only share the store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/getsproj/getscheck/internal/analyze"
	"github.com/getsproj/getscheck/internal/config"
	"github.com/getsproj/getscheck/internal/ingest"
	"github.com/getsproj/getscheck/internal/report"
	"github.com/getsproj/getscheck/internal/store"
)

// Server holds the HTTP handler state.
type Server struct {
	store    *store.Store
	log      *slog.Logger
	maxBytes int64
	limiter  *rate.Limiter
}

// New constructs a Server over the given store.
func New(st *store.Store, logger *slog.Logger, cfg config.Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = config.Default().RateLimitPerMin
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = config.Default().MaxUploadBytes
	}
	return &Server{
		store:    st,
		log:      logger,
		maxBytes: maxBytes,
		limiter:  rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
	}
}

// Handler builds the routed handler with CORS, rate limiting and request
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/report/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/reports", s.handleRecentReports)
	mux.HandleFunc("GET /health", s.handleHealth)

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(h)
	return s.logRequests(h)
}

type uploadRequest struct {
	Text    string `json:"text"`
	Country string `json:"country"`
	ERP     string `json:"erp"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)

	text, format, country, erp, err := s.readUploadInput(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		s.writeError(w, http.StatusBadRequest, "No file or text provided")
		return
	}

	rows, err := ingest.Parse(text, format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Parsing failed: %v", err))
		return
	}

	id := store.NewUploadID()
	err = s.store.SaveUpload(r.Context(), store.Upload{
		UploadID:   id,
		Country:    country,
		ERP:        erp,
		RowsParsed: len(rows),
		Rows:       rows,
	})
	if err != nil {
		s.log.Error("save upload", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"uploadId": id})
}

// readUploadInput accepts either a multipart form with a file (or text
// field) or a JSON body with inline text.
func (s *Server) readUploadInput(r *http.Request) (text, format, country, erp string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxBytes); err != nil {
			return "", "", "", "", fmt.Errorf("invalid multipart form: %w", err)
		}
		country = r.FormValue("country")
		erp = r.FormValue("erp")

		file, header, ferr := r.FormFile("file")
		if ferr == nil {
			defer file.Close()
			name := strings.ToLower(header.Filename)
			if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".json") {
				return "", "", "", "", errors.New("Invalid file type. Only CSV and JSON allowed.")
			}
			data, rerr := io.ReadAll(file)
			if rerr != nil {
				return "", "", "", "", fmt.Errorf("read file: %w", rerr)
			}
			format = "csv"
			if strings.HasSuffix(name, ".json") {
				format = "json"
			}
			return string(data), format, country, erp, nil
		}
		return r.FormValue("text"), "", country, erp, nil
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", "", "", "", fmt.Errorf("invalid request body: %w", err)
	}
	return req.Text, "", req.Country, req.ERP, nil
}

type analyzeRequest struct {
	UploadID      string                 `json:"uploadId"`
	Questionnaire *analyze.Questionnaire `json:"questionnaire"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UploadID == "" {
		s.writeError(w, http.StatusBadRequest, "uploadId is required")
		return
	}

	upload, err := s.store.GetUpload(r.Context(), req.UploadID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Upload not found")
		return
	}
	if err != nil {
		s.log.Error("get upload", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	start := time.Now()
	result := analyze.Run(upload.Rows, req.Questionnaire)
	rep := report.Assemble(report.NewID(), upload.Rows, result,
		upload.Country, upload.ERP, time.Since(start))

	if err := s.store.SaveReport(r.Context(), upload.UploadID, rep); err != nil {
		s.log.Error("save report", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	raw, err := s.store.GetReport(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		s.log.Error("get report", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (s *Server) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := s.store.RecentReports(r.Context(), limit)
	if err != nil {
		s.log.Error("list reports", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"reports": summaries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  dbStatus,
		"dbType":    "sqlite",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && !s.limiter.Allow() {
			s.writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String())
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg, "status": status},
	})
}
