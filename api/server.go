// Package api - Thin, deterministic API layer
// The API is ONLY responsible for: input ingestion, engine orchestration, output serialization.
// The API NEVER performs pricing logic.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pricing-engine/adapters/storage"
	"pricing-engine/core/engine"
	"pricing-engine/internal/errors"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes int64 = 4 << 20

// Server is the API server
type Server struct {
	handler *Handler
	mux     *http.ServeMux
	version string
	store   storage.Store
	logger  *zap.Logger
	maxBody int64
}

// NewServer creates a new API server (without a store)
func NewServer(version string) *Server {
	return NewServerWithStore(version, nil, nil, nil)
}

// NewServerWithStore creates a new API server backed by a document store.
// Nil engine and logger fall back to defaults.
func NewServerWithStore(version string, store storage.Store, eng *engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		handler: NewHandler(eng, store, logger),
		mux:     mux,
		version: version,
		store:   store,
		logger:  logger,
		maxBody: MaxBodyBytes,
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /calculate", s.handleCalculate)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)

	// Document store endpoints
	s.mux.HandleFunc("GET /catalogs", s.handleListCatalogs)
	s.mux.HandleFunc("GET /catalogs/{name}", s.handleGetCatalog)
	s.mux.HandleFunc("PUT /catalogs/{name}", s.handlePutCatalog)
	s.mux.HandleFunc("GET /strategies", s.handleListStrategies)
	s.mux.HandleFunc("GET /strategies/{name}", s.handleGetStrategy)
	s.mux.HandleFunc("PUT /strategies/{name}", s.handlePutStrategy)
	s.mux.HandleFunc("GET /results", s.handleListResults)
	s.mux.HandleFunc("GET /results/{id}", s.handleGetResult)
}

// handleCalculate handles POST /calculate
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	resp, err := s.handler.execute(r.Context(), generateRequestID(), &req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"store":   s.store != nil,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":        s.version,
		"engine":         "pricing-engine",
		"engine_version": engine.Version,
	}, http.StatusOK)
}

// handleListCatalogs handles GET /catalogs
func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	names, err := s.store.ListCatalogs(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, &ListResponse{Names: names, Count: len(names)}, http.StatusOK)
}

// handleGetCatalog handles GET /catalogs/{name}
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	catalog, err := s.store.GetCatalog(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, catalog, http.StatusOK)
}

// handlePutCatalog handles PUT /catalogs/{name}
func (s *Server) handlePutCatalog(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var body CatalogBody
	if !s.decodeBody(w, r, &body) {
		return
	}

	catalog := &storage.StoredCatalog{Name: r.PathValue("name"), Nodes: body.Nodes}
	if err := s.store.SaveCatalog(r.Context(), catalog); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logger.Info("catalog saved", zap.String("name", catalog.Name), zap.Int("nodes", len(catalog.Nodes)))
	s.writeJSON(w, catalog, http.StatusOK)
}

// handleListStrategies handles GET /strategies
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	names, err := s.store.ListStrategies(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, &ListResponse{Names: names, Count: len(names)}, http.StatusOK)
}

// handleGetStrategy handles GET /strategies/{name}
func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	strategy, err := s.store.GetStrategy(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, strategy, http.StatusOK)
}

// handlePutStrategy handles PUT /strategies/{name}. The body is the strategy document.
func (s *Server) handlePutStrategy(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	stored := &storage.StoredStrategy{Name: r.PathValue("name")}
	if !s.decodeBody(w, r, &stored.Strategy) {
		return
	}

	if err := s.store.SaveStrategy(r.Context(), stored); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logger.Info("strategy saved", zap.String("name", stored.Name))
	s.writeJSON(w, stored, http.StatusOK)
}

// handleListResults handles GET /results
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	filter, err := parseListFilter(r)
	if err != nil {
		s.writeError(w, CodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.store.ListResults(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, &ResultsResponse{Results: results, Count: len(results)}, http.StatusOK)
}

// handleGetResult handles GET /results/{id}
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	result, err := s.store.GetResult(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// parseListFilter reads result filters from the query string
func parseListFilter(r *http.Request) (*storage.ListFilter, error) {
	q := r.URL.Query()
	filter := &storage.ListFilter{
		Strategy:  q.Get("strategy"),
		Catalog:   q.Get("catalog"),
		InputHash: q.Get("input_hash"),
		OrderDesc: q.Get("order") == "desc",
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			return nil, errors.Newf(errors.TypeInvalidDocument, "invalid limit: %s", v)
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			return nil, errors.Newf(errors.TypeInvalidDocument, "invalid offset: %s", v)
		}
	}
	if v := q.Get("since"); v != "" {
		if filter.Since, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, errors.Newf(errors.TypeInvalidDocument, "invalid since: %s", v)
		}
	}
	if v := q.Get("until"); v != "" {
		if filter.Until, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, errors.Newf(errors.TypeInvalidDocument, "invalid until: %s", v)
		}
	}
	if v := q.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Newf(errors.TypeInvalidDocument, "invalid min_price: %s", v)
		}
		filter.MinPrice = &f
	}
	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Newf(errors.TypeInvalidDocument, "invalid max_price: %s", v)
		}
		filter.MaxPrice = &f
	}
	return filter, nil
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, CodeStoreUnavailable, "no store configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// statusFor maps a domain error to its HTTP status
func statusFor(err error) (string, int) {
	if err == errNoStore {
		return CodeStoreUnavailable, http.StatusServiceUnavailable
	}
	switch t := errors.TypeOf(err); t {
	case errors.TypeNotFound:
		return string(t), http.StatusNotFound
	case errors.TypeInvalidDocument:
		return string(t), http.StatusBadRequest
	case errors.TypeConfig, errors.TypeInternal:
		return string(t), http.StatusInternalServerError
	default:
		return string(t), http.StatusUnprocessableEntity
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	code, status := statusFor(err)
	detail := ErrorDetail{Code: code, Message: err.Error()}
	if e, ok := errors.As(err); ok {
		detail.Message = e.Message
		if e.Cause != nil {
			detail.Message += ": " + e.Cause.Error()
		}
		detail.Context = e.Context
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, &ErrorBody{Error: detail}, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeBody reads at most maxBody bytes of JSON into v and writes the
// error response itself when it fails
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		s.writeError(w, CodeBodyTooLarge,
			"request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes",
			http.StatusRequestEntityTooLarge)
		return false
	}
	s.writeError(w, CodeInvalidJSON, err.Error(), http.StatusBadRequest)
	return false
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, &ErrorBody{Error: ErrorDetail{Code: code, Message: message}}, status)
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)))
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
