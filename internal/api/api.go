// Package api exposes the engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/engine"
	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/logger"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 64 << 10
)

// Generator produces a salary intelligence result. *engine.Engine satisfies it.
type Generator interface {
	Generate(ctx context.Context, req intel.Request, budget intel.ComputationBudget) (intel.Result, error)
}

type Server struct {
	gen    Generator
	logger *zap.Logger
}

func New(gen Generator, l *zap.Logger) *Server {
	return &Server{gen: gen, logger: logger.WithComponent(l, "api")}
}

// Router wires the routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Post("/v1/salary-intelligence", s.salaryIntelligence)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) salaryIntelligence(w http.ResponseWriter, r *http.Request) {
	req, budget, err := decodeBody(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.gen.Generate(r.Context(), req, budget)
	if err != nil {
		if engine.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("generate failed", append(logger.RequestFields(w.Header().Get(HeaderRequestID), ""), zap.Error(err))...)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusOK
	if !res.SchemaValid {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

// requestID echoes the caller's X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := logger.RequestFields(w.Header().Get(HeaderRequestID), r.RemoteAddr)
		s.logger.Info("http request", append(fields,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)...)
	})
}

// writeJSON encodes before writing the header so that an unencodable value
// becomes a 500 rather than an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		out, _ = json.Marshal(map[string]string{"error": "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(out, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
