package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vbonduro/plantasking/internal/conversation"
	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/logging"
	"github.com/vbonduro/plantasking/internal/service"
)

// plantService is the subset of service.PlantService the HTTP layer requires.
type plantService interface {
	CapturePlant(ctx context.Context, imageData []byte, mimeType string) (*domain.Plant, *domain.Analysis, error)
	Reanalyze(ctx context.Context, plantID int64) (*domain.Analysis, error)
	ListPlants(ctx context.Context) ([]*service.PlantSummary, error)
	GetPlant(ctx context.Context, plantID int64) (*service.PlantDetail, error)
	Photo(ctx context.Context, plantID int64) (io.ReadCloser, string, error)
	DeletePlant(ctx context.Context, plantID int64) error
	StartConversation(ctx context.Context, plantID int64) (*conversation.Session, error)
}

// sessionRegistry is the subset of conversation.Manager the HTTP layer requires.
type sessionRegistry interface {
	Get(id string) (*conversation.Session, bool)
	End(id string) bool
}

type Server struct {
	service     plantService
	sessions    sessionRegistry
	broadcaster *Broadcaster
	router      *chi.Mux
	logger      *slog.Logger
}

func NewServer(svc plantService, sessions sessionRegistry, b *Broadcaster, allowedOrigin string, logger *slog.Logger) *Server {
	s := &Server{
		service:     svc,
		sessions:    sessions,
		broadcaster: b,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(func(next http.Handler) http.Handler { return requestLogger(logger, next) })
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(securityHeaders)

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/plants", func(r chi.Router) {
		r.Get("/", s.handleListPlants)
		r.Post("/", s.handleCapturePlant)
		r.Get("/{id}", s.handleGetPlant)
		r.Delete("/{id}", s.handleDeletePlant)
		r.Get("/{id}/photo", s.handleGetPhoto)
		r.Post("/{id}/analyses", s.handleReanalyze)
	})

	s.router.Route("/conversations", func(r chi.Router) {
		r.Post("/", s.handleStartConversation)
		r.Get("/{id}", s.handleGetConversation)
		r.Delete("/{id}", s.handleEndConversation)
		r.Post("/{id}/messages", s.handleSendMessage)
		r.Get("/{id}/events", s.handleConversationEvents)
	})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
// Unwrap keeps http.ResponseController (and so SSE flushing) working through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	_ = http.NewResponseController(r.ResponseWriter).Flush()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.FromContext(r.Context(), logger).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then closes every event
// stream and drains in-flight requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 60 * time.Second,
		// No WriteTimeout: event streams stay open for the life of a conversation.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.broadcaster.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("event stream shutdown failed", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

const shutdownTimeout = 10 * time.Second

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
