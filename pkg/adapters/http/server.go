package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/procflow"
	"github.com/aretw0/procflow/internal/compiler"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/registry"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// MaxBodySize bounds the size of a POST /run document (1MB).
const MaxBodySize = 1 << 20

// Runner executes call graphs. *procflow.Driver implements it.
type Runner interface {
	Run(ctx context.Context, ref domain.ProcedureRef, opts ...procflow.RunOption) (any, error)
}

// Server serves the procflow HTTP API.
type Server struct {
	runner   Runner
	source   registry.Source
	streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	parser   *compiler.Parser
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams enables GET /events. Feed the manager by passing its Hooks to the driver.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithGatherer exposes GET /metrics for g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler. Requests matching an operation of the
// embedded OpenAPI document are validated against it before being served.
func NewHandler(runner Runner, source registry.Source, opts ...Option) (http.Handler, error) {
	s := &Server{
		runner: runner,
		source: source,
		logger: slog.Default(),
		parser: compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}

	validate, err := newValidator(s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(validate)

	r.Post("/run", s.Run)
	r.Get("/procedures", s.ListProcedures)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r), nil
}

// Spec returns the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

func newValidator(logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					writeError(w, http.StatusMethodNotAllowed, err)
					return
				}
				// Not described by the document (e.g. /metrics).
				next.ServeHTTP(w, r)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Warn("Request rejected", "path", r.URL.Path, "err", err)
				writeError(w, http.StatusBadRequest, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run handles the POST /run request.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	ref, err := s.parser.ParseJSON(body)
	if err != nil {
		s.logger.Warn("Run: Invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.runner.Run(r.Context(), ref, procflow.WithPrint(false))
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("Run failed", "path", ref.Proc.String(), "err", err)
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result}, s.logger)
}

type procedureView struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Callable    bool   `json:"callable"`
}

// ListProcedures handles the GET /procedures request.
func (s *Server) ListProcedures(w http.ResponseWriter, r *http.Request) {
	procs := s.source.List()
	out := make([]procedureView, len(procs))
	for i, p := range procs {
		out[i] = procedureView{
			Path:        p.Path.String(),
			Description: p.Description,
			Callable:    p.Handler != nil,
		}
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "procflow-http",
		"version": strings.TrimSpace(procflow.Version),
	}, s.logger)
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.streams == nil {
		writeError(w, http.StatusNotFound, errors.New("event streaming is not enabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// StatusFor maps an execution error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProcedureNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnresolvedRef):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, compiler.ErrInvalidMarker),
		errors.Is(err, compiler.ErrNotProcedure):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()}, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		if logger != nil {
			logger.Error("response encode failed", "err", err)
		}
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "response encode failed: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
