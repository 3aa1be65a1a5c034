// Package api serves the haiku page, the JSON API and the MCP tools on top
// of per-session view-state controllers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kalambet/haiku/internal/controller"
	"github.com/kalambet/haiku/internal/haiku"
)

const maxRequestBodySize = 1 << 16 // 64KB

// Sessions resolves a session id to its controller, creating it on first use.
type Sessions interface {
	Get(ctx context.Context, id string) *controller.Controller
}

// Deps holds the dependencies of the HTTP handler.
type Deps struct {
	Sessions Sessions
	// Token, when non-empty, guards the /api routes with bearer auth.
	Token  string
	Logger *zap.Logger
}

// NewHandler returns the HTTP handler for the web page and the JSON API.
func NewHandler(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(withSession)

		r.Get("/", handlePage(deps.Sessions, log))
		r.Post("/generate", handleFormGenerate(deps.Sessions))

		r.Route("/api", func(r chi.Router) {
			r.Use(requireToken(deps.Token))
			r.Get("/state", handleState(deps.Sessions))
			r.Post("/generate", handleGenerate(deps.Sessions))
			r.Get("/haikus", handleHaikus(deps.Sessions))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleFormGenerate(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		if err := r.ParseForm(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid form: %v", err)
			return
		}

		ctrl := s.Get(r.Context(), sessionID(r.Context()))
		if ctrl.Loading() {
			httpError(w, http.StatusConflict, "conflict_error", "a haiku is already being generated")
			return
		}

		theme := r.PostFormValue("theme")
		ctrl.SetTheme(theme)
		// Failures are already in the controller state the page renders.
		_ = ctrl.Generate(context.WithoutCancel(r.Context()), theme)

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func handleState(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl := s.Get(r.Context(), sessionID(r.Context()))
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	}
}

type generateRequest struct {
	Theme string `json:"theme"`
}

func handleGenerate(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		ctrl := s.Get(r.Context(), sessionID(r.Context()))
		if ctrl.Loading() {
			httpError(w, http.StatusConflict, "conflict_error", "a haiku is already being generated")
			return
		}

		if err := ctrl.Generate(context.WithoutCancel(r.Context()), req.Theme); err != nil {
			httpError(w, http.StatusBadGateway, errorType(err), "%s", ctrl.Snapshot().Error)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot())
	}
}

func handleHaikus(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl := s.Get(r.Context(), sessionID(r.Context()))
		if err := ctrl.Reload(r.Context()); err != nil {
			httpError(w, http.StatusBadGateway, errorType(err), "%s", haiku.LoadErrorMessage)
			return
		}
		writeJSON(w, http.StatusOK, ctrl.Snapshot().History)
	}
}

// errorType maps a controller error onto the JSON error "type" field.
func errorType(err error) string {
	switch {
	case errors.Is(err, haiku.ErrPersistence):
		return "persistence_error"
	case errors.Is(err, haiku.ErrGenerationEmpty), errors.Is(err, haiku.ErrGenerationTransport):
		return "generation_error"
	default:
		return "api_error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
