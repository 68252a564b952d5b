package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/fazal2204/superset-chatbot/internal/chat"
	"github.com/fazal2204/superset-chatbot/internal/config"
	"github.com/fazal2204/superset-chatbot/internal/observability"
)

// githubPagesOrigins are always allowed: the production frontend is served
// from GitHub Pages.
var githubPagesOrigins = []string{
	"https://fazal2204.github.io",
	"https://Fazal2204.github.io",
}

type Server struct {
	cfg      config.Config
	svc      *chat.Service
	metrics  *observability.Metrics
	model    string
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, svc *chat.Service, metrics *observability.Metrics, model string) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		metrics: metrics,
		model:   model,
		static:  newStaticHandler(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			// Non-browser clients often omit Origin. Allow them.
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			return s.originAllowed(origin)
		},
	}
	return s
}

func (s *Server) allowedOrigins() []string {
	if s.cfg.AllowAnyOrigin {
		return []string{"*"}
	}
	origins := append([]string{}, githubPagesOrigins...)
	if s.cfg.FrontendOrigin != "" {
		origins = append(origins, s.cfg.FrontendOrigin)
	}
	return origins
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins() {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", s.handleRoot)
	r.Get("/api/health", s.handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/ws", s.handleChatWS)
	r.Get("/api/stats", s.handleStats)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Superset Chatbot Backend is running"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": s.svc.ProviderName(),
		"model":    s.model,
		"sessions": s.svc.SessionCount(r.Context()),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.SnapshotLatency())
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	reply, err := s.svc.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		status, message, details := mapChatError(err)
		respondError(w, status, message, details)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// mapChatError translates the service taxonomy onto HTTP. Detail is operator
// diagnostics; the message stays user-safe.
func mapChatError(err error) (status int, message, details string) {
	var chatErr *chat.Error
	if !errors.As(err, &chatErr) {
		return http.StatusInternalServerError, "Failed to generate response", ""
	}
	switch chatErr.Kind {
	case chat.KindBadRequest:
		return http.StatusBadRequest, chatErr.Message, ""
	case chat.KindUnavailable:
		return http.StatusServiceUnavailable, chatErr.Message, chatErr.Detail
	default:
		return http.StatusInternalServerError, chatErr.Message, chatErr.Detail
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}
