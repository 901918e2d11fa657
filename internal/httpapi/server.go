package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MapGamer71223/AliceChatBot/internal/config"
	"github.com/MapGamer71223/AliceChatBot/internal/memory"
	"github.com/MapGamer71223/AliceChatBot/internal/observability"
	"github.com/MapGamer71223/AliceChatBot/internal/voice"
)

// Coordinator is the subset of the turn coordinator the API drives.
type Coordinator interface {
	RequestListen() bool
	HandleUtterance(text string) bool
	Snapshot() voice.Snapshot
	Subscribe() (<-chan any, func())
}

type Server struct {
	cfg         config.Config
	coordinator Coordinator
	store       memory.Store
	metrics     *observability.Metrics
	upgrader    websocket.Upgrader
}

func New(cfg config.Config, coordinator Coordinator, store memory.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:         cfg,
		coordinator: coordinator,
		store:       store,
		metrics:     metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin, so other websites cannot drive the assistant if it
				// is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/assistant/listen", s.handleListen)
	r.Post("/v1/assistant/utterance", s.handleUtterance)
	r.Get("/v1/assistant/status", s.handleStatus)
	r.Get("/v1/assistant/ws", s.handleWS)
	r.Get("/v1/memories", s.handleListMemories)
	r.Post("/v1/memories/sweep", s.handleSweep)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness means the store answers; the assistant degrades through
	// everything else.
	if _, err := s.store.Recent(r.Context(), 1); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleListen(w http.ResponseWriter, _ *http.Request) {
	accepted := s.coordinator.RequestListen()
	respondJSON(w, http.StatusAccepted, map[string]any{"accepted": accepted})
}

type utteranceRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "text is required")
		return
	}
	accepted := s.coordinator.HandleUtterance(req.Text)
	respondJSON(w, http.StatusAccepted, map[string]any{"accepted": accepted})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.ContextLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if records == nil {
		records = []memory.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"memories": records})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Sweep(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	s.metrics.StoreSweeps.Inc()
	respondJSON(w, http.StatusOK, map[string]any{"status": "swept"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, detail string) {
	respondJSON(w, status, errorResponse{Error: detail, Code: code})
}
