// ABOUTME: HTTP ingress for hook events plus read-only hook and log endpoints
// ABOUTME: Loopback-oriented transport; the shared token is a misdirection check, not auth

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/hookstore"
	"github.com/agentdeck/agentdeck/internal/httpx"
	"github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/logstore"
	"github.com/agentdeck/agentdeck/internal/pipeline"
)

// TokenHeader carries the shared ingress token. Its purpose is catching
// misdirected requests on shared machines; transport security is out of
// scope for a loopback listener.
const TokenHeader = "X-Agentdeck-Token"

// maxEventBody caps a single ingress payload.
const maxEventBody = 1 << 20 // 1MB

// Server exposes the event pipeline over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	store    *hookstore.Store
	logs     *logstore.Store
	token    string
	httpSrv  *http.Server
}

// New wires the ingress routes. logs may be nil when durable logging is
// disabled.
func New(addr, token string, p *pipeline.Pipeline, store *hookstore.Store, logs *logstore.Store) *Server {
	s := &Server{pipeline: p, store: store, logs: logs, token: token}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/hook-event", s.withToken(s.handleHookEvent))
	mux.HandleFunc("/api/hooks", s.withToken(s.handleHooks))
	mux.HandleFunc("/api/logs", s.withToken(s.handleLogs))
	mux.HandleFunc("/api/health", s.handleHealth)

	s.httpSrv = httpx.SecureServer(mux, addr)
	return s
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Info("ingress listening on %s", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) withToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get(TokenHeader) != s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing or invalid token"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "queued": s.pipeline.QueueLen()})
}

// handleHookEvent is the single ingress point. Malformed payloads get a
// failure envelope that still carries continue=true so the caller never
// stalls a tool action on our account.
func (s *Server) handleHookEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "POST only"})
		return
	}

	var raw pipeline.RawEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := dec.Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.Response{
			Success:  false,
			Continue: true,
			Error:    "malformed event payload: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, s.pipeline.Receive(raw))
}

// hookView is the wire shape of a hook. Source is omitted from listings.
type hookView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	FileName    string            `json:"fileName"`
	Scope       string            `json:"scope"`
	ProjectPath string            `json:"projectPath,omitempty"`
	Event       string            `json:"event"`
	Pattern     string            `json:"pattern"`
	Description string            `json:"description,omitempty"`
	Enabled     bool              `json:"enabled"`
	Author      string            `json:"author,omitempty"`
	Version     string            `json:"version,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

func viewOf(h *hook.Hook) hookView {
	return hookView{
		ID:          h.ID,
		Name:        h.Name,
		FileName:    h.FileName,
		Scope:       string(h.Scope),
		ProjectPath: h.ProjectPath,
		Event:       string(h.Event),
		Pattern:     h.Pattern,
		Description: h.Description,
		Enabled:     h.Enabled,
		Author:      h.Author,
		Version:     h.Version,
		Extra:       h.Extra,
	}
}

// handleHooks lists loaded hooks: user scope always, plus one project
// scope when ?project= names a registered path.
func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "GET only"})
		return
	}

	var views []hookView
	for _, h := range s.store.AllEnabled(hook.ScopeUser, "") {
		views = append(views, viewOf(h))
	}
	if project := r.URL.Query().Get("project"); project != "" {
		for _, h := range s.store.AllEnabled(hook.ScopeProject, project) {
			views = append(views, viewOf(h))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hooks": views})
}

// handleLogs serves the execution log: ?hook= narrows to one hook id,
// ?q= ranks by fuzzy match, ?n= caps the result count.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "GET only"})
		return
	}
	if s.logs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []logstore.Entry{}})
		return
	}

	n := 50
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	var (
		entries []logstore.Entry
		err     error
	)
	switch {
	case r.URL.Query().Get("hook") != "":
		entries, err = s.logs.ByHook(r.URL.Query().Get("hook"), n)
	case r.URL.Query().Get("q") != "":
		entries, err = s.logs.Search(r.URL.Query().Get("q"), n)
	default:
		entries, err = s.logs.Recent(n)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []logstore.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("ingress: encoding response: %v", err)
	}
}
