// Package mockserver serves a fake workflow GraphQL endpoint built from a
// fixture catalog. It answers the introspection query and every mutation in
// the catalog, so the dialog can be driven end to end without a real server.
package mockserver

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/mutation"
)

// Mode selects how mutations are answered.
type Mode string

const (
	ModeSucceed Mode = "succeed"
	ModeReject  Mode = "reject" // result [false, message]
	ModeError   Mode = "error"  // top-level GraphQL error
	ModeHTTP    Mode = "http"   // 503 without a GraphQL body
)

// ValidMode reports whether m is a known mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeSucceed, ModeReject, ModeError, ModeHTTP:
		return true
	}
	return false
}

// Server holds the catalog being served and the current answer mode.
type Server struct {
	defs []mutation.Definition
	log  zerolog.Logger

	mu    sync.RWMutex
	mode  Mode
	delay time.Duration
	calls map[string]int
}

func New(defs []mutation.Definition, mode Mode, delay time.Duration, log zerolog.Logger) *Server {
	if !ValidMode(mode) {
		mode = ModeSucceed
	}
	return &Server{defs: defs, log: log, mode: mode, delay: delay, calls: make(map[string]int)}
}

// Router returns the HTTP routes of the mock server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/graphql", s.handleGraphQL)
	r.Post("/mode/{mode}", s.handleSetMode)
	r.Get("/calls", s.handleCalls)
	return r
}

// SetMode changes how subsequent mutations are answered.
func (s *Server) SetMode(m Mode, delay time.Duration) {
	s.mu.Lock()
	s.mode, s.delay = m, delay
	s.mu.Unlock()
}

// Calls returns how many times each mutation was invoked.
func (s *Server) Calls() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

type gqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type gqlError struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrors(w, http.StatusBadRequest, gqlError{Message: "invalid request body: " + err.Error(), Extensions: map[string]string{"code": "BAD_REQUEST"}})
		return
	}
	if strings.Contains(req.Query, "__schema") {
		writeJSON(w, http.StatusOK, map[string]any{"data": schema(s.defs)})
		return
	}
	def := s.find(req.OperationName)
	if def == nil {
		writeErrors(w, http.StatusOK, gqlError{Message: "unknown mutation " + req.OperationName, Extensions: map[string]string{"code": "UNKNOWN_MUTATION"}})
		return
	}
	if missing := missingArgs(def, req.Variables); len(missing) > 0 {
		writeErrors(w, http.StatusOK, gqlError{
			Message:    "missing required arguments: " + strings.Join(missing, ", "),
			Extensions: map[string]string{"code": "BAD_USER_INPUT"},
		})
		return
	}

	s.mu.Lock()
	s.calls[def.Name]++
	mode, delay := s.mode, s.delay
	s.mu.Unlock()

	log := s.log.With().Str("mutation", def.Name).Str("mode", string(mode)).Str("request_id", r.Header.Get("X-Request-ID")).Logger()
	if delay > 0 {
		if err := sleep(r.Context(), delay); err != nil {
			log.Debug().Msg("client went away")
			return
		}
	}
	log.Info().Interface("variables", req.Variables).Msg("mutation")

	switch mode {
	case ModeReject:
		writeJSON(w, http.StatusOK, payload(def.Name, []any{false, def.Name + " rejected by mock server"}))
	case ModeError:
		writeErrors(w, http.StatusOK, gqlError{Message: def.Name + " failed on mock server", Extensions: map[string]string{"code": "INTERNAL"}})
	case ModeHTTP:
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		writeJSON(w, http.StatusOK, payload(def.Name, []any{true, map[string]any{}}))
	}
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	m := Mode(chi.URLParam(r, "mode"))
	if !ValidMode(m) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown mode: " + string(m)})
		return
	}
	delay := time.Duration(0)
	if raw := r.URL.Query().Get("delay"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delay: " + raw})
			return
		}
		delay = d
	}
	s.SetMode(m, delay)
	s.log.Info().Str("mode", string(m)).Dur("delay", delay).Msg("mode changed")
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(m), "delay": delay.String()})
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Calls())
}

func (s *Server) find(name string) *mutation.Definition {
	for i := range s.defs {
		if s.defs[i].Name == name {
			return &s.defs[i]
		}
	}
	return nil
}

func missingArgs(def *mutation.Definition, vars map[string]any) []string {
	var missing []string
	for _, a := range def.Args {
		if !a.Required {
			continue
		}
		switch v := vars[a.Name].(type) {
		case nil:
			missing = append(missing, a.Name)
		case string:
			if strings.TrimSpace(v) == "" {
				missing = append(missing, a.Name)
			}
		case []any:
			if len(v) == 0 {
				missing = append(missing, a.Name)
			}
		}
	}
	return missing
}

func payload(name string, result []any) map[string]any {
	return map[string]any{"data": map[string]any{
		name: map[string]any{"result": result, "__typename": name},
	}}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeErrors(w http.ResponseWriter, status int, errs ...gqlError) {
	writeJSON(w, status, map[string]any{"data": nil, "errors": errs})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}
