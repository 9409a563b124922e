package gallery

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/comalice/statekernel/internal/conformance"
	"github.com/comalice/statekernel/internal/core"
	xlog "github.com/comalice/statekernel/internal/log"
	"github.com/comalice/statekernel/internal/primitives"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// ComponentInfo summarizes one registered primitive.
type ComponentInfo struct {
	ID      string   `json:"id"`
	Initial string   `json:"initial"`
	States  []string `json:"states"`
	Version string   `json:"version"`
}

// SessionResponse is returned by session endpoints.
type SessionResponse struct {
	ID       string               `json:"id"`
	Snapshot core.MachineSnapshot `json:"snapshot"`
}

// EventResponse is returned after sending an event.
type EventResponse struct {
	Result   primitives.TransitionResult `json:"result"`
	Snapshot core.MachineSnapshot        `json:"snapshot"`
}

type createSessionRequest struct {
	Component string `json:"component"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str(xlog.FieldRequestID, requestIDFrom(r.Context())).
			Str(xlog.FieldPath, r.URL.Path).
			Msg("request failed")
	}
	writeJSON(w, code, errorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
}

// statusOf maps lookup errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, ErrSessionNotFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSnapshotMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessionCount()})
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.IDs()
	out := make([]ComponentInfo, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.registry.Lookup(id)
		if err != nil {
			s.writeError(w, r, statusOf(err), err)
			return
		}
		out = append(out, ComponentInfo{
			ID:      id,
			Initial: cfg.Initial,
			States:  cfg.StateNames(),
			Version: primitives.ComputeVersion(&cfg),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.registry.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	data, err := primitives.EncodeJSON(cfg)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleDOT renders the config as Graphviz. ?state= highlights a state.
func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.registry.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	current := r.URL.Query().Get("state")
	if current == "" {
		current = cfg.Initial
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(s.viz.ExportDOT(cfg, current)))
}

func (s *Server) handleVectors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.registry.Lookup(id); err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	if s.vectorsDir == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("no vectors directory configured"))
		return
	}
	v, err := conformance.Load(conformance.Path(s.vectorsDir, id))
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Component == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("component is required"))
		return
	}
	sess, err := s.createSession(r.Context(), req.Component)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.id)
	writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.id, Snapshot: s.snapshot(sess)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.id, Snapshot: s.snapshot(sess)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteSession(r.Context(), chi.URLParam(r, "sid")); err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSendEvent applies one event. Unhandled events are a 200 with
// result.handled=false; an action failure is a 422 and the machine is left
// unchanged.
func (s *Server) handleSendEvent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	var ev primitives.Event
	if err := decodeBody(w, r, &ev); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if ev.Name == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("event name is required"))
		return
	}

	res, snap, err := s.send(r.Context(), sess, ev)
	if err != nil {
		if res.Handled {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, struct {
			errorBody
			EventResponse
		}{errorBody{Error: err.Error(), RequestID: requestIDFrom(r.Context())}, EventResponse{Result: res, Snapshot: snap}})
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Result: res, Snapshot: snap})
}
