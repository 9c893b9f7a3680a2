package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voriol/trailview/internal/domain"
	"github.com/voriol/trailview/internal/domain/session"
	"github.com/voriol/trailview/internal/service"
)

// Handlers aggregates the services the HTTP layer exposes.
type Handlers struct {
	Sessions *service.SessionService
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[session.CreateRequest](w, r)
	if !ok {
		return
	}

	sess, err := h.Sessions.Create(r.Context(), req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Sessions.List(r.Context()))
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(r.Context(), urlParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// appendEvent ingests one raw pipeline event. The body is opaque JSON; the
// derivation core tolerates any object shape, so only non-object bodies are
// rejected here.
func (h *Handlers) appendEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := readJSON[json.RawMessage](w, r)
	if !ok {
		return
	}

	snap, err := h.Sessions.AppendEvent(r.Context(), urlParam(r, "sessionID"), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (h *Handlers) appendLifecycle(w http.ResponseWriter, r *http.Request) {
	payload, ok := readJSON[json.RawMessage](w, r)
	if !ok {
		return
	}

	units, err := h.Sessions.AppendLifecycle(r.Context(), urlParam(r, "sessionID"), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, units)
}

func (h *Handlers) getTimeline(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Sessions.Timeline(r.Context(), urlParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) getProgress(w http.ResponseWriter, r *http.Request) {
	units, err := h.Sessions.Progress(r.Context(), urlParam(r, "sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
