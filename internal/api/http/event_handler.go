package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"groupreview-bot/internal/domain"
	"groupreview-bot/internal/logger"
)

// maxEventBytes bounds one reverse-HTTP event body
const maxEventBytes = 1 << 20

// EventSubmitter accepts events for asynchronous review
type EventSubmitter interface {
	Submit(event domain.Event)
}

// EventHandler receives OneBot reverse-HTTP event posts
type EventHandler struct {
	submitter EventSubmitter
	secret    string
}

// NewEventHandler creates a new event handler. An empty secret disables
// signature verification.
func NewEventHandler(submitter EventSubmitter, secret string) *EventHandler {
	return &EventHandler{
		submitter: submitter,
		secret:    secret,
	}
}

// HandleEvent accepts one event and answers 204 without waiting for the review
func (h *EventHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxEventBytes {
		http.Error(w, "Event too large", http.StatusRequestEntityTooLarge)
		return
	}

	if h.secret != "" && !validSignature(h.secret, body, r.Header.Get("X-Signature")) {
		logger.WarnContext(r.Context(), "Rejected event with invalid signature", "remote_addr", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	raw, ok := decodeObject(body)
	if !ok {
		// not a structured event, nothing to review
		logger.DebugContext(r.Context(), "Ignored non-object event payload", "size", len(body))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.submitter.Submit(domain.Event{
		ID:  uuid.NewString(),
		Raw: raw,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth reports liveness
func (h *EventHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RegisterEventRoutes registers the event webhook and health endpoints
func RegisterEventRoutes(router *mux.Router, eventPath string, submitter EventSubmitter, secret string) {
	handler := NewEventHandler(submitter, secret)
	router.HandleFunc(eventPath, handler.HandleEvent).Methods("POST")
	router.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")
}

func decodeObject(body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, false
	}
	return raw, true
}

// validSignature checks "sha1=<hex hmac>" as sent by OneBot v11 backends
func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha1=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
