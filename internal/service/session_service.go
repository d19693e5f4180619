// Package service exposes the conversation sessions over a JSON HTTP API.
package service

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Aadesh-Ghodke/splitsmart/internal/session"
)

// maxReceiptBytes caps uploaded receipt images (10MB, matching the UI).
const maxReceiptBytes = 10 << 20

// SessionService handles the session lifecycle: create, upload a receipt,
// send chat messages, read state, reset.
type SessionService struct {
	sessions *session.Manager
}

// NewSessionService creates the service backed by the given registry.
func NewSessionService(sessions *session.Manager) *SessionService {
	return &SessionService{sessions: sessions}
}

// Register mounts the API routes on the router.
func (s *SessionService) Register(r *mux.Router) {
	r.HandleFunc("/api/sessions", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/receipt", s.handleUploadReceipt).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/messages", s.handleSendMessage).Methods(http.MethodPost)
}

func (s *SessionService) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	slog.Info("Session created", "session_id", sess.ID())
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *SessionService) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *SessionService) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *SessionService) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("expected multipart form with a receipt file"))
		return
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing receipt file"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		writeError(w, http.StatusBadRequest, errors.New("receipt must be an image"))
		return
	}

	snap, err := sess.UploadReceipt(r.Context(), image, mimeType)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *SessionService) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	// A failed interpretation turn is a normal outcome: the session keeps
	// its bill and the snapshot carries the apology message.
	snap, err := sess.SendMessage(r.Context(), req.Text)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoBill), errors.Is(err, session.ErrBillPresent):
		return http.StatusConflict
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		// Extraction failures and the like: the upstream service could
		// not produce a usable result.
		return http.StatusBadGateway
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
