// Package session orchestrates turn-taking for one bill-splitting
// conversation: it owns the canonical bill and the append-only chat
// history, talks to the inference service, and applies validated updates
// atomically.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aadesh-Ghodke/splitsmart/internal/calculator"
	"github.com/Aadesh-Ghodke/splitsmart/internal/llm"
	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
	"github.com/Aadesh-Ghodke/splitsmart/internal/validator"
)

var (
	// ErrBusy: an extraction or update is already in flight. The caller
	// should retry after the current turn resolves.
	ErrBusy = errors.New("session is processing another request")

	// ErrNoBill: a message arrived before any receipt was uploaded.
	ErrNoBill = errors.New("session has no bill yet")

	// ErrBillPresent: a second receipt upload on a session that already
	// holds a bill. Start a fresh session instead.
	ErrBillPresent = errors.New("session already has a bill")
)

// apologyText is appended when interpretation or validation fails; the
// bill is left exactly as it was before the turn.
const apologyText = "Sorry, I had trouble updating the bill. Could you try rephrasing that?"

// Snapshot is a point-in-time, caller-owned view of a session. Bill and
// Messages are deep copies; Allocation is freshly computed.
type Snapshot struct {
	ID         string                `json:"sessionId"`
	State      State                 `json:"state"`
	Bill       *models.Bill          `json:"bill,omitempty"`
	Allocation calculator.Allocation `json:"allocation"`
	Warnings   []string              `json:"warnings,omitempty"`
	Messages   []models.ChatMessage  `json:"messages"`
}

// Session holds one conversation's state. It processes one external call
// at a time: submissions while a call is in flight fail with ErrBusy.
// All methods are safe for concurrent use.
type Session struct {
	id  string
	llm llm.Client
	now func() time.Time

	mu       sync.Mutex
	state    State
	bill     *models.Bill
	messages []models.ChatMessage
}

// New creates an empty session backed by the given inference client.
func New(id string, client llm.Client) *Session {
	return &Session{
		id:    id,
		llm:   client,
		now:   time.Now,
		state: StateEmpty,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UploadReceipt runs extraction on a receipt image and, on success,
// installs the resulting bill and appends the initial assistant summary.
// On failure the session stays Empty and no partial bill is ever installed.
func (s *Session) UploadReceipt(ctx context.Context, image []byte, mimeType string) (Snapshot, error) {
	if err := s.begin(StateEmpty, StateAnalyzing); err != nil {
		return Snapshot{}, err
	}

	log := slog.With("session_id", s.id)
	log.Info("Receipt extraction started", "mime_type", mimeType, "bytes", len(image))

	bill, err := s.llm.ExtractBill(ctx, image, mimeType)
	if err == nil {
		err = validator.ValidateStructure(bill)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		log.Warn("Receipt extraction failed", "error", err)
		s.state = StateEmpty
		return Snapshot{}, fmt.Errorf("extraction failed: %w", err)
	}

	// Extraction must hand over an unassigned bill.
	for i := range bill.Items {
		bill.Items[i].AssignedTo = []string{}
	}

	s.bill = bill
	s.state = StateReady
	s.append(models.RoleAssistant, fmt.Sprintf(
		"I've analyzed your receipt! I found %d items totaling %s%.2f. "+
			"Tell me who had what (e.g., \"Mike had the steak\" or \"Alice and Bob shared the wine\").",
		len(bill.Items), bill.Currency, bill.Total))

	log.Info("Receipt extracted", "items", len(bill.Items), "total", bill.Total)
	return s.snapshotLocked(), nil
}

// SendMessage records the user's message, interprets it against the current
// bill, and commits the validated result. The user message is appended
// before the outcome is known and never edited; a failed turn appends an
// apology instead of changing the bill (atomic all-or-nothing per turn).
func (s *Session) SendMessage(ctx context.Context, text string) (Snapshot, error) {
	s.mu.Lock()
	if s.state.IsTransient() {
		s.mu.Unlock()
		return Snapshot{}, ErrBusy
	}
	if s.bill == nil {
		s.mu.Unlock()
		return Snapshot{}, ErrNoBill
	}
	if err := transition(s.state, StateUpdating); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	s.state = StateUpdating
	s.append(models.RoleUser, text)
	prev := s.bill.Clone()
	s.mu.Unlock()

	log := slog.With("session_id", s.id)
	log.Info("Interpreting command", "text", text)

	update, err := s.llm.InterpretCommand(ctx, prev, text)

	var next *models.Bill
	var drift []string
	if err == nil {
		next, drift, err = validator.Reconcile(prev, update.Candidate, update.Correction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady

	if err != nil {
		// Interpretation and validation failures are normal outcomes:
		// keep the bill untouched and tell the user to try again.
		log.Warn("Turn failed, bill unchanged", "error", err)
		s.append(models.RoleAssistant, apologyText)
		return s.snapshotLocked(), nil
	}

	s.bill = next
	s.append(models.RoleAssistant, update.ResponseText)
	log.Info("Bill updated", "drift", len(drift), "correction", update.Correction)
	return s.snapshotLocked(), nil
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// begin moves the session into a transient state, distinguishing "busy"
// from "wrong stable state" for the caller.
func (s *Session) begin(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsTransient() {
		return ErrBusy
	}
	if s.state != from {
		if from == StateEmpty {
			return ErrBillPresent
		}
		return fmt.Errorf("session is %s, expected %s", s.state, from)
	}
	if err := transition(from, to); err != nil {
		return err
	}
	s.state = to
	return nil
}

// append adds a message to the history. Caller holds s.mu.
func (s *Session) append(role models.Role, text string) {
	s.messages = append(s.messages, models.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: s.now(),
	})
}

// snapshotLocked builds a caller-owned view. Caller holds s.mu.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:       s.id,
		State:    s.state,
		Bill:     s.bill.Clone(),
		Messages: append([]models.ChatMessage(nil), s.messages...),
	}
	if snap.Bill != nil {
		snap.Allocation = calculator.Allocate(snap.Bill)
		snap.Warnings = calculator.CheckTotals(snap.Bill)
	}
	return snap
}
