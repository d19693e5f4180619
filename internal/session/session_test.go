package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aadesh-Ghodke/splitsmart/internal/llm"
	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

// fakeLLM is a scripted inference client.
type fakeLLM struct {
	extractFn   func(ctx context.Context, image []byte, mimeType string) (*models.Bill, error)
	interpretFn func(ctx context.Context, bill *models.Bill, text string) (*llm.Interpretation, error)
}

func (f *fakeLLM) ExtractBill(ctx context.Context, image []byte, mimeType string) (*models.Bill, error) {
	return f.extractFn(ctx, image, mimeType)
}

func (f *fakeLLM) InterpretCommand(ctx context.Context, bill *models.Bill, text string) (*llm.Interpretation, error) {
	return f.interpretFn(ctx, bill, text)
}

func extractedBill() *models.Bill {
	return &models.Bill{
		Items: []models.BillItem{
			{ID: "i1", Description: "Burger", Price: 10, AssignedTo: []string{}},
			{ID: "i2", Description: "Wine", Price: 20, AssignedTo: []string{}},
		},
		Subtotal: 30,
		Tax:      3,
		Tip:      5,
		Total:    38,
		Currency: "$",
	}
}

func readySession(t *testing.T, client *fakeLLM) *Session {
	t.Helper()
	if client.extractFn == nil {
		client.extractFn = func(context.Context, []byte, string) (*models.Bill, error) {
			return extractedBill(), nil
		}
	}
	s := New("test-session", client)
	if _, err := s.UploadReceipt(context.Background(), []byte("jpeg bytes"), "image/jpeg"); err != nil {
		t.Fatalf("UploadReceipt failed: %v", err)
	}
	return s
}

func TestUploadReceipt(t *testing.T) {
	s := readySession(t, &fakeLLM{})

	snap := s.Snapshot()
	if snap.State != StateReady {
		t.Errorf("state = %s, want %s", snap.State, StateReady)
	}
	if snap.Bill == nil || len(snap.Bill.Items) != 2 {
		t.Fatalf("bill = %+v, want two items", snap.Bill)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Role != models.RoleAssistant {
		t.Fatalf("messages = %+v, want one assistant summary", snap.Messages)
	}
	if len(snap.Allocation.Unassigned) != 2 {
		t.Errorf("unassigned = %d, want 2 (nothing assigned yet)", len(snap.Allocation.Unassigned))
	}
}

func TestUploadReceiptFailureStaysEmpty(t *testing.T) {
	s := New("test-session", &fakeLLM{
		extractFn: func(context.Context, []byte, string) (*models.Bill, error) {
			return nil, errors.New("blurry image")
		},
	})

	_, err := s.UploadReceipt(context.Background(), []byte("junk"), "image/jpeg")
	if err == nil {
		t.Fatal("UploadReceipt succeeded on extraction failure")
	}

	snap := s.Snapshot()
	if snap.State != StateEmpty || snap.Bill != nil {
		t.Errorf("state = %s, bill = %v; want empty session with no partial bill", snap.State, snap.Bill)
	}
	// A failed upload can be retried.
	s.llm.(*fakeLLM).extractFn = func(context.Context, []byte, string) (*models.Bill, error) {
		return extractedBill(), nil
	}
	if _, err := s.UploadReceipt(context.Background(), []byte("better"), "image/jpeg"); err != nil {
		t.Fatalf("retry after failure did not work: %v", err)
	}
}

func TestUploadReceiptClearsModelAssignments(t *testing.T) {
	s := New("test-session", &fakeLLM{
		extractFn: func(context.Context, []byte, string) (*models.Bill, error) {
			b := extractedBill()
			b.Items[0].AssignedTo = []string{"Ghost"}
			return b, nil
		},
	})

	snap, err := s.UploadReceipt(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("UploadReceipt failed: %v", err)
	}
	if len(snap.Bill.Items[0].AssignedTo) != 0 {
		t.Errorf("fresh bill kept assignments %v", snap.Bill.Items[0].AssignedTo)
	}
}

func TestSecondUploadRejected(t *testing.T) {
	s := readySession(t, &fakeLLM{})
	_, err := s.UploadReceipt(context.Background(), []byte("img"), "image/jpeg")
	if !errors.Is(err, ErrBillPresent) {
		t.Errorf("second upload error = %v, want ErrBillPresent", err)
	}
}

func TestSendMessageAppliesValidatedUpdate(t *testing.T) {
	client := &fakeLLM{
		interpretFn: func(_ context.Context, bill *models.Bill, _ string) (*llm.Interpretation, error) {
			candidate := bill.Clone()
			candidate.Items[0].AssignedTo = []string{"Tom"}
			candidate.Items[1].AssignedTo = []string{"Tom", "Amy"}
			return &llm.Interpretation{
				Candidate:    candidate,
				ResponseText: "Got it, Tom had the burger and shared the wine with Amy.",
			}, nil
		},
	}
	s := readySession(t, client)

	snap, err := s.SendMessage(context.Background(), "Tom had the burger, Tom and Amy shared the wine")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if snap.State != StateReady {
		t.Errorf("state = %s, want %s", snap.State, StateReady)
	}
	// welcome + user + assistant confirmation
	if len(snap.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(snap.Messages))
	}
	if snap.Messages[1].Role != models.RoleUser || snap.Messages[2].Role != models.RoleAssistant {
		t.Errorf("message roles = %s, %s", snap.Messages[1].Role, snap.Messages[2].Role)
	}

	if len(snap.Allocation.People) != 2 {
		t.Fatalf("got %d people, want 2", len(snap.Allocation.People))
	}
	tom := snap.Allocation.People[0]
	if tom.Name != "Tom" {
		t.Fatalf("first person = %q, want Tom", tom.Name)
	}
	if diff := tom.TotalOwed - 25.33; diff > 0.01 || diff < -0.01 {
		t.Errorf("Tom owes %.2f, want 25.33", tom.TotalOwed)
	}
}

func TestSendMessageFailureKeepsBillAndApologizes(t *testing.T) {
	tests := []struct {
		name        string
		interpretFn func(ctx context.Context, bill *models.Bill, text string) (*llm.Interpretation, error)
	}{
		{
			name: "interpretation error",
			interpretFn: func(context.Context, *models.Bill, string) (*llm.Interpretation, error) {
				return nil, errors.New("model timeout")
			},
		},
		{
			name: "validation failure",
			interpretFn: func(_ context.Context, bill *models.Bill, _ string) (*llm.Interpretation, error) {
				candidate := bill.Clone()
				candidate.Items = candidate.Items[:1] // drops an item
				return &llm.Interpretation{Candidate: candidate, ResponseText: "Done!"}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readySession(t, &fakeLLM{interpretFn: tt.interpretFn})
			before := s.Snapshot()

			snap, err := s.SendMessage(context.Background(), "Tom had everything")
			if err != nil {
				t.Fatalf("SendMessage returned hard error: %v", err)
			}

			if snap.State != StateReady {
				t.Errorf("state = %s, want %s", snap.State, StateReady)
			}
			// Optimistic user message plus the apology, nothing edited.
			if len(snap.Messages) != len(before.Messages)+2 {
				t.Fatalf("got %d messages, want %d", len(snap.Messages), len(before.Messages)+2)
			}
			last := snap.Messages[len(snap.Messages)-1]
			if last.Role != models.RoleAssistant || last.Text != apologyText {
				t.Errorf("last message = %+v, want apology", last)
			}
			for i := range snap.Bill.Items {
				if len(snap.Bill.Items[i].AssignedTo) != len(before.Bill.Items[i].AssignedTo) {
					t.Error("bill changed on a failed turn")
				}
			}
		})
	}
}

func TestSendMessageSilentPriceDriftReverted(t *testing.T) {
	client := &fakeLLM{
		interpretFn: func(_ context.Context, bill *models.Bill, _ string) (*llm.Interpretation, error) {
			candidate := bill.Clone()
			candidate.Items[0].AssignedTo = []string{"Tom"}
			candidate.Items[0].Price = 99 // model noise, no correction signal
			return &llm.Interpretation{Candidate: candidate, ResponseText: "Assigned!"}, nil
		},
	}
	s := readySession(t, client)

	snap, err := s.SendMessage(context.Background(), "Tom had the burger")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	item := snap.Bill.Item("i1")
	if item.Price != 10 {
		t.Errorf("price = %v, want reverted 10", item.Price)
	}
	if len(item.AssignedTo) != 1 || item.AssignedTo[0] != "Tom" {
		t.Errorf("assignedTo = %v, want [Tom]", item.AssignedTo)
	}
}

func TestSendMessageCorrectionApplied(t *testing.T) {
	client := &fakeLLM{
		interpretFn: func(_ context.Context, bill *models.Bill, _ string) (*llm.Interpretation, error) {
			candidate := bill.Clone()
			candidate.Items[0].Price = 12.5
			candidate.Subtotal = 32.5
			candidate.Total = 40.5
			return &llm.Interpretation{
				Candidate:    candidate,
				ResponseText: "Updated the burger to $12.50.",
				Correction:   true,
			}, nil
		},
	}
	s := readySession(t, client)

	snap, err := s.SendMessage(context.Background(), "actually the burger was 12.50")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if got := snap.Bill.Item("i1").Price; got != 12.5 {
		t.Errorf("price = %v, want corrected 12.5", got)
	}
}

func TestSendMessageWithoutBill(t *testing.T) {
	s := New("test-session", &fakeLLM{})
	_, err := s.SendMessage(context.Background(), "hello?")
	if !errors.Is(err, ErrNoBill) {
		t.Errorf("error = %v, want ErrNoBill", err)
	}
}

func TestSendMessageWhileUpdatingRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &fakeLLM{
		interpretFn: func(_ context.Context, bill *models.Bill, _ string) (*llm.Interpretation, error) {
			close(started)
			<-release
			return &llm.Interpretation{Candidate: bill.Clone(), ResponseText: "Done."}, nil
		},
	}
	s := readySession(t, client)

	done := make(chan error, 1)
	go func() {
		_, err := s.SendMessage(context.Background(), "first message")
		done <- err
	}()

	<-started
	if _, err := s.SendMessage(context.Background(), "second message"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent SendMessage error = %v, want ErrBusy", err)
	}
	if _, err := s.UploadReceipt(context.Background(), []byte("img"), "image/jpeg"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent UploadReceipt error = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first SendMessage failed: %v", err)
	}
	if got := s.Snapshot().State; got != StateReady {
		t.Errorf("state after turn = %s, want %s", got, StateReady)
	}
}

func TestSnapshotIsCallerOwned(t *testing.T) {
	s := readySession(t, &fakeLLM{})

	snap := s.Snapshot()
	snap.Bill.Items[0].Price = 1234
	snap.Messages[0].Text = "tampered"

	fresh := s.Snapshot()
	if fresh.Bill.Items[0].Price == 1234 || fresh.Messages[0].Text == "tampered" {
		t.Error("Snapshot exposes the session's internal state")
	}
}

func TestTransition(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StateEmpty, StateAnalyzing},
		{StateAnalyzing, StateReady},
		{StateAnalyzing, StateEmpty},
		{StateReady, StateUpdating},
		{StateUpdating, StateReady},
	}
	for _, tr := range allowed {
		if err := transition(tr.from, tr.to); err != nil {
			t.Errorf("transition(%s, %s) = %v, want nil", tr.from, tr.to, err)
		}
	}

	disallowed := []struct{ from, to State }{
		{StateEmpty, StateReady},
		{StateEmpty, StateUpdating},
		{StateReady, StateAnalyzing},
		{StateReady, StateEmpty},
		{StateUpdating, StateEmpty},
		{StateUpdating, StateAnalyzing},
	}
	for _, tr := range disallowed {
		if err := transition(tr.from, tr.to); err == nil {
			t.Errorf("transition(%s, %s) succeeded, want error", tr.from, tr.to)
		}
	}
}

func TestManager(t *testing.T) {
	m := NewManager(&fakeLLM{})

	s := m.Create()
	if s.ID() == "" {
		t.Fatal("Create returned session without ID")
	}

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Errorf("Get = %v, %v; want the created session", got, err)
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}

	m.Delete(s.ID())
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(&fakeLLM{
		extractFn: func(context.Context, []byte, string) (*models.Bill, error) {
			return extractedBill(), nil
		},
	})

	a := m.Create()
	b := m.Create()

	if _, err := a.UploadReceipt(context.Background(), []byte("img"), "image/jpeg"); err != nil {
		t.Fatalf("UploadReceipt failed: %v", err)
	}

	if got := b.Snapshot().State; got != StateEmpty {
		t.Errorf("session b state = %s, want untouched %s", got, StateEmpty)
	}
}

func TestMessageTimestampsUseClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := readySession(t, &fakeLLM{})
	s.now = func() time.Time { return fixed }

	s.llm.(*fakeLLM).interpretFn = func(_ context.Context, bill *models.Bill, _ string) (*llm.Interpretation, error) {
		return &llm.Interpretation{Candidate: bill.Clone(), ResponseText: "Noted."}, nil
	}
	snap, err := s.SendMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	last := snap.Messages[len(snap.Messages)-1]
	if !last.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", last.Timestamp, fixed)
	}
	for i, msg := range snap.Messages {
		if msg.ID == "" {
			t.Errorf("message %d has no ID", i)
		}
	}
}
