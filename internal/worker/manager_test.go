package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chatdesk/internal/models"
	"chatdesk/internal/service/chat"
	"chatdesk/internal/service/turn"
)

// blockingRunner appends a fake reply and optionally waits on release.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (r *blockingRunner) Submit(ctx context.Context, sess *chat.Session, text string, file *turn.UploadedFile) *chat.TurnResult {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return &chat.TurnResult{State: models.TurnAppended, Reply: "echo: " + text}
}

func newTestManager(runner TurnRunner) *Manager {
	return NewManager(runner, Config{SystemPrompt: "be helpful", IdleTimeout: time.Hour})
}

func TestManagerSubmitSequential(t *testing.T) {
	runner := &blockingRunner{}
	m := newTestManager(runner)
	defer m.Close()

	for i := 0; i < 3; i++ {
		res, err := m.Submit(TurnRequest{SessionID: "s1", Text: "hi"})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if res.Reply != "echo: hi" {
			t.Fatalf("unexpected reply %q", res.Reply)
		}
	}
	if runner.calls != 3 {
		t.Fatalf("expected 3 turns, got %d", runner.calls)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one live session, got %d", m.Len())
	}
}

func TestManagerRejectsConcurrentTurn(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	m := newTestManager(runner)
	defer m.Close()

	done := make(chan error, 1)
	go func() {
		_, err := m.Submit(TurnRequest{SessionID: "s1", Text: "first"})
		done <- err
	}()
	<-runner.started

	if _, err := m.Submit(TurnRequest{SessionID: "s1", Text: "second"}); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	// Other sessions are unaffected.
	otherDone := make(chan error, 1)
	go func() {
		_, err := m.Submit(TurnRequest{SessionID: "s2", Text: "other"})
		otherDone <- err
	}()
	<-runner.started
	close(runner.release)

	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := <-otherDone; err != nil {
		t.Fatalf("other session submit: %v", err)
	}
}

func TestManagerTranscriptAndReset(t *testing.T) {
	m := newTestManager(&blockingRunner{})
	defer m.Close()

	if got := m.Transcript("missing"); got != nil {
		t.Fatalf("unknown session should have no transcript: %#v", got)
	}
	if _, err := m.Submit(TurnRequest{SessionID: "s1", Text: "hi"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tr := m.Transcript("s1")
	if len(tr) != 1 || tr[0].Role != models.RoleSystem || tr[0].Content != "be helpful" {
		t.Fatalf("expected seeded system message, got %#v", tr)
	}

	m.Reset("s1")
	if m.Transcript("s1") != nil || m.Len() != 0 {
		t.Fatalf("reset should destroy the session")
	}
	m.Reset("s1")
}

func TestManagerPurgeExpired(t *testing.T) {
	m := newTestManager(&blockingRunner{})
	defer m.Close()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	if _, err := m.Submit(TurnRequest{SessionID: "old", Text: "hi"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	m.now = func() time.Time { return base.Add(50 * time.Minute) }
	if _, err := m.Submit(TurnRequest{SessionID: "fresh", Text: "hi"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if n := m.purgeExpired(base.Add(61 * time.Minute)); n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if m.Transcript("old") != nil {
		t.Fatalf("old session should be gone")
	}
	if m.Transcript("fresh") == nil {
		t.Fatalf("fresh session should survive")
	}
}

func TestManagerClose(t *testing.T) {
	m := newTestManager(&blockingRunner{})
	if _, err := m.Submit(TurnRequest{SessionID: "s1", Text: "hi"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	m.Close()
	m.Close()
	if _, err := m.Submit(TurnRequest{SessionID: "s1", Text: "hi"}); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}
