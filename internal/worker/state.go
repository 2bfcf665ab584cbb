package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chatdesk/internal/service/chat"
	"chatdesk/internal/service/turn"
)

// TurnRequest is one submission for a session.
type TurnRequest struct {
	Context   context.Context
	SessionID string
	Text      string
	File      *turn.UploadedFile
}

type turnTask struct {
	req      TurnRequest
	resultCh chan *chat.TurnResult
}

// sessionState is the live worker for one session.
type sessionState struct {
	session *chat.Session
	taskCh  chan turnTask
	stopCh  chan struct{}

	busy atomic.Bool

	mu         sync.Mutex
	lastActive time.Time
	stopped    bool
}

func newSessionState(session *chat.Session, now time.Time) *sessionState {
	return &sessionState{
		session:    session,
		taskCh:     make(chan turnTask),
		stopCh:     make(chan struct{}),
		lastActive: now,
	}
}

func (s *sessionState) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *sessionState) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// stop is idempotent.
func (s *sessionState) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
}
