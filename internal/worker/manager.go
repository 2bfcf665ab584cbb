package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
	"chatdesk/internal/service/chat"
	"chatdesk/internal/service/turn"
)

var (
	// ErrSessionBusy rejects a submit while the session still has a turn in flight.
	ErrSessionBusy = errors.New("a turn is already in progress for this session")
	// ErrSessionClosed is returned when the session was reset or expired
	// before the turn was picked up.
	ErrSessionClosed = errors.New("session closed")
	ErrManagerClosed = errors.New("worker manager closed")
)

const defaultIdleTimeout = time.Hour

// TurnRunner runs one turn against a session.
type TurnRunner interface {
	Submit(ctx context.Context, sess *chat.Session, text string, file *turn.UploadedFile) *chat.TurnResult
}

type Config struct {
	SystemPrompt string
	IdleTimeout  time.Duration
	Logger       logrus.FieldLogger
}

// Manager keeps one worker goroutine per live session. Turns of a session run
// strictly one at a time; idle sessions are destroyed by a purge loop.
type Manager struct {
	runner       TurnRunner
	systemPrompt string
	idle         time.Duration
	logger       logrus.FieldLogger
	now          func() time.Time

	mu      sync.Mutex
	workers map[string]*sessionState
	closed  bool

	quit      chan struct{}
	closeOnce sync.Once
}

func NewManager(runner TurnRunner, cfg Config) *Manager {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	m := &Manager{
		runner:       runner,
		systemPrompt: cfg.SystemPrompt,
		idle:         idle,
		logger:       logger,
		now:          time.Now,
		workers:      make(map[string]*sessionState),
		quit:         make(chan struct{}),
	}
	go m.purgeStaleSessions()
	return m
}

// Submit hands the turn to the session's worker and waits for the result.
// It never queues: a second submit during a running turn gets ErrSessionBusy.
func (m *Manager) Submit(req TurnRequest) (*chat.TurnResult, error) {
	state, err := m.ensureWorker(req.SessionID)
	if err != nil {
		return nil, err
	}
	if !state.busy.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}

	resultCh := make(chan *chat.TurnResult, 1)
	select {
	case state.taskCh <- turnTask{req: req, resultCh: resultCh}:
	case <-state.stopCh:
		state.busy.Store(false)
		return nil, ErrSessionClosed
	}
	return <-resultCh, nil
}

// Transcript returns a copy of the session transcript, or nil when the
// session does not exist.
func (m *Manager) Transcript(sessionID string) []*models.Message {
	m.mu.Lock()
	state := m.workers[sessionID]
	m.mu.Unlock()
	if state == nil {
		return nil
	}
	return state.session.Transcript()
}

// Reset destroys the session immediately. A turn already running finishes
// against the discarded transcript.
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	state, ok := m.workers[sessionID]
	delete(m.workers, sessionID)
	m.mu.Unlock()
	if ok {
		state.stop()
		m.logger.WithField("session", sessionID).Info("session reset")
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// Close stops the purge loop and every worker.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.quit)
		m.mu.Lock()
		m.closed = true
		workers := m.workers
		m.workers = make(map[string]*sessionState)
		m.mu.Unlock()
		for _, state := range workers {
			state.stop()
		}
	})
}

func (m *Manager) ensureWorker(sessionID string) (*sessionState, error) {
	if sessionID == "" {
		return nil, errors.New("session id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	if state, ok := m.workers[sessionID]; ok {
		return state, nil
	}

	state := newSessionState(chat.NewSession(sessionID, m.systemPrompt), m.now())
	m.workers[sessionID] = state
	go m.runWorker(sessionID, state)
	m.logger.WithField("session", sessionID).Debug("session worker started")
	return state, nil
}

func (m *Manager) runWorker(sessionID string, state *sessionState) {
	for {
		select {
		case <-state.stopCh:
			m.logger.WithField("session", sessionID).Debug("session worker stopped")
			return
		case task := <-state.taskCh:
			ctx := task.req.Context
			if ctx == nil {
				ctx = context.Background()
			}
			res := m.runner.Submit(ctx, state.session, task.req.Text, task.req.File)
			state.touch(m.now())
			state.busy.Store(false)
			task.resultCh <- res
		}
	}
}

// purgeStaleSessions calls purgeExpired on every tick until Close.
func (m *Manager) purgeStaleSessions() {
	interval := m.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.purgeExpired(m.now())
		}
	}
}

// purgeExpired retires every session idle for at least the idle timeout.
// Sessions with a turn in flight are kept.
func (m *Manager) purgeExpired(now time.Time) int {
	var stale []*sessionState
	m.mu.Lock()
	for id, state := range m.workers {
		if state.busy.Load() {
			continue
		}
		if now.Sub(state.idleSince()) >= m.idle {
			delete(m.workers, id)
			stale = append(stale, state)
		}
	}
	m.mu.Unlock()

	for _, state := range stale {
		state.stop()
		m.logger.WithField("session", state.session.ID).Info("idle session expired")
	}
	return len(stale)
}
