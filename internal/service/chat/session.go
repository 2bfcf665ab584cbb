package chat

import (
	"sync"
	"time"

	"chatdesk/internal/models"
)

// Session owns one visitor's transcript. It lives in process memory only and
// is dropped on reset or idle expiry.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	transcript []*models.Message
}

// NewSession seeds the transcript with the system instruction.
func NewSession(id, systemPrompt string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		transcript: []*models.Message{{
			Role:      models.RoleSystem,
			Content:   systemPrompt,
			CreatedAt: now,
		}},
	}
}

// Transcript returns a copy of the transcript slice. Entries are shared and
// must be treated as read-only.
func (s *Session) Transcript() []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Len reports the number of transcript entries, system message included.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

// Unanswered reports whether the last entry is a user message without reply.
func (s *Session) Unanswered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.transcript)
	return n > 0 && s.transcript[n-1].Role == models.RoleUser
}

func (s *Session) append(msg *models.Message) {
	s.mu.Lock()
	s.transcript = append(s.transcript, msg)
	s.mu.Unlock()
}
