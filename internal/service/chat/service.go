package chat

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
	"chatdesk/internal/service/ai"
	"chatdesk/internal/service/completion"
	"chatdesk/internal/service/turn"
)

// Sender is the completion call used for a turn.
type Sender interface {
	Send(ctx context.Context, transcript []*models.Message, latest []models.ContentPart) (string, error)
}

// Journal records finished turns. A nil Journal disables recording.
type Journal interface {
	Record(ctx context.Context, event models.TurnEvent) error
}

// TurnResult is the outcome of one Submit.
type TurnResult struct {
	State   models.TurnState
	Notices []turn.Notice
	Reply   string
	Err     error
}

// Service drives the per-turn state machine. Callers must not run two turns
// on the same session concurrently; the worker manager guarantees that.
type Service struct {
	builder *turn.Builder
	sender  Sender
	journal Journal
	logger  logrus.FieldLogger
}

func NewService(builder *turn.Builder, sender Sender, journal Journal, logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{builder: builder, sender: sender, journal: journal, logger: logger}
}

// Submit runs one turn: validate, build, append the user entry, send, and
// append the reply. Blocked turns never touch the transcript; failed sends
// leave the user entry unanswered.
func (s *Service) Submit(ctx context.Context, sess *Session, text string, file *turn.UploadedFile) *TurnResult {
	start := time.Now()
	res := &TurnResult{State: models.TurnValidating}

	built, err := s.builder.BuildTurn(text, file)
	if err == nil && len(built.Parts) == 0 {
		err = turn.ErrNoContent
	}
	res.Notices = built.Notices
	if err != nil {
		res.State = models.TurnBlocked
		res.Err = err
		s.finish(ctx, sess, file, built, res, start)
		return res
	}

	res.State = models.TurnBuilding
	sess.append(&models.Message{
		Role:       models.RoleUser,
		Content:    built.DisplayText,
		Attachment: built.Attachment,
		CreatedAt:  time.Now(),
	})

	res.State = models.TurnSending
	reply, err := s.sender.Send(ctx, sess.Transcript(), built.Parts)
	if err != nil {
		res.State = models.TurnFailedNoAppend
		res.Err = err
		s.finish(ctx, sess, file, built, res, start)
		return res
	}

	sess.append(&models.Message{
		Role:      models.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	})
	res.State = models.TurnAppended
	res.Reply = reply
	s.finish(ctx, sess, file, built, res, start)
	return res
}

func (s *Service) finish(ctx context.Context, sess *Session, file *turn.UploadedFile, built turn.Turn, res *TurnResult, start time.Time) {
	event := models.TurnEvent{
		SessionID:  sess.ID,
		State:      res.State,
		DurationMS: time.Since(start).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if file != nil {
		event.FileKind = built.FileKind.String()
	}
	if res.Err != nil {
		event.ErrorKind = ErrorKind(res.Err)
		event.ErrorDetail = res.Err.Error()
	}

	entry := s.logger.WithFields(logrus.Fields{
		"session":     sess.ID,
		"state":       res.State,
		"duration_ms": event.DurationMS,
	})
	if event.FileKind != "" {
		entry = entry.WithField("file", event.FileKind)
	}
	switch {
	case res.Err == nil:
		entry.Info("turn completed")
	case res.State == models.TurnBlocked:
		entry.WithError(res.Err).Warn("turn blocked")
	default:
		entry.WithField("error_kind", event.ErrorKind).WithError(res.Err).Error("turn failed")
	}

	if s.journal == nil {
		return
	}
	if err := s.journal.Record(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WithError(err).WithField("session", sess.ID).Warn("record turn event failed")
	}
}

// ErrorKind classifies a turn error for logs, the journal and the JSON API.
func ErrorKind(err error) string {
	var (
		verr *turn.ValidationError
		perr *ai.ProviderError
		terr *completion.TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &perr):
		return "provider"
	case errors.Is(err, ai.ErrMalformedResponse):
		return "malformed_response"
	case errors.As(err, &terr):
		return "transport"
	default:
		return "internal"
	}
}
