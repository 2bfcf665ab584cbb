package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chatdesk/internal/models"
	"chatdesk/internal/service/chat"
	"chatdesk/internal/service/turn"
	"chatdesk/internal/worker"
)

const (
	sessionCookie      = "chatdesk_session"
	defaultUploadBytes = 10 << 20 // 10 MB
	journalLimit       = 20
)

var errUploadTooLarge = errors.New("file too large")

type WorkerManager interface {
	Submit(worker.TurnRequest) (*chat.TurnResult, error)
	Transcript(sessionID string) []*models.Message
	Reset(sessionID string)
}

type JournalReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]*models.TurnEvent, error)
}

type Options struct {
	Title          string
	MaxUploadBytes int64
	Logger         logrus.FieldLogger
}

// Handler wires HTTP routes to the per-session workers.
type Handler struct {
	workers   WorkerManager
	journal   JournalReader
	title     string
	maxUpload int64
	logger    logrus.FieldLogger
}

// NewHandler constructs a Handler instance. journal may be nil.
func NewHandler(workers WorkerManager, journal JournalReader, opts Options) *Handler {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Handler{
		workers:   workers,
		journal:   journal,
		title:     opts.Title,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplate)
	router.GET("/", h.showPage)
	router.POST("/", h.submitPage)
	router.POST("/reset", h.resetSession)

	api := router.Group("/api")
	api.GET("/transcript", h.getTranscript)
	api.POST("/turns", h.submitTurn)
	api.GET("/journal", h.getJournal)
}

// sessionID returns the visitor's session id, issuing a new cookie when the
// request carries none or an invalid one.
func (h *Handler) sessionID(c *gin.Context) string {
	if v, err := c.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	return id
}

func (h *Handler) showPage(c *gin.Context) {
	id := h.sessionID(c)
	h.renderPage(c, http.StatusOK, id, nil, "")
}

func (h *Handler) submitPage(c *gin.Context) {
	id := h.sessionID(c)
	file, err := h.readUpload(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.renderPage(c, status, id, nil, err.Error())
		return
	}

	res, err := h.workers.Submit(worker.TurnRequest{
		Context:   c.Request.Context(),
		SessionID: id,
		Text:      c.PostForm("prompt"),
		File:      file,
	})
	if err != nil {
		h.renderPage(c, submitErrorStatus(err), id, nil, err.Error())
		return
	}

	notices := res.Notices
	var banner string
	var verr *turn.ValidationError
	switch {
	case res.Err == nil:
	case errors.As(res.Err, &verr):
		notices = append(notices, turn.Notice{Level: turn.NoticeWarning, Message: verr.Message})
	default:
		banner = fmt.Sprintf("An error occurred with the API call: %v", res.Err)
	}
	h.renderPage(c, http.StatusOK, id, notices, banner)
}

func (h *Handler) resetSession(c *gin.Context) {
	if v, err := c.Cookie(sessionCookie); err == nil {
		h.workers.Reset(v)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) getTranscript(c *gin.Context) {
	id := h.sessionID(c)
	transcript := h.workers.Transcript(id)
	out := make([]transcriptEntry, 0, len(transcript))
	for _, msg := range transcript {
		if msg.Role == models.RoleSystem {
			continue
		}
		out = append(out, newTranscriptEntry(msg))
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"messages":   out,
		"unanswered": unanswered(transcript),
	})
}

type turnResponse struct {
	State     models.TurnState `json:"state"`
	Reply     string           `json:"reply,omitempty"`
	Notices   []turn.Notice    `json:"notices"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
}

func (h *Handler) submitTurn(c *gin.Context) {
	id := h.sessionID(c)
	file, err := h.readUpload(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUploadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	res, err := h.workers.Submit(worker.TurnRequest{
		Context:   c.Request.Context(),
		SessionID: id,
		Text:      c.PostForm("prompt"),
		File:      file,
	})
	if err != nil {
		c.JSON(submitErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := turnResponse{
		State:   res.State,
		Reply:   res.Reply,
		Notices: res.Notices,
	}
	if resp.Notices == nil {
		resp.Notices = []turn.Notice{}
	}
	status := http.StatusOK
	if res.Err != nil {
		resp.Error = res.Err.Error()
		resp.ErrorKind = chat.ErrorKind(res.Err)
		status = turnErrorStatus(res.Err)
	}
	c.JSON(status, resp)
}

func (h *Handler) getJournal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	id := h.sessionID(c)
	limit := journalLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	events, err := h.journal.Recent(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.WithError(err).WithField("session", id).Error("load journal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load journal failed"})
		return
	}
	if events == nil {
		events = make([]*models.TurnEvent, 0)
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// readUpload returns the optional "file" form field fully read into memory.
func (h *Handler) readUpload(c *gin.Context) (*turn.UploadedFile, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, errUploadTooLarge
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, fmt.Errorf("invalid upload: %w", err)
		}
	}
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	if fh.Size > h.maxUpload {
		return nil, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > h.maxUpload {
		return nil, errUploadTooLarge
	}
	return &turn.UploadedFile{Name: filepath.Base(fh.Filename), Data: data}, nil
}

func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, worker.ErrSessionBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, worker.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func turnErrorStatus(err error) int {
	var verr *turn.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type transcriptEntry struct {
	Role       models.Role `json:"role"`
	Content    string      `json:"content"`
	Attachment string      `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func newTranscriptEntry(msg *models.Message) transcriptEntry {
	entry := transcriptEntry{Role: msg.Role, Content: msg.Content, CreatedAt: msg.CreatedAt}
	if msg.Attachment != nil {
		entry.Attachment = msg.Attachment.Name
	}
	return entry
}

func unanswered(transcript []*models.Message) bool {
	n := len(transcript)
	return n > 0 && transcript[n-1].Role == models.RoleUser
}
