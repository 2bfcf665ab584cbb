package api

import (
	"embed"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin"

	"chatdesk/internal/models"
	"chatdesk/internal/service/turn"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("").ParseFS(templateFS, "templates/index.html"))

const unansweredBanner = "The last message did not get a reply. Send it again to retry."

type pageEntry struct {
	Role           models.Role
	Content        string
	ImageURL       template.URL
	AttachmentName string
}

type pageData struct {
	Title   string
	Entries []pageEntry
	Notices []turn.Notice
	Error   string
	Accept  string
}

func (h *Handler) renderPage(c *gin.Context, status int, sessionID string, notices []turn.Notice, banner string) {
	transcript := h.workers.Transcript(sessionID)
	data := pageData{
		Title:   h.title,
		Notices: notices,
		Error:   banner,
		Accept:  strings.Join(turn.AcceptedExtensions, ","),
	}
	for _, msg := range transcript {
		if msg.Role == models.RoleSystem {
			continue
		}
		entry := pageEntry{Role: msg.Role, Content: msg.Content}
		if att := msg.Attachment; att != nil && strings.HasPrefix(att.MimeType, "image/") {
			// MimeType always comes from the image extension table
			entry.ImageURL = template.URL(turn.DataURL(att.MimeType, att.Data))
			entry.AttachmentName = att.Name
		}
		data.Entries = append(data.Entries, entry)
	}
	if data.Error == "" && unanswered(transcript) {
		data.Error = unansweredBanner
	}
	c.HTML(status, "index.html", data)
}
