package models

import "time"

// Message captures one entry of a session transcript.

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AttachmentRef keeps an uploaded image around for re-rendering. It is never
// sent to the provider again after the turn it was uploaded in.
type AttachmentRef struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"-"`
}
