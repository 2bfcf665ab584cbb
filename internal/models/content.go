package models

// ContentPart is one typed unit of the current user turn as sent to the
// provider. The set of variants is closed: TextPart and ImagePart.
type ContentPart interface {
	contentPart()
}

// TextPart carries plain text, either typed by the user or extracted from a file.
type TextPart struct {
	Text string
}

// ImagePart references an image through a data URL.
type ImagePart struct {
	URL string
}

func (TextPart) contentPart()  {}
func (ImagePart) contentPart() {}
