package turn

import (
	"fmt"
	"strings"

	"chatdesk/internal/models"
)

// UploadedFile is an uploaded file fully read into memory.
type UploadedFile struct {
	Name string
	Data []byte
}

// NoticeLevel separates warnings from errors in the UI.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible message produced while building or sending a turn.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Turn is the result of building one user submission.
type Turn struct {
	DisplayText string
	Parts       []models.ContentPart
	Attachment  *models.AttachmentRef
	FileKind    FileKind
	Notices     []Notice
}

// Extraction is what an Extractor contributes for one file.
type Extraction struct {
	Part       models.ContentPart
	Attachment *models.AttachmentRef
}

// Extractor turns one file of its kind into a content part.
type Extractor interface {
	Extract(file UploadedFile) (Extraction, error)
}

// Builder builds turns. It holds no per-turn state.
type Builder struct {
	extractors map[FileKind]Extractor
}

// NewBuilder returns a Builder with the default extractor for every kind.
func NewBuilder() *Builder {
	return &Builder{extractors: map[FileKind]Extractor{
		KindSpreadsheet: SpreadsheetExtractor{},
		KindDocument:    NewDocumentExtractor(),
		KindImage:       ImageExtractor{},
	}}
}

// WithExtractor replaces the extractor for kind and returns the builder.
func (b *Builder) WithExtractor(kind FileKind, ex Extractor) *Builder {
	if ex != nil {
		b.extractors[kind] = ex
	}
	return b
}

// BuildTurn merges the prompt and an optional file into display text and
// provider parts. Only the both-empty case is an error; file failures are
// reported as notices and annotations.
func (b *Builder) BuildTurn(text string, file *UploadedFile) (Turn, error) {
	hasText := strings.TrimSpace(text) != ""
	if !hasText && file == nil {
		return Turn{}, ErrEmptyInput
	}

	var (
		t       Turn
		display []string
	)
	if hasText {
		t.Parts = append(t.Parts, models.TextPart{Text: text})
		display = append(display, text)
	}

	if file != nil {
		kind := Classify(file.Name)
		t.FileKind = kind
		ex, ok := b.extractors[kind]
		if kind == KindUnsupported || !ok {
			t.Notices = append(t.Notices, Notice{Level: NoticeWarning, Message: fmt.Sprintf("Unsupported file type: %s", file.Name)})
			display = append(display, fmt.Sprintf("(Unsupported file: %s)", file.Name))
		} else if res, err := safeExtract(ex, *file); err != nil {
			perr := &FileProcessingError{Kind: kind, Name: file.Name, Err: err}
			t.Notices = append(t.Notices, Notice{Level: NoticeError, Message: perr.Error()})
			display = append(display, fmt.Sprintf("(Failed to process %s: %s)", kind.Label(), file.Name))
		} else {
			t.Parts = append(t.Parts, res.Part)
			t.Attachment = res.Attachment
			display = append(display, fmt.Sprintf("(Attached %s: %s)", kind.Label(), file.Name))
		}
	}

	t.DisplayText = strings.TrimSpace(strings.Join(display, "\n"))
	return t, nil
}

// safeExtract converts parser panics into errors; the parsing libraries
// panic on some malformed inputs.
func safeExtract(ex Extractor, file UploadedFile) (res Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Extraction{}
			err = fmt.Errorf("%v", r)
		}
	}()
	res, err = ex.Extract(file)
	if err == nil && res.Part == nil {
		err = fmt.Errorf("no content produced")
	}
	return res, err
}
