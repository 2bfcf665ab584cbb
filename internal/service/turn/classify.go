package turn

import (
	"path/filepath"
	"strings"
)

// FileKind is the handling strategy chosen for an uploaded file.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindSpreadsheet
	KindDocument
	KindImage
)

func (k FileKind) String() string {
	switch k {
	case KindSpreadsheet:
		return "spreadsheet"
	case KindDocument:
		return "document"
	case KindImage:
		return "image"
	default:
		return "unsupported"
	}
}

// Label is the user-facing name of the kind used in annotations and errors.
func (k FileKind) Label() string {
	switch k {
	case KindSpreadsheet:
		return "Excel"
	case KindDocument:
		return "PDF"
	case KindImage:
		return "Image"
	default:
		return "file"
	}
}

// AcceptedExtensions lists the suffixes offered by the upload control.
var AcceptedExtensions = []string{".xlsx", ".xls", ".pdf", ".png", ".jpg", ".jpeg"}

// Classify picks the kind from the file name suffix, case-insensitively.
func Classify(name string) FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return KindSpreadsheet
	case ".pdf":
		return KindDocument
	case ".png", ".jpg", ".jpeg":
		return KindImage
	default:
		return KindUnsupported
	}
}
