package turn

import (
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"

	"chatdesk/internal/models"
)

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ImageExtractor inlines the raw image bytes as a base64 data URL.
type ImageExtractor struct{}

func (ImageExtractor) Extract(file UploadedFile) (Extraction, error) {
	mimeType, ok := imageMimeTypes[strings.ToLower(filepath.Ext(file.Name))]
	if !ok {
		return Extraction{}, errors.New("unknown image type")
	}
	if len(file.Data) == 0 {
		return Extraction{}, errors.New("empty image")
	}
	data := make([]byte, len(file.Data))
	copy(data, file.Data)
	return Extraction{
		Part: models.ImagePart{URL: DataURL(mimeType, file.Data)},
		Attachment: &models.AttachmentRef{
			Name:     file.Name,
			MimeType: mimeType,
			Data:     data,
		},
	}, nil
}

// DataURL encodes data as an RFC 2397 base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
