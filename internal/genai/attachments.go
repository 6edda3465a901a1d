// internal/genai/attachments.go
package genai

import (
	"path/filepath"
	"strings"

	"pagesmith/internal/models"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
	".svg":  true,
}

// IsImage reports whether a filename looks like an image by extension.
// Anything else is treated as a generic document.
func IsImage(filename string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// AttachmentContent is an attachment reference classified for the model. The
// URL is handed over as-is; the model resolves it itself.
type AttachmentContent struct {
	Type string `json:"type"` // "image_url" or "document_url"
	URL  string `json:"url"`
}

// ClassifyAttachments maps attachment references to typed content references.
func ClassifyAttachments(attachments []models.Attachment) []AttachmentContent {
	out := make([]AttachmentContent, 0, len(attachments))
	for _, att := range attachments {
		kind := "document_url"
		if IsImage(att.Name) {
			kind = "image_url"
		}
		out = append(out, AttachmentContent{Type: kind, URL: att.URL})
	}
	return out
}
