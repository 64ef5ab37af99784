package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

const (
	maxAttachmentCount = 5
	maxAttachmentBytes = 10 << 20
)

// allowedAttachmentExtensions is the upload allow-list. Anything else is
// rejected before a single byte reaches blob storage.
var allowedAttachmentExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".xlsx": true,
	".zip":  true,
}

var allowedAttachmentContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

// validateAttachmentUpload enforces the per-file upload rules.
func validateAttachmentUpload(fileName, contentType string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedAttachmentExtensions[ext] {
		return errorutil.NewValidationError(
			fmt.Sprintf("file type %q is not allowed", ext),
			map[string]any{"file": fileName})
	}
	if contentType != "" && !allowedAttachmentContentTypes[contentType] {
		return errorutil.NewValidationError(
			fmt.Sprintf("content type %q is not allowed", contentType),
			map[string]any{"file": fileName})
	}
	if size > maxAttachmentBytes {
		return errorutil.NewValidationError(
			fmt.Sprintf("file %q exceeds the 10MB limit", fileName),
			map[string]any{"file": fileName, "size": size})
	}
	return nil
}
