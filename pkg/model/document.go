package model

import (
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
)

// BytesPerMB converts MaxFileSize to bytes.
const BytesPerMB = 1024 * 1024

// DocumentAnswer checks an uploaded file against the question's accepted types
// and size limit and returns the answer recorded for it: the file name, size
// in bytes and media type. An empty mediaType is derived from the extension.
func DocumentAnswer(q Question, name, mediaType string, size int64) (map[string]any, error) {
	name = filepath.Base(strings.TrimSpace(name))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if mediaType == "" && ext != "" {
		mediaType = mime.TypeByExtension("." + ext)
	}
	if len(q.FileTypes) > 0 && !acceptsType(q.FileTypes, ext, mediaType) {
		return nil, fmt.Errorf("%s must be one of %s", q.Label(), strings.Join(q.FileTypes, ", "))
	}
	if q.MaxFileSize > 0 && float64(size) > q.MaxFileSize*BytesPerMB {
		return nil, fmt.Errorf("%s must be at most %s MB", q.Label(), strconv.FormatFloat(q.MaxFileSize, 'f', -1, 64))
	}
	return map[string]any{
		"name": name,
		"size": float64(size),
		"type": mediaType,
	}, nil
}

// acceptsType matches extensions ("pdf", ".pdf") and media types
// ("application/pdf").
func acceptsType(allowed []string, ext, mediaType string) bool {
	base, _, _ := strings.Cut(mediaType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	for _, entry := range allowed {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "":
		case strings.Contains(entry, "/"):
			if entry == base {
				return true
			}
		case strings.TrimPrefix(entry, ".") == ext:
			return true
		}
	}
	return false
}
