// Package dataurl converts binary files into self-describing data URIs
// suitable for inline embedding in JSON payloads sent to vision models.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when the source path does not resolve to a file.
	ErrNotFound = errors.New("dataurl: file not found")
	// ErrRead is returned when the file exists but cannot be read.
	ErrRead = errors.New("dataurl: file not readable")
)

// mediaTypes maps file name suffixes to MIME types. The lookup is by
// lower-cased extension only; content bytes are never inspected.
var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

const fallbackMediaType = "application/octet-stream"

// Resource is the encoded form of a binary file. It is constructed once and
// never mutated; URI is fully reconstructible from the two fields.
type Resource struct {
	MediaType string
	Payload   string // standard base64, '=' padding, no line wrapping
}

// URI returns the canonical externally consumed form:
// "data:<media-type>;base64,<payload>".
func (r Resource) URI() string {
	return "data:" + r.MediaType + ";base64," + r.Payload
}

// MediaTypeFor derives the media type from the file name suffix.
// Unknown or missing suffixes map to application/octet-stream.
func MediaTypeFor(name string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return fallbackMediaType
}

// EncodeBytes encodes raw bytes under the media type derived from name.
// It is total and deterministic: any byte sequence yields a valid Resource,
// and the same bytes always yield the same payload.
func EncodeBytes(name string, data []byte) Resource {
	return Resource{
		MediaType: MediaTypeFor(name),
		Payload:   base64.StdEncoding.EncodeToString(data),
	}
}

// Encode reads the whole file at path and returns its encoded form.
// A missing path yields ErrNotFound, an unreadable file ErrRead; both wrap
// the underlying OS error. There is never a partial result.
func Encode(path string) (Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Resource{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return Resource{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return EncodeBytes(path, data), nil
}
