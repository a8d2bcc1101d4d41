package docvqa

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Image is an uploaded document image.
type Image struct {
	Name string
	Data []byte
}

// MimeType prefers the extension of the file name and falls back to sniffing
// the content.
func (i *Image) MimeType() string {
	if ext := filepath.Ext(i.Name); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			if mt, _, err := mime.ParseMediaType(t); err == nil {
				return mt
			}
			return t
		}
	}
	return SniffMimeType(i.Data)
}

// DataURL encodes the image as a data: URL suitable for display.
func (i *Image) DataURL() string {
	return MakeDataURL(i.MimeType(), i.Data)
}

// SniffMimeType detects the content type of data, defaulting to
// application/octet-stream.
func SniffMimeType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	t := http.DetectContentType(data)
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

func MakeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
