package stream

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is used for files with an unknown extension.
const DefaultContentType = "video/mp4"

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".ogv":  "video/ogg",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ContentType returns the MIME type for name based on its extension.
func ContentType(name string) string {
	if ct, ok := LookupContentType(name); ok {
		return ct
	}
	return DefaultContentType
}

// LookupContentType returns the MIME type served for name's extension and
// whether the extension is known.
func LookupContentType(name string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]
	return ct, ok
}
