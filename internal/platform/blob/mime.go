package blob

import (
	"log"
	"mime"
	"strings"
)

func init() {
	ensureMimeType(".webp", "image/webp")
	ensureMimeType(".jpg", "image/jpeg")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("blob: failed to register MIME type for %s: %v", ext, err)
	}
}

// ExtensionFor returns the preferred file extension of contentType, without
// the dot, or "" when the type is unknown.
func ExtensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if mediaType == "image/jpeg" {
		return "jpg"
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.TrimPrefix(exts[0], ".")
}

// TypeFor returns the content type registered for key's extension.
func TypeFor(key string) string {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "application/octet-stream"
	}
	if typ := mime.TypeByExtension(key[i:]); typ != "" {
		return typ
	}
	return "application/octet-stream"
}
