package constants

import "strings"

// Formats the pipeline routes on.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedExtensions holds the default allowed file extensions for receipt input.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a format, or "" if unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "gif", "heic", "heif":
		return IMAGE
	default:
		return ""
	}
}

// IsHEICExt reports whether the extension is an HEIC/HEIF variant.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	default:
		return false
	}
}
