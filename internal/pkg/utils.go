package pkg

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\-]+`)
	slugDashRuns     = regexp.MustCompile(`-{2,}`)
)

// Slugify converts an arbitrary string to a URL slug: lowercase, spaces and
// invalid characters collapsed to single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugDashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeFileName replaces spaces with underscores and strips path
// separators and traversal sequences so the result is a single safe path
// segment.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	return strings.Trim(name, ". ")
}

// MimeTypeByExtension maps the portal's allowed extensions to content types
// for download responses. Unknown extensions fall back to octet-stream.
func MimeTypeByExtension(ext string) string {
	switch strings.ToUpper(strings.TrimPrefix(ext, ".")) {
	case "PDF":
		return "application/pdf"
	case "XLS":
		return "application/vnd.ms-excel"
	case "XLSX":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "DOC":
		return "application/msword"
	case "DOCX":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "PNG":
		return "image/png"
	case "JPG", "JPEG":
		return "image/jpeg"
	case "SVG":
		return "image/svg+xml"
	case "CSV":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// ExtractTokenFromHeader pulls the bearer token out of an Authorization header.
func ExtractTokenFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
