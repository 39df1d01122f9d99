package parser

import (
	"regexp"
	"strings"

	"github.com/joern1811/wapay/internal/domain"
)

// Attachment patterns
var (
	// <attached: 00000012-PHOTO-2025-04-27-12-44-30.jpg> or <Anhang: ...>
	anhangRe = regexp.MustCompile(`(?i)<(?:attached|Anhang|adjunto|allegato|pièce jointe)\s*:\s*([^>]+)>`)
	// IMG-20240315-WA0001.jpg (file attached), optionally wrapped in <>
	attachedRe = regexp.MustCompile(`(?i)^\s*<?([^<>]+?)>?\s*\((?:file attached|Datei angehängt|archivo adjunto|file allegato)\)`)
	// bare IMG-20240315-WA0001.jpg somewhere in the text
	bareImageRe = regexp.MustCompile(`(?i)[\w\-.]+\.(?:jpe?g|png|webp|heic|heif|gif)\b`)
)

// findAttachment returns the image filename referenced by a message body,
// or "" when the body carries no image.
func findAttachment(body string) string {
	var name string
	switch {
	case anhangRe.MatchString(body):
		name = anhangRe.FindStringSubmatch(body)[1]
	case attachedRe.MatchString(body):
		name = attachedRe.FindStringSubmatch(body)[1]
	default:
		name = bareImageRe.FindString(body)
	}

	name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), "<>"))
	if !isImageAttachment(name) {
		return ""
	}
	return name
}

func isImageAttachment(name string) bool {
	if name == "" {
		return false
	}
	if domain.IsImageFile(name) {
		return true
	}
	upper := strings.ToUpper(name)
	return (strings.HasPrefix(upper, "IMG-") || strings.Contains(upper, "-PHOTO-") || strings.HasPrefix(upper, "PHOTO-")) &&
		strings.Contains(name, ".")
}
