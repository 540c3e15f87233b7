package extract

import (
	"regexp"
	"strings"
)

var plainTextExtensions = map[string]bool{
	"txt": true,
	"tex": true,
	"rst": true,
	"enl": true,
	"bib": true,
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// IsPlainText reports whether files with the extension are indexed by their raw content.
func IsPlainText(ext string) bool {
	return plainTextExtensions[strings.ToLower(ext)]
}

// NormalizeText replaces every run of non-word characters with a single space.
func NormalizeText(content string) string {
	return nonWord.ReplaceAllString(content, " ")
}
