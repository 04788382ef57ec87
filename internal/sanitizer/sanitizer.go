// Package sanitizer strips content that cannot be embedded in XML feed documents.
package sanitizer

import (
	"regexp"
	"strings"
)

// Replacement is substituted for every code point that is not allowed in XML.
const Replacement = '\uFFFD'

var (
	// emptyParagraphPattern matches an empty paragraph and the whitespace after it.
	emptyParagraphPattern = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>\s*</p>\s*`)
	// breakAfterParagraphPattern matches a line break that directly follows a closed paragraph.
	breakAfterParagraphPattern = regexp.MustCompile(`(?i)(</p>)\s*<br\s*/?>`)
)

// Sanitize replaces control characters, surrogates, invalid UTF-8 and Unicode
// noncharacters with U+FFFD. A run of invalid bytes becomes a single replacement.
func Sanitize(text string) string {
	text = strings.ToValidUTF8(text, string(Replacement))

	return strings.Map(func(r rune) rune {
		if isAllowed(r) {
			return r
		}

		return Replacement
	}, text)
}

// SanitizeRichContent sanitizes an HTML snippet and removes empty paragraphs and
// line breaks placed right after a paragraph end.
func SanitizeRichContent(html string) string {
	html = Sanitize(html)

	for {
		collapsed := emptyParagraphPattern.ReplaceAllString(html, "")
		collapsed = breakAfterParagraphPattern.ReplaceAllString(collapsed, "$1")

		if collapsed == html {
			return html
		}

		html = collapsed
	}
}

func isAllowed(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r < 0x20:
		return false
	case r >= 0x7F && r <= 0x9F:
		return false
	case r >= 0xD800 && r <= 0xDFFF:
		return false
	case r >= 0xFDD0 && r <= 0xFDEF:
		return false
	case r&0xFFFE == 0xFFFE:
		// U+xxFFFE and U+xxFFFF on every plane
		return false
	case r > 0x10FFFF:
		return false
	}

	return true
}
