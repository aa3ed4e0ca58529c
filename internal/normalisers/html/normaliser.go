// Package html converts feed entry HTML into plain text suitable for
// chunking and embedding.
package html

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for HTML stripping performance.
var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag  = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	svgTag       = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Text strips tags from entry HTML and normalizes all runs of
// whitespace to single spaces. Returns "" when nothing readable
// remains, which callers treat as "skip this entry".
func Text(content string) string {
	if content == "" {
		return ""
	}

	// Remove elements whose text content is never readable prose.
	// Replaced with a space, not "", so surrounding words don't fuse.
	content = scriptTag.ReplaceAllString(content, " ")
	content = styleTag.ReplaceAllString(content, " ")
	content = noscriptTag.ReplaceAllString(content, " ")
	content = svgTag.ReplaceAllString(content, " ")
	content = htmlComments.ReplaceAllString(content, " ")

	// Tag boundaries become spaces so adjacent elements don't fuse
	// into one token.
	content = allTags.ReplaceAllString(content, " ")

	content = html.UnescapeString(content)

	content = whitespace.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
