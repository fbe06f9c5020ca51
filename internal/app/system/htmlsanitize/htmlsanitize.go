// Package htmlsanitize cleans user-supplied rich text before it is
// stored or rendered. CasaLink accepts limited HTML in property and
// unit descriptions and in maintenance request text; everything else is
// treated as plain text and escaped.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Extra inline formatting beyond the UGC defaults.
	p.AllowElements("u", "s", "sub", "sup", "mark")

	// Tables, with the layout attributes the editor emits.
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption")
	p.AllowAttrs("colspan", "rowspan", "headers", "scope").OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "td", "th")
	p.AllowAttrs("style").OnElements("table", "tr", "td", "th")

	return p
}

// Sanitize strips dangerous markup and returns the cleaned HTML string.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no HTML tags. A lone < or >
// (comparisons, arrows) does not count.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes plain text and converts newlines to <br>,
// wrapping the result in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// PrepareForDisplay renders stored content: plain text is escaped and
// paragraph-wrapped, HTML is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
