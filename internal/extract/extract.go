// Package extract turns raw page markup into a title and normalized
// plain-text body.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is the extraction result for one page.
type Document struct {
	Title string
	Text  string
}

// FromHTML parses markup best-effort: script, style and noscript content
// is stripped before visible text is collected, whitespace runs collapse
// to single spaces. Malformed markup never returns an error; the result
// may simply be empty.
func FromHTML(html string) Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Document{}
	}
	doc.Find("script, style, noscript").Remove()

	title := Normalize(doc.Find("title").First().Text())
	text := Normalize(doc.Find("body").Text())
	return Document{Title: title, Text: text}
}

// Normalize collapses all whitespace runs to single spaces and trims.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
