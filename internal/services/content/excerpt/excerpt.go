// Package excerpt builds the plain-text previews shown on listing cards.
package excerpt

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultLength is the preview length, in runes, used on listing cards.
const DefaultLength = 150

// Ellipsis is appended to every non-empty preview.
const Ellipsis = "..."

// Text returns the visible text of content, which may be plain text or an
// HTML fragment. Script and style bodies are dropped and runs of whitespace
// collapse to one space.
func Text(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				return strings.Join(strings.Fields(content), " ")
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Br, atom.P, atom.Div, atom.Li:
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li:
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if atom.Lookup(name) == atom.Br {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// Preview returns the first limit runes of content's visible text followed
// by Ellipsis. Empty content yields an empty preview. A limit below one uses
// DefaultLength.
func Preview(content string, limit int) string {
	if limit < 1 {
		limit = DefaultLength
	}
	text := Text(content)
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) > limit {
		text = strings.TrimSpace(string([]rune(text)[:limit]))
	}
	return text + Ellipsis
}
