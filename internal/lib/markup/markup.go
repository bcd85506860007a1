// Package markup derives plain-text facts from rich post bodies.
package markup

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	wordsPerMinute = 200
	excerptRunes   = 160
)

// PlainText strips tags from an HTML fragment, dropping the contents of non-rendered elements.
func PlainText(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))

	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail: keep what was read so far
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isHidden(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isHidden(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHidden(tag []byte) bool {
	switch string(tag) {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// ReadTime estimates reading minutes for a body, never less than one.
func ReadTime(body string) int {
	words := len(strings.Fields(PlainText(body)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Excerpt cuts the plain text of a body at a word boundary.
func Excerpt(body string) string {
	text := PlainText(body)
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}

	runes := []rune(text)[:excerptRunes]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// SearchText is the indexed text of a post.
func SearchText(title, excerpt, body string) string {
	return strings.Join([]string{title, excerpt, PlainText(body)}, " ")
}
