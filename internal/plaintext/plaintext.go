// Package plaintext degrades an HTML mail body to readable plain text for
// transports that cannot carry markup.
package plaintext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Link markers survive tag stripping and are turned into <URL> afterwards.
const (
	linkStart = "_link_start_"
	linkEnd   = "_link_end_"
)

var (
	newlineRun = regexp.MustCompile(`\s*\n\s*`)
	betweenTag = regexp.MustCompile(`>\s*<`)
	anchorTag  = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*"([^"]*)"[^>]*>\s*(.*?)\s*</a\s*>`)
	brTag      = regexp.MustCompile(`(?i)\s*<br\s*/?>\s*`)
	markedLink = regexp.MustCompile(`(?s)` + linkStart + `(.*?)` + linkEnd)
	spaceEOL   = regexp.MustCompile(` +\n`)
)

// block tags and the separator their closing tag becomes.
var blocks = []struct {
	open  *regexp.Regexp
	close *regexp.Regexp
	sep   string
}{
	{blockOpen("h1"), blockClose("h1"), "\n\n\n"},
	{blockOpen("h2"), blockClose("h2"), "\n\n"},
	{blockOpen("p"), blockClose("p"), "\n\n"},
}

func blockOpen(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<` + tag + `(\s[^>]*)?>`)
}

func blockClose(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)</` + tag + `\s*>`)
}

// ToPlainText converts markup to plain text. An empty input is treated as
// "no body" and reported with ok=false so callers can tell it apart from
// a body that degrades to an empty string.
func ToPlainText(markup string) (text string, ok bool) {
	if markup == "" {
		return "", false
	}

	s := newlineRun.ReplaceAllString(markup, " ")
	s = betweenTag.ReplaceAllString(s, "><")

	// a trailing space keeps the URL clickable when it ends a line
	s = anchorTag.ReplaceAllString(s, "${2} "+linkStart+"${1}"+linkEnd+" ")
	s = brTag.ReplaceAllString(s, "\n")

	for _, b := range blocks {
		s = b.open.ReplaceAllString(s, "")
		s = b.close.ReplaceAllString(s, b.sep)
	}

	s = extractText(s)
	s = markedLink.ReplaceAllString(s, "<${1}>")
	s = spaceEOL.ReplaceAllString(s, "\n")

	return strings.TrimRight(s, " "), true
}

// extractText drops every remaining tag and decodes entities. Contents of
// script and style elements are discarded.
func extractText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isRawElement(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawElement(z) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
