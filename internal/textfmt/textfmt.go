// Package textfmt holds the cosmetic string formatting used by page
// templates: plain-text excerpts of article bodies, dates, time ranges and
// counts.
package textfmt

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	mdImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdFence      = regexp.MustCompile("(?s)```.*?```")
	mdCode       = regexp.MustCompile("`([^`]*)`")
	mdHeading    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	mdQuote      = regexp.MustCompile(`(?m)^\s{0,3}>\s?`)
	mdList       = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
	mdRule       = regexp.MustCompile(`(?m)^\s*(?:[-*_]\s*){3,}$`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__|\*|_|~~)([^*_~\n]+)(\*\*|__|\*|_|~~)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripMarkdown reduces markdown to its visible text.
func StripMarkdown(s string) string {
	s = mdFence.ReplaceAllString(s, " ")
	s = mdImage.ReplaceAllString(s, "$1")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdCode.ReplaceAllString(s, "$1")
	s = mdRule.ReplaceAllString(s, "")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdQuote.ReplaceAllString(s, "")
	s = mdList.ReplaceAllString(s, "")
	// Nested emphasis needs a second pass.
	for i := 0; i < 2; i++ {
		s = mdEmphasis.ReplaceAllString(s, "$2")
	}
	return collapse(s)
}

// StripHTML returns the text nodes of s, skipping script and style bodies.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; keep what was read.
			return collapse(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// PlainText strips both HTML and markdown; article bodies may hold either.
func PlainText(s string) string {
	return StripMarkdown(StripHTML(s))
}

// Excerpt shortens s to at most n runes, cutting at a word boundary and
// appending an ellipsis when anything was dropped.
func Excerpt(s string, n int) string {
	s = collapse(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders "2026-02-21" as "Saturday, February 21, 2026". Values
// that do not parse are returned unchanged.
func FormatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	return t.Format("Monday, January 2, 2006")
}

// ShortDate renders "2026-02-21" as "Feb 21, 2026".
func ShortDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// FormatClock renders "13:30:00" as "1:30 PM".
func FormatClock(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("3:04 PM")
		}
	}
	return s
}

// FormatTimeRange renders a start and optional end clock time.
func FormatTimeRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return FormatClock(start)
	case start == "":
		return "until " + FormatClock(end)
	}
	return FormatClock(start) + " - " + FormatClock(end)
}

// FormatRelative renders an API timestamp as "3 days ago".
func FormatRelative(s string, now time.Time) string {
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// TitleCase capitalizes each word ("mentorship track" -> "Mentorship Track").
func TitleCase(s string) string {
	// Casers are stateful.
	return cases.Title(language.English).String(s)
}

// FormatCount renders n with thousands separators and a noun that agrees
// with it: FormatCount(1200, "seat", "seats") is "1,200 seats".
func FormatCount(n int, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return message.NewPrinter(language.English).Sprintf("%d %s", n, noun)
}
