package notification

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes HTML tags and unescapes entities.
func StripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

// WordWrap wraps text at width columns. Existing line breaks are kept and
// words longer than width are left whole on their own line.
func WordWrap(s string, width int) string {
	if width <= 0 {
		return s
	}

	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		wrapped []string
		current strings.Builder
		length  int
	)
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if length > 0 && length+1+n > width {
			wrapped = append(wrapped, current.String())
			current.Reset()
			length = 0
		}
		if length > 0 {
			current.WriteByte(' ')
			length++
		}
		current.WriteString(w)
		length += n
	}
	return append(wrapped, current.String())
}
