// Package textenc encodes query results as comma-delimited text lines.
package textenc

import (
	"net/url"
	"strings"
)

var fieldEscaper = strings.NewReplacer("%", "%25", ",", "%2C", "\r", "%0D", "\n", "%0A")

// Field escapes only the characters that would break a line or a column.
func Field(s string) string { return fieldEscaper.Replace(s) }

// Full percent-encodes every byte outside A-Z, a-z, 0-9 and "-_.~". A space
// becomes %20.
func Full(s string) string { return strings.ReplaceAll(url.QueryEscape(s), "+", "%20") }

// Decode reverses Field and Full.
func Decode(s string) (string, error) { return url.PathUnescape(s) }

// Line joins already encoded fields and terminates the line.
func Line(fields ...string) string { return strings.Join(fields, ",") + "\n" }

// Split cuts a line into decoded fields.
func Split(line string) ([]string, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	for i, p := range parts {
		d, err := Decode(p)
		if err != nil {
			return nil, err
		}
		parts[i] = d
	}
	return parts, nil
}
