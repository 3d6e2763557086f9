package sqltext

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder selects the positional parameter style of a backend.
type Placeholder int

const (
	// PlaceholderQuestion is "?" (SQLite). It is also the canonical marker
	// used in all SQL this module builds.
	PlaceholderQuestion Placeholder = iota

	// PlaceholderDollar is "$1, $2, ..." (PostgreSQL).
	PlaceholderDollar
)

func (p Placeholder) String() string {
	switch p {
	case PlaceholderQuestion:
		return "?"
	case PlaceholderDollar:
		return "$n"
	default:
		return fmt.Sprintf("Placeholder(%d)", int(p))
	}
}

// ErrUnterminated is returned when a quoted string, quoted identifier or
// block comment runs to the end of the query.
var ErrUnterminated = errors.New("sqltext: unterminated quote or comment")

// Rebind rewrites every canonical "?" marker in query into the style ph and
// returns the rewritten text and the number of markers found.
//
// The scanner skips single-quoted strings, double-quoted and backtick
// identifiers, line and block comments and PostgreSQL $tag$ bodies, so a
// "?" inside any of them is left alone. A "?" directly followed by "|" or
// "&" is a PostgreSQL JSON operator and is also left alone.
func Rebind(query string, ph Placeholder) (string, int, error) {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	i := 0
	for i < len(query) {
		r, w := utf8.DecodeRuneInString(query[i:])
		switch r {
		case '\'':
			j, err := skipString(query, i)
			if err != nil {
				return "", 0, err
			}
			b.WriteString(query[i:j])
			i = j
			continue
		case '"':
			j, err := skipQuoted(query, i+w, '"')
			if err != nil {
				return "", 0, err
			}
			b.WriteString(query[i:j])
			i = j
			continue
		case '`':
			j, err := skipQuoted(query, i+w, '`')
			if err != nil {
				return "", 0, err
			}
			b.WriteString(query[i:j])
			i = j
			continue
		case '-':
			if strings.HasPrefix(query[i:], "--") {
				j := skipLineComment(query, i+2)
				b.WriteString(query[i:j])
				i = j
				continue
			}
		case '/':
			if strings.HasPrefix(query[i:], "/*") {
				j, err := skipBlockComment(query, i+2)
				if err != nil {
					return "", 0, err
				}
				b.WriteString(query[i:j])
				i = j
				continue
			}
		case '$':
			j, ok, err := skipDollarQuoted(query, i)
			if err != nil {
				return "", 0, err
			}
			if ok {
				b.WriteString(query[i:j])
				i = j
				continue
			}
		case '?':
			if next := i + w; next < len(query) && (query[next] == '|' || query[next] == '&') {
				break
			}
			n++
			switch ph {
			case PlaceholderDollar:
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(n))
			default:
				b.WriteByte('?')
			}
			i += w
			continue
		}
		b.WriteString(query[i : i+w])
		i += w
	}
	return b.String(), n, nil
}

// skipQuoted returns the index just past the closing quote. A doubled quote
// inside the literal is an escaped quote.
func skipQuoted(s string, i int, quote byte) (int, error) {
	for i < len(s) {
		if s[i] == quote {
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}
			return i + 1, nil
		}
		i++
	}
	return 0, ErrUnterminated
}

// skipString skips the single-quoted literal opening at i. An E'...'
// literal may also escape its quote with a backslash.
func skipString(s string, i int) (int, error) {
	if !escapeString(s, i) {
		return skipQuoted(s, i+1, '\'')
	}
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\'':
			if j+1 < len(s) && s[j+1] == '\'' {
				j++
				continue
			}
			return j + 1, nil
		}
	}
	return 0, ErrUnterminated
}

// escapeString reports whether the quote at i is prefixed by a standalone
// E or e.
func escapeString(s string, i int) bool {
	if i == 0 || (s[i-1] != 'E' && s[i-1] != 'e') {
		return false
	}
	if i == 1 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i-1])
	return !isTagRune(r)
}

func skipLineComment(s string, i int) int {
	for i < len(s) && s[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(s string, i int) (int, error) {
	end := strings.Index(s[i:], "*/")
	if end < 0 {
		return 0, ErrUnterminated
	}
	return i + end + 2, nil
}

// skipDollarQuoted recognizes $tag$...$tag$ and $$...$$ bodies starting at i.
// ok is false when s[i:] does not open a dollar-quoted body (e.g. "$1").
func skipDollarQuoted(s string, i int) (int, bool, error) {
	j := i + 1
	for j < len(s) {
		r, w := utf8.DecodeRuneInString(s[j:])
		if r == '$' {
			break
		}
		if !isTagRune(r) || (j == i+1 && unicode.IsDigit(r)) {
			return 0, false, nil
		}
		j += w
	}
	if j >= len(s) {
		return 0, false, nil
	}
	tag := s[i : j+1]
	end := strings.Index(s[j+1:], tag)
	if end < 0 {
		return 0, false, ErrUnterminated
	}
	return j + 1 + end + len(tag), true, nil
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
