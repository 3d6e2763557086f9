package sqltext

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lightorm/ormerr"
)

// identPattern restricts table and column names to plain SQL identifiers.
// Names are placed into SQL text, never bound, so nothing else is allowed.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Ident NFC-normalizes name and checks it is a plain identifier.
func Ident(name string) (string, error) {
	normalized := norm.NFC.String(name)
	if normalized == "" {
		return "", ormerr.NewInvalidIdentifier(name, "cannot be empty")
	}
	if !identPattern.MatchString(normalized) {
		return "", ormerr.NewInvalidIdentifier(name, "must contain only letters, digits and underscores, and must not start with a digit")
	}
	return normalized, nil
}

// Idents applies Ident to every name.
func Idents(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		v, err := Ident(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// IsSelect reports whether query reads rows: a case-insensitive "select"
// prefix on the trimmed text.
func IsSelect(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= 6 && strings.EqualFold(q[:6], "select")
}

// CreateTableName returns the table named by the first "create table"
// statement in stmts, skipping an "if not exists" clause. Unquoted names
// are folded to lower case; quoted names keep their case.
func CreateTableName(stmts []string) (string, bool) {
	for _, stmt := range stmts {
		fields := strings.Fields(stmt)
		if len(fields) < 3 || !strings.EqualFold(fields[0], "create") || !strings.EqualFold(fields[1], "table") {
			continue
		}
		rest := fields[2:]
		if len(rest) >= 4 && strings.EqualFold(rest[0], "if") &&
			strings.EqualFold(rest[1], "not") && strings.EqualFold(rest[2], "exists") {
			rest = rest[3:]
		}
		name := rest[0]
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = name[:idx]
		}
		if unquoted := strings.Trim(name, `"`); unquoted != name {
			name = unquoted
		} else {
			name = strings.ToLower(name)
		}
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// SplitStatements splits a schema script on ";" outside quotes and
// comments. Empty statements are dropped.
func SplitStatements(script string) ([]string, error) {
	var out []string
	start := 0
	i := 0
	for i < len(script) {
		switch c := script[i]; {
		case c == '\'':
			j, err := skipString(script, i)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case c == '"' || c == '`':
			j, err := skipQuoted(script, i+1, c)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case c == '-' && strings.HasPrefix(script[i:], "--"):
			i = skipLineComment(script, i+2)
			continue
		case c == '/' && strings.HasPrefix(script[i:], "/*"):
			j, err := skipBlockComment(script, i+2)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case c == '$':
			j, ok, err := skipDollarQuoted(script, i)
			if err != nil {
				return nil, err
			}
			if ok {
				i = j
				continue
			}
		case c == ';':
			if stmt := strings.TrimSpace(script[start:i]); stmt != "" {
				out = append(out, stmt)
			}
			start = i + 1
		}
		i++
	}
	if stmt := strings.TrimSpace(script[start:]); stmt != "" {
		out = append(out, stmt)
	}
	return out, nil
}
