package store

import (
	"fmt"
	"strings"

	"github.com/roach88/lightorm/ormerr"
)

// Target names the backing store to open. It is either a FileTarget or a
// NetworkTarget.
type Target interface {
	fmt.Stringer
	target()
}

// FileTarget is an embedded SQLite database file. Path may be a plain path
// or a "file:" URI.
type FileTarget struct {
	Path string
}

func (FileTarget) target() {}

func (t FileTarget) String() string { return t.Path }

// filename returns the file system path behind Path.
func (t FileTarget) filename() string {
	name := strings.TrimPrefix(t.Path, "file:")
	if idx := strings.IndexByte(name, '?'); idx >= 0 {
		name = name[:idx]
	}
	return name
}

func (t FileTarget) inMemory() bool {
	name := t.filename()
	return name == ":memory:" || strings.Contains(t.Path, "mode=memory")
}

// NetworkTarget is a PostgreSQL server reached through a connection string,
// either a postgres:// URL or keyword/value pairs ("host=... dbname=...").
type NetworkTarget struct {
	ConnString string
}

func (NetworkTarget) target() {}

// String hides the password of URL connection strings.
func (t NetworkTarget) String() string {
	s := t.ConnString
	scheme := strings.Index(s, "://")
	at := strings.LastIndexByte(s, '@')
	if scheme < 0 || at < scheme {
		return s
	}
	userinfo := s[scheme+3 : at]
	if user, _, ok := strings.Cut(userinfo, ":"); ok {
		return s[:scheme+3] + user + ":xxxxx" + s[at:]
	}
	return s
}

// ParseTarget decides which backend a locator names.
//
// postgres:// and postgresql:// URLs are network targets, as are
// keyword/value strings in which every token is key=value and one of the
// keys is dbname or host. Everything else, "file:" URIs included, is a file
// target.
func ParseTarget(locator string) (Target, error) {
	loc := strings.TrimSpace(locator)
	if loc == "" {
		return nil, ormerr.NewInvalidTarget(locator, "empty locator")
	}

	lower := strings.ToLower(loc)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return NetworkTarget{ConnString: loc}, nil
	}
	if isKeywordValue(loc) {
		return NetworkTarget{ConnString: loc}, nil
	}
	return FileTarget{Path: loc}, nil
}

func isKeywordValue(s string) bool {
	network := false
	for _, tok := range strings.Fields(s) {
		key, _, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return false
		}
		switch strings.ToLower(key) {
		case "dbname", "host":
			network = true
		}
	}
	return network
}
