package service

import (
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Naming policy: a stored name is "<epochMillis>-<sanitized original name>".
// The millisecond prefix makes names collision-resistant across uploads; the
// exclusive Put plus the retry in Upload closes the same-millisecond window.

// storedName derives the on-disk name for an upload taken at the given time.
func storedName(original string, at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10) + "-" + original
}

// sanitizeOriginalName reduces an attacker-controlled filename to a single safe
// path element. Path separators from either OS convention and control
// characters are stripped; a name with nothing left is reported as empty.
func sanitizeOriginalName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(path.Clean("/" + name))
	if name == "/" {
		return ""
	}

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// A bare dot run hides the file or points at the directory itself.
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return strings.TrimLeft(name, ".")
}

// validateStoredName guards the read and delete paths: any name that is not a
// single path element never reaches the storage backend.
func validateStoredName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}

// originalNameFrom recovers the user-supplied part of a stored name. Names
// without the millisecond prefix are returned unchanged.
func originalNameFrom(stored string) string {
	prefix, rest, ok := strings.Cut(stored, "-")
	if !ok || prefix == "" {
		return stored
	}
	if _, err := strconv.ParseInt(prefix, 10, 64); err != nil {
		return stored
	}
	return rest
}
