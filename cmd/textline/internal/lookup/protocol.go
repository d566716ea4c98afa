package lookup

import (
	"bytes"
	"strings"
)

// MaxQuerySize is the largest request frame read from a connection.
const MaxQuerySize = 1024

// Response literals. No other responses exist.
const (
	ResponseExists   = "STRING EXISTS\n"
	ResponseNotFound = "STRING NOT FOUND\n"
)

// ParseQuery turns a raw request frame into the line to look up: trailing
// NUL padding is dropped, invalid UTF-8 is removed, and the frame is cut at
// its first line feed, with one carriage return before it also removed.
//
// Cutting at the first line feed is stricter than stripping one trailing
// terminator. "a\nb\n" queries "a" rather than the never-matching "a\nb",
// so bytes after the first line are ignored and pipelined queries are not
// supported.
func ParseQuery(raw []byte) string {
	raw = bytes.TrimRight(raw, "\x00")
	s := strings.ToValidUTF8(string(raw), "")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "\r")
}

// Response returns the literal for a search outcome.
func Response(found bool) string {
	if found {
		return ResponseExists
	}
	return ResponseNotFound
}
