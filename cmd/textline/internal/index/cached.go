package index

import (
	"fmt"
	"os"
)

// CachedIndex holds the distinct non-empty lines of the source file as read
// at construction. It is immutable and needs no locking.
type CachedIndex struct {
	path  string
	lines map[string]struct{}
}

// NewCached reads path once. Later edits to the file are not observed.
func NewCached(path string) (*CachedIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer f.Close()

	lines := make(map[string]struct{})
	err = eachLine(f, func(line string) bool {
		if line != "" {
			lines[line] = struct{}{}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrSourceUnreadable, path, err)
	}

	return &CachedIndex{path: path, lines: lines}, nil
}

// Search is a set-membership test. It never returns an error.
func (c *CachedIndex) Search(query string) (bool, error) {
	if query == "" {
		return false, nil
	}
	_, ok := c.lines[query]
	return ok, nil
}

func (c *CachedIndex) Strategy() string { return StrategyCached }

// Len reports the number of distinct lines loaded.
func (c *CachedIndex) Len() int { return len(c.lines) }
