package index

import (
	"fmt"
	"os"
)

// LiveIndex rescans the source file on every search so results always
// reflect its current contents. Each search opens its own handle; the file
// is never locked, so a concurrent external writer may be observed
// half-way through a write.
type LiveIndex struct {
	path string
}

func NewLive(path string) *LiveIndex {
	return &LiveIndex{path: path}
}

// Search scans the file and returns true on the first matching line.
// Open and read failures wrap ErrSourceUnreadable.
func (l *LiveIndex) Search(query string) (bool, error) {
	if query == "" {
		return false, nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer f.Close()

	found := false
	err = eachLine(f, func(line string) bool {
		if line == query {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %w", ErrSourceUnreadable, l.path, err)
	}
	return found, nil
}

func (l *LiveIndex) Strategy() string { return StrategyLive }
