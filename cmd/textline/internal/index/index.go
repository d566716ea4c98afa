// Package index implements the two lookup strategies over a source file:
// CachedIndex loads distinct lines once, LiveIndex rescans the file on
// every search.
//
// Both compare a query against whole lines with only the terminator
// ("\n" or "\r\n") removed. Empty lines never match.
package index

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	StrategyCached = "cached"
	StrategyLive   = "live"
)

// ErrSourceUnreadable wraps failures to open or read the source file.
var ErrSourceUnreadable = errors.New("source file unreadable")

const readBufferSize = 64 * 1024

// eachLine calls fn for every line of r with its terminator removed,
// stopping early when fn returns false.
func eachLine(r io.Reader, fn func(line string) bool) error {
	br := bufio.NewReaderSize(r, readBufferSize)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 && !fn(trimTerminator(line)) {
			return nil
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
