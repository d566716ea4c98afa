package filesystem

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// Source reads engine settings from an INI-style file on disk.
type Source struct {
	Path string
}

func NewSource(path string) *Source {
	return &Source{Path: path}
}

// Load reads and parses the file on every call.
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", s.Path, err)
	}
	values, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.Path, err)
	}
	return values, nil
}

// Parse reads INI settings. Sections do not namespace keys: every key of
// every section lands in one map, later sections overriding earlier ones.
// Values are taken literally apart from surrounding quotes and
// "%(key)s" references; "$" and inline "#" are not special.
func Parse(content string) (map[string]string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, []byte(content))
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, section := range f.Sections() {
		for _, key := range section.Keys() {
			values[key.Name()] = key.String()
		}
	}
	return values, nil
}
