package memory

import (
	"context"
	"fmt"
	"strings"
)

// Source serves engine settings parsed from an inline string.
type Source struct {
	values map[string]string
}

// NewSource parses a comma-separated list of settings.
// Format: "key=value,..."
// Example: "linuxpath=/srv/200k.txt,reread_on_query=false,port=44445"
func NewSource(mappingStr string) (*Source, error) {
	values := make(map[string]string)
	if strings.TrimSpace(mappingStr) == "" {
		return &Source{values: values}, nil
	}

	pairs := strings.Split(mappingStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid setting format: %q (want key=value)", pair)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("invalid setting format: %q (empty key)", pair)
		}
		values[key] = strings.TrimSpace(parts[1])
	}

	return &Source{values: values}, nil
}

// FromMap wraps an already parsed map.
func FromMap(values map[string]string) *Source {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Source{values: cp}
}

// Load returns a copy of the settings.
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}
