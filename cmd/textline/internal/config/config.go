package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultPort is used when the source does not set "port".
	DefaultPort = 44445

	KeyPath   = "linuxpath"
	KeyReread = "reread_on_query"
	KeyPort   = "port"
)

// Config holds the validated engine settings. It is never modified after Load.
type Config struct {
	Port          int
	SourcePath    string
	RereadOnQuery bool
}

// Load validates raw key/value settings into a Config.
// Keys are matched case-insensitively; any key starting with "linuxpath"
// supplies the source path.
func Load(values map[string]string) (*Config, error) {
	var (
		path, pathKey, reread, port string
		hasPath, hasReread, hasPort bool
	)

	for key, value := range values {
		k := strings.ToLower(strings.TrimSpace(key))
		v := strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(k, KeyPath):
			// Exact "linuxpath" wins over suffixed variants; otherwise the
			// lowest key name is used so the choice does not depend on map order.
			if !hasPath || k == KeyPath || (pathKey != KeyPath && k < pathKey) {
				path, pathKey, hasPath = v, k, true
			}
		case k == KeyReread:
			reread, hasReread = v, true
		case k == KeyPort:
			port, hasPort = v, true
		}
	}

	if !hasPath || path == "" {
		return nil, newError(KeyPath, ErrMissingField, "path to the source file is required")
	}
	if !hasReread {
		return nil, newError(KeyReread, ErrMissingField, "must be set to true or false")
	}

	cfg := &Config{Port: DefaultPort, SourcePath: path}

	switch strings.ToLower(reread) {
	case "true":
		cfg.RereadOnQuery = true
	case "false":
		cfg.RereadOnQuery = false
	default:
		return nil, newError(KeyReread, ErrInvalidValue, fmt.Sprintf("%q is not true or false", reread))
	}

	if hasPort && port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return nil, newError(KeyPort, ErrInvalidValue, fmt.Sprintf("%q is not a valid TCP port", port))
		}
		cfg.Port = p
	}

	info, err := os.Stat(cfg.SourcePath)
	if err != nil {
		return nil, newError(KeyPath, ErrFileNotFound, err.Error())
	}
	if !info.Mode().IsRegular() {
		return nil, newError(KeyPath, ErrFileNotFound, fmt.Sprintf("%s is not a regular file", cfg.SourcePath))
	}

	return cfg, nil
}
