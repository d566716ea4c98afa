package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SourceMode selects where the engine settings are read from
type SourceMode string

const (
	SourceFile       SourceMode = "file"
	SourceStatic     SourceMode = "static"
	SourceKubernetes SourceMode = "kubernetes"
)

// Runtime holds process-level settings: where to listen, how to log and
// where to find the engine settings.
type Runtime struct {
	// Core
	Debug   bool
	LogFile string
	Tracing bool // log a span per lookup

	// Server
	ListenHost       string
	ReadTimeout      time.Duration
	ShutdownTimeout  time.Duration
	HealthServerPort string // empty disables the health server
	ReusePort        bool

	// Config source
	Source       SourceMode
	ConfigFile   string
	ConfigValues string // static source, "key=value,key=value"

	// Kubernetes
	ConfigMapName  string
	ConfigMapKey   string // optional, entry holding a whole config file
	Namespace      string
	KubeConfigPath string
	KubeContext    string
}

// LoadRuntimeFromEnv loads and validates runtime settings from environment
// variables
func LoadRuntimeFromEnv() (*Runtime, error) {
	rt := RuntimeFromEnv()
	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return rt, nil
}

// RuntimeFromEnv reads runtime settings without validating them, so callers
// can apply overrides first.
func RuntimeFromEnv() *Runtime {
	return &Runtime{
		// Core
		Debug:   getEnvBool("DEBUG", false),
		LogFile: getEnv("LOG_FILE", ""),
		Tracing: getEnvBool("TRACING", false),

		// Server
		ListenHost:       getEnv("LISTEN_HOST", "127.0.0.1"),
		ReadTimeout:      getEnvDuration("READ_TIMEOUT", 30*time.Second),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HealthServerPort: getEnv("HEALTH_SERVER_PORT", ""),
		ReusePort:        getEnvBool("REUSE_PORT", false),

		// Config source
		Source:       determineSourceMode(),
		ConfigFile:   getEnv("CONFIG_FILE", "config.ini"),
		ConfigValues: getEnv("CONFIG_VALUES", ""),

		// Kubernetes
		ConfigMapName:  getEnv("CONFIGMAP_NAME", ""),
		ConfigMapKey:   getEnv("CONFIGMAP_KEY", ""),
		Namespace:      determineNamespace(),
		KubeConfigPath: getEnv("KUBECONFIG", ""),
		KubeContext:    getEnv("KUBE_CONTEXT", ""),
	}
}

// Validate ensures runtime settings are coherent. It is exported so the
// CLI can re-check after applying flag overrides.
func (r *Runtime) Validate() error {
	switch r.Source {
	case SourceFile:
		if r.ConfigFile == "" {
			return fmt.Errorf("CONFIG_FILE must be set when using the file config source")
		}
	case SourceStatic:
		if r.ConfigValues == "" {
			return fmt.Errorf("CONFIG_VALUES must be set when using the static config source")
		}
	case SourceKubernetes:
		if r.ConfigMapName == "" {
			return fmt.Errorf("CONFIGMAP_NAME must be set when using the kubernetes config source")
		}
	default:
		return fmt.Errorf("unsupported CONFIG_SOURCE: %s (supported: file, static, kubernetes)", r.Source)
	}

	if r.ReadTimeout < 0 {
		return fmt.Errorf("READ_TIMEOUT must not be negative")
	}

	return nil
}

// ParseSourceMode accepts the same aliases as CONFIG_SOURCE.
func ParseSourceMode(s string) (SourceMode, error) {
	switch strings.ToLower(s) {
	case "file", "ini":
		return SourceFile, nil
	case "static", "memory", "env":
		return SourceStatic, nil
	case "kubernetes", "k8s", "configmap":
		return SourceKubernetes, nil
	}
	return "", fmt.Errorf("unknown config source %q", s)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// Bare integers are seconds
		secs, convErr := strconv.Atoi(value)
		if convErr != nil {
			return defaultValue
		}
		return time.Duration(secs) * time.Second
	}
	return d
}

func determineSourceMode() SourceMode {
	// Explicit mode
	if mode := os.Getenv("CONFIG_SOURCE"); mode != "" {
		if m, err := ParseSourceMode(mode); err == nil {
			return m
		}
		return SourceMode(mode)
	}

	// Auto-detect from what is set
	if os.Getenv("CONFIG_VALUES") != "" {
		return SourceStatic
	}
	if os.Getenv("CONFIGMAP_NAME") != "" {
		return SourceKubernetes
	}

	return SourceFile
}

func determineNamespace() string {
	// Explicit namespace
	if ns := os.Getenv("NAMESPACE"); ns != "" {
		return ns
	}

	// Kubernetes downward API
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return ns
	}

	// Read from service account (in-cluster)
	if data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
		return strings.TrimSpace(string(data))
	}

	return "default"
}
