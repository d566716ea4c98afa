package factory

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/config"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/core"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/source/filesystem"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/source/kubernetes"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/source/memory"
)

// SourceFactory creates config sources based on runtime settings
type SourceFactory struct {
	rt     *config.Runtime
	logger *slog.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(rt *config.Runtime, logger *slog.Logger) *SourceFactory {
	return &SourceFactory{rt: rt, logger: logger}
}

// Create creates a config source based on runtime settings
func (f *SourceFactory) Create(ctx context.Context) (core.ConfigSource, error) {
	switch f.rt.Source {
	case config.SourceFile:
		f.logger.Info("Using config file", "path", f.rt.ConfigFile)
		return filesystem.NewSource(f.rt.ConfigFile), nil
	case config.SourceStatic:
		return f.createStaticSource()
	case config.SourceKubernetes:
		return f.createKubernetesSource()
	default:
		return nil, fmt.Errorf("unknown config source: %s", f.rt.Source)
	}
}

func (f *SourceFactory) createStaticSource() (core.ConfigSource, error) {
	f.logger.Info("Using static config values")

	src, err := memory.NewSource(f.rt.ConfigValues)
	if err != nil {
		return nil, fmt.Errorf("failed to create static source: %w", err)
	}

	return src, nil
}

func (f *SourceFactory) createKubernetesSource() (core.ConfigSource, error) {
	f.logger.Info("Using Kubernetes ConfigMap",
		"namespace", f.rt.Namespace,
		"configmap", f.rt.ConfigMapName,
		"kubeconfig", f.rt.KubeConfigPath,
		"context", f.rt.KubeContext)

	restConfig, err := f.restConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := k8s.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return kubernetes.NewConfigMapSource(clientset, f.rt.Namespace, f.rt.ConfigMapName, f.rt.ConfigMapKey), nil
}

func (f *SourceFactory) restConfig() (*rest.Config, error) {
	kubeconfig := f.rt.KubeConfigPath
	if kubeconfig == "" {
		if home := os.Getenv("HOME"); home != "" {
			if _, err := os.Stat(home + "/.kube/config"); err == nil {
				kubeconfig = home + "/.kube/config"
			}
		}
	}

	configOverrides := &clientcmd.ConfigOverrides{}
	if f.rt.KubeContext != "" {
		configOverrides.CurrentContext = f.rt.KubeContext
	}

	// Try kubeconfig first
	if kubeconfig != "" {
		restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
			configOverrides,
		).ClientConfig()
		if err == nil {
			return restConfig, nil
		}
		f.logger.Warn("Failed to load kubeconfig, will try in-cluster config", "error", err)
	}

	// Fallback to in-cluster config
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build kubernetes config (tried kubeconfig and in-cluster): %w", err)
	}
	return restConfig, nil
}
