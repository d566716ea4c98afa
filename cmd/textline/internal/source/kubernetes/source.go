package kubernetes

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/source/filesystem"
)

// ConfigMapSource reads engine settings from a ConfigMap.
//
// With an empty DataKey every entry of the ConfigMap's data is a setting.
// Otherwise the entry under DataKey holds a whole config file (for example
// a mounted "config.ini") and is parsed like one.
type ConfigMapSource struct {
	clientset kubernetes.Interface
	namespace string
	name      string
	dataKey   string
}

func NewConfigMapSource(clientset kubernetes.Interface, namespace, name, dataKey string) *ConfigMapSource {
	return &ConfigMapSource{
		clientset: clientset,
		namespace: namespace,
		name:      name,
		dataKey:   dataKey,
	}
}

func (s *ConfigMapSource) Load(ctx context.Context) (map[string]string, error) {
	cm, err := s.clientset.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get configmap %s/%s: %w", s.namespace, s.name, err)
	}

	if s.dataKey != "" {
		content, ok := cm.Data[s.dataKey]
		if !ok {
			return nil, fmt.Errorf("configmap %s/%s missing key %s", s.namespace, s.name, s.dataKey)
		}
		values, err := filesystem.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s from configmap %s/%s: %w", s.dataKey, s.namespace, s.name, err)
		}
		return values, nil
	}

	values := make(map[string]string, len(cm.Data))
	for k, v := range cm.Data {
		values[k] = v
	}
	return values, nil
}
