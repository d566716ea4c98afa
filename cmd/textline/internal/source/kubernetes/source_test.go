package kubernetes

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/core"
)

var _ core.ConfigSource = (*ConfigMapSource)(nil)

func newConfigMap(data map[string]string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "textline", Namespace: "search"},
		Data:       data,
	}
}

func TestConfigMapSourceEntries(t *testing.T) {
	clientset := fake.NewSimpleClientset(newConfigMap(map[string]string{
		"linuxpath":       "/data/200k.txt",
		"reread_on_query": "true",
	}))

	values, err := NewConfigMapSource(clientset, "search", "textline", "").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if values["linuxpath"] != "/data/200k.txt" || values["reread_on_query"] != "true" {
		t.Fatalf("Load() = %v", values)
	}
}

func TestConfigMapSourceEmbeddedFile(t *testing.T) {
	clientset := fake.NewSimpleClientset(newConfigMap(map[string]string{
		"config.ini": "[DEFAULT]\nlinuxpath = /data/200k.txt\nreread_on_query = False\nport = 6000\n",
	}))

	values, err := NewConfigMapSource(clientset, "search", "textline", "config.ini").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if values["port"] != "6000" || values["reread_on_query"] != "False" {
		t.Fatalf("Load() = %v", values)
	}
}

func TestConfigMapSourceErrors(t *testing.T) {
	clientset := fake.NewSimpleClientset(newConfigMap(map[string]string{"linuxpath": "/x"}))

	if _, err := NewConfigMapSource(clientset, "search", "missing", "").Load(context.Background()); err == nil {
		t.Fatal("expected error for missing configmap")
	}
	if _, err := NewConfigMapSource(clientset, "search", "textline", "config.ini").Load(context.Background()); err == nil {
		t.Fatal("expected error for missing data key")
	}
}
