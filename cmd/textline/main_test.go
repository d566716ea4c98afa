package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/config"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/core"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/index"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/lookup"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func startServer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.txt")
	if err := os.WriteFile(path, []byte("alpha\nbeta line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	idx, err := index.NewCached(path)
	if err != nil {
		t.Fatal(err)
	}
	srv := &core.Server{Listener: ln, ConnectionHandler: lookup.NewHandler(idx)}
	go srv.Serve()
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	_, port, _ := net.SplitHostPort(ln.Addr().String())
	return port
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Fatalf("version --short = %q, want %q", out, version)
	}

	out, err = execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Fatalf("version output missing Go version:\n%s", out)
	}
}

func TestQueryCommandSingle(t *testing.T) {
	port := startServer(t)

	out, err := execute(t, "", "query", "--port", port, "alpha")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "STRING EXISTS" {
		t.Fatalf("query alpha = %q", out)
	}

	out, err = execute(t, "", "query", "--port", port, "gamma")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "STRING NOT FOUND" {
		t.Fatalf("query gamma = %q", out)
	}
}

func TestQueryCommandInteractive(t *testing.T) {
	port := startServer(t)
	stdin := "alpha\n\n" + strings.Repeat("x", 2000) + "\ngamma\n"

	out, err := execute(t, stdin, "query", "--port", port, "--timeout", "2s")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	for _, want := range []string{
		"Enter a query string",
		"Server response: STRING EXISTS",
		"Query cannot be empty",
		"query exceeds frame size",
		"Server response: STRING NOT FOUND",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestQueryCommandUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	if _, err := execute(t, "", "query", "--port", strconv.Itoa(port), "--timeout", "500ms", "alpha"); err == nil {
		t.Fatal("query against a closed port succeeded")
	}
}

func TestServeFlagsApply(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, rt *config.Runtime)
	}{
		{
			name: "no flags keep env values",
			args: nil,
			check: func(t *testing.T, rt *config.Runtime) {
				if rt.Source != config.SourceFile || rt.ConfigFile != "config.ini" {
					t.Fatalf("runtime changed: %+v", rt)
				}
			},
		},
		{
			name: "set switches to static",
			args: []string{"--set", "linuxpath=/tmp/a.txt"},
			check: func(t *testing.T, rt *config.Runtime) {
				if rt.Source != config.SourceStatic || rt.ConfigValues != "linuxpath=/tmp/a.txt" {
					t.Fatalf("got %+v", rt)
				}
			},
		},
		{
			name: "configmap switches to kubernetes",
			args: []string{"--configmap", "textline", "-n", "search"},
			check: func(t *testing.T, rt *config.Runtime) {
				if rt.Source != config.SourceKubernetes || rt.ConfigMapName != "textline" || rt.Namespace != "search" {
					t.Fatalf("got %+v", rt)
				}
			},
		},
		{
			name: "explicit source wins",
			args: []string{"--config-source", "file", "--set", "linuxpath=/tmp/a.txt"},
			check: func(t *testing.T, rt *config.Runtime) {
				if rt.Source != config.SourceFile {
					t.Fatalf("Source = %q, want file", rt.Source)
				}
			},
		},
		{
			name: "server settings",
			args: []string{"--host", "0.0.0.0", "--read-timeout", "5s", "--debug", "--health-port", "8080"},
			check: func(t *testing.T, rt *config.Runtime) {
				if rt.ListenHost != "0.0.0.0" || rt.ReadTimeout != 5*time.Second || !rt.Debug || rt.HealthServerPort != "8080" {
					t.Fatalf("got %+v", rt)
				}
			},
		},
		{
			name: "reuse port and tracing",
			args: []string{"--reuse-port", "--trace"},
			check: func(t *testing.T, rt *config.Runtime) {
				if !rt.ReusePort || !rt.Tracing {
					t.Fatalf("got %+v", rt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f serveFlags
			cmd := &cobra.Command{Use: "serve"}
			f.bind(cmd)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("Parse() error: %v", err)
			}

			rt := &config.Runtime{
				Source:      config.SourceFile,
				ConfigFile:  "config.ini",
				ListenHost:  "127.0.0.1",
				ReadTimeout: 30 * time.Second,
			}
			if err := f.apply(cmd, rt); err != nil {
				t.Fatalf("apply() error: %v", err)
			}
			tt.check(t, rt)
		})
	}
}

func TestServeFlagsRejectUnknownSource(t *testing.T) {
	_, err := execute(t, "", "serve", "--config-source", "s3")
	if err == nil || !strings.Contains(err.Error(), "unknown config source") {
		t.Fatalf("serve --config-source s3 error = %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func staticRuntime(values string) *config.Runtime {
	return &config.Runtime{
		Source:          config.SourceStatic,
		ConfigValues:    values,
		ListenHost:      "127.0.0.1",
		ReadTimeout:     2 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestRunServerMissingSourceFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	rt := staticRuntime(fmt.Sprintf("linuxpath=%s,reread_on_query=false,port=%d", missing, freePort(t)))

	err := runServer(context.Background(), rt)
	if !errors.Is(err, config.ErrFileNotFound) {
		t.Fatalf("runServer() error = %v, want ErrFileNotFound", err)
	}
}

func TestRunServerInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.txt")
	if err := os.WriteFile(path, []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rt := staticRuntime(fmt.Sprintf("linuxpath=%s,reread_on_query=maybe", path))

	if err := runServer(context.Background(), rt); !errors.Is(err, config.ErrInvalidValue) {
		t.Fatalf("runServer() error = %v, want ErrInvalidValue", err)
	}
}

func TestRunServerServesUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.txt")
	if err := os.WriteFile(path, []byte("alpha\nbeta line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	port := freePort(t)
	rt := staticRuntime(fmt.Sprintf("linuxpath=%s,reread_on_query=true,port=%d", path, port))
	rt.Tracing = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, rt) }()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	var conn net.Conn
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		conn, err = net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			break
		}
		select {
		case err := <-done:
			t.Fatalf("runServer() returned early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := conn.Write([]byte("alpha\n")); err != nil {
		t.Fatal(err)
	}
	reply, err := io.ReadAll(conn)
	conn.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(reply) != "STRING EXISTS\n" {
		t.Fatalf("reply = %q, want %q", reply, "STRING EXISTS\n")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer() after cancel = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer() did not return after cancel")
	}
}
