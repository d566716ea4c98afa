package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/api"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/config"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/core"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/factory"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/logger"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/lookup"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/metrics"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/tracing"
)

type serveFlags struct {
	configFile   string
	configSource string
	configValues string
	configMap    string
	configMapKey string
	namespace    string
	debug        bool
	logFile      string
	host         string
	readTimeout  time.Duration
	healthPort   string
	reusePort    bool
	tracing      bool
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lookup server",
		Long: `Start the lookup server.

Runtime settings come from the environment (a .env file in the working
directory is loaded first) and can be overridden with flags. Engine
settings (linuxpath, reread_on_query, port) come from the config source:
an INI file (default config.ini), a static key=value list, or a
Kubernetes ConfigMap.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env, real environment variables take precedence
			_ = godotenv.Load()

			rt := config.RuntimeFromEnv()
			if err := f.apply(cmd, rt); err != nil {
				return err
			}
			if err := rt.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, rt)
		},
	}

	f.bind(cmd)

	return cmd
}

// bind registers the serve flags on cmd.
func (f *serveFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.configFile, "config", "c", "", "Path to the INI config file (env CONFIG_FILE)")
	flags.StringVar(&f.configSource, "config-source", "", "Config source: file, static or kubernetes (env CONFIG_SOURCE)")
	flags.StringVar(&f.configValues, "set", "", "Static settings, e.g. linuxpath=/srv/a.txt,reread_on_query=false (env CONFIG_VALUES)")
	flags.StringVar(&f.configMap, "configmap", "", "Kubernetes ConfigMap name (env CONFIGMAP_NAME)")
	flags.StringVar(&f.configMapKey, "configmap-key", "", "ConfigMap entry holding a whole config file (env CONFIGMAP_KEY)")
	flags.StringVarP(&f.namespace, "namespace", "n", "", "Kubernetes namespace (env NAMESPACE)")
	flags.BoolVar(&f.debug, "debug", false, "Enable debug logging (env DEBUG)")
	flags.StringVar(&f.logFile, "log-file", "", "Also append logs to this file (env LOG_FILE)")
	flags.StringVar(&f.host, "host", "", "Listen address (env LISTEN_HOST, default 127.0.0.1)")
	flags.DurationVar(&f.readTimeout, "read-timeout", 0, "Wait for a client's query before closing (env READ_TIMEOUT, default 30s)")
	flags.StringVar(&f.healthPort, "health-port", "", "Port for /health, /ready and /metrics; empty disables (env HEALTH_SERVER_PORT)")
	flags.BoolVar(&f.reusePort, "reuse-port", false, "Set SO_REUSEPORT so several servers can share the port (env REUSE_PORT)")
	flags.BoolVar(&f.tracing, "trace", false, "Log an OpenTelemetry span for every lookup (env TRACING)")
}

// apply overrides runtime settings with explicitly set flags.
func (f *serveFlags) apply(cmd *cobra.Command, rt *config.Runtime) error {
	changed := cmd.Flags().Changed

	if changed("config-source") {
		mode, err := config.ParseSourceMode(f.configSource)
		if err != nil {
			return err
		}
		rt.Source = mode
	}
	if changed("config") {
		rt.ConfigFile = f.configFile
		if !changed("config-source") {
			rt.Source = config.SourceFile
		}
	}
	if changed("set") {
		rt.ConfigValues = f.configValues
		if !changed("config-source") {
			rt.Source = config.SourceStatic
		}
	}
	if changed("configmap") {
		rt.ConfigMapName = f.configMap
		if !changed("config-source") {
			rt.Source = config.SourceKubernetes
		}
	}
	if changed("configmap-key") {
		rt.ConfigMapKey = f.configMapKey
	}
	if changed("namespace") {
		rt.Namespace = f.namespace
	}
	if changed("debug") {
		rt.Debug = f.debug
	}
	if changed("log-file") {
		rt.LogFile = f.logFile
	}
	if changed("host") {
		rt.ListenHost = f.host
	}
	if changed("read-timeout") {
		rt.ReadTimeout = f.readTimeout
	}
	if changed("health-port") {
		rt.HealthServerPort = f.healthPort
	}
	if changed("reuse-port") {
		rt.ReusePort = f.reusePort
	}
	if changed("trace") {
		rt.Tracing = f.tracing
	}

	return nil
}

func runServer(ctx context.Context, rt *config.Runtime) error {
	log, closer, err := logger.New(logger.Options{Debug: rt.Debug, File: rt.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info("Starting textline server...",
		"config_source", rt.Source,
		"listen_host", rt.ListenHost,
		"read_timeout", rt.ReadTimeout)

	// Resolve engine settings; any failure here stops startup
	src, err := factory.NewSourceFactory(rt, log).Create(ctx)
	if err != nil {
		log.Error("Failed to create config source", "error", err)
		return err
	}
	values, err := src.Load(ctx)
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		return err
	}
	cfg, err := config.Load(values)
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		return err
	}
	log.Info("Configuration loaded",
		"port", cfg.Port,
		"linuxpath", cfg.SourcePath,
		"reread_on_query", cfg.RereadOnQuery)

	m := metrics.New()

	idx, err := factory.NewIndexFactory(cfg, log, m).Create()
	if err != nil {
		log.Error("Failed to create index", "error", err)
		return err
	}

	handlerOpts := []lookup.Option{
		lookup.WithLogger(log),
		lookup.WithMetrics(m),
		lookup.WithReadTimeout(rt.ReadTimeout),
	}
	if rt.Tracing {
		tp := tracing.NewProvider(log)
		defer tp.Shutdown(context.Background())
		handlerOpts = append(handlerOpts, lookup.WithTracerProvider(tp))
	}
	handler := lookup.NewHandler(idx, handlerOpts...)

	var healthServer *api.HealthServer
	if rt.HealthServerPort != "" {
		healthServer = api.NewHealthServer(":"+rt.HealthServerPort, m.Registry, log)
		healthServer.Start()
	}

	listener, err := core.Listen(ctx, core.ListenOptions{
		Host:      rt.ListenHost,
		Port:      cfg.Port,
		ReusePort: rt.ReusePort,
	})
	if err != nil {
		log.Error("Failed to start listener", "host", rt.ListenHost, "port", cfg.Port, "error", err)
		return err
	}
	log.Info("Server listening", "addr", listener.Addr().String(), "strategy", idx.Strategy())

	server := &core.Server{
		Listener:          listener,
		ConnectionHandler: handler,
		Logger:            log,
	}

	if healthServer != nil {
		healthServer.SetReady(true)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdown(log, server, healthServer, rt.ShutdownTimeout)
	}()

	// Start serving (blocking)
	if err := server.Serve(); err != nil {
		log.Error("Server error", "error", err)
		return err
	}
	<-stopped
	log.Info("Bye!")
	return nil
}

func shutdown(log *slog.Logger, server *core.Server, healthServer *api.HealthServer, timeout time.Duration) {
	log.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if healthServer != nil {
		healthServer.SetReady(false)
		if err := healthServer.Stop(ctx); err != nil {
			log.Warn("Health server shutdown error", "error", err)
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("Shutdown did not complete cleanly", "error", err)
	}
}
