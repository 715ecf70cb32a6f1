package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skinscan-client/internal/config"
	"skinscan-client/internal/metrics"
)

const usage = `usage: skinscan [-server URL] <command> [flags]

commands:
  status                          show session and admin state
  guard [-admin]                  run the route guard
  redirect                        run the logged-in redirect
  login -user U -password P       start a session
  logout                          end the session and forget cookies
  register -user U -password P -age N -sex S
  passwd -password P              change the current password
  models                          list models and the active one
  swap -version V                 make V the active model
  delete-model -version V         delete model V
  requests [-all]                 list classification requests
  request -id N                   show one request
  upload -file F -localization L  submit an image for classification
  fields                          print the retraining form schema
  retrain [-set id=value ...]     start a retraining job
  jobs                            list training jobs
  clear-jobs                      delete finished training jobs
  datapoints                      count training images
  users                           list accounts
  delete-user -user U             delete an account
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}

	fs := flag.NewFlagSet("skinscan", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	server := fs.String("server", "", "Override backend base URL (e.g. https://skinscan.example.org)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if *server != "" {
		cfg.BackendURL = *server
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(2)
		}
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel, os.Stderr)
	logConfig(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	shutdownMetrics := serveMetrics(cfg.MetricsAddr, logger)

	app, err := newApp(cfg, logger, m, os.Stdout)
	if err != nil {
		logger.Error("failed to initialise client", "err", err)
		os.Exit(2)
	}

	err = app.run(ctx, fs.Arg(0), fs.Args()[1:])
	app.close()
	shutdownMetrics()

	if errors.Is(err, errUsage) {
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", fs.Arg(0), "err", err)
		os.Exit(1)
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "warn", "warning":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

func logConfig(logger *slog.Logger, cfg config.Config) {
	logger.Debug("configuration",
		"backend_url", cfg.BackendURL,
		"http_timeout", cfg.HTTPTimeout,
		"cookie_store", string(cfg.CookieStore),
		"cookie_path", cfg.CookiePath,
		"fields_file", cfg.FieldsFile,
		"metrics_addr", cfg.MetricsAddr,
		"log_level", cfg.LogLevel,
	)
}

// serveMetrics exposes /metrics for the lifetime of the command when addr
// is set. The returned function stops the listener.
func serveMetrics(addr string, logger *slog.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
