package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/R3E-Network/aivcs/infrastructure/config"
	"github.com/R3E-Network/aivcs/infrastructure/logging"
	"github.com/R3E-Network/aivcs/infrastructure/metrics"
	"github.com/R3E-Network/aivcs/internal/app"
	"github.com/R3E-Network/aivcs/internal/app/httpapi"
	"github.com/R3E-Network/aivcs/internal/enterprise"
	"github.com/R3E-Network/aivcs/internal/trace"
)

func main() {
	loadDotEnv()

	addr := flag.String("addr", "", "HTTP listen address (defaults to env ADDR or :8080)")
	flag.Parse()

	logger := logging.NewFromEnv("aivcsd")
	m := metrics.New("aivcsd")

	application := app.New()
	svc := httpapi.NewService(application, logger, m)

	scheduler := startScheduler(logger, traceDir(), retentionPolicy(), map[string]*enterprise.SloTracker{})
	defer scheduler.Stop()

	listenAddr := determineAddr(*addr)
	timeouts := config.GetDefaultTimeouts()
	server := &http.Server{
		Addr:         listenAddr,
		Handler:      svc.Handler(),
		ReadTimeout:  timeouts.HTTPRead,
		WriteTimeout: timeouts.HTTPWrite,
	}

	go func() {
		log.Printf("aivcsd listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

// loadDotEnv loads AIVCS_ENV_FILE (default ".env") if present. A missing
// file is not an error; it is the expected case in production, where
// configuration comes from the environment directly.
func loadDotEnv() {
	path := config.GetEnv("AIVCS_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not load %s: %v", path, err)
	}
}

func determineAddr(flagAddr string) string {
	if trimmed := strings.TrimSpace(flagAddr); trimmed != "" {
		return trimmed
	}
	return config.GetEnv("ADDR", ":8080")
}

// traceDir returns the directory run-trace artifacts are written to, for
// the retention-pruning job.
func traceDir() string {
	return config.GetEnv("AIVCS_TRACE_DIR", "traces")
}

// retentionPolicy loads AIVCS_RETENTION_POLICY_FILE if set, otherwise
// falls back to a built-in default (keep at most 500 runs).
func retentionPolicy() trace.RetentionPolicy {
	path := config.GetEnv("AIVCS_RETENTION_POLICY_FILE", "")
	if path == "" {
		defaultMax := 500
		return trace.RetentionPolicy{MaxRuns: &defaultMax}
	}
	policy, err := config.LoadRetentionPolicy(path)
	if err != nil {
		log.Printf("warning: could not load retention policy %s: %v", path, err)
		defaultMax := 500
		return trace.RetentionPolicy{MaxRuns: &defaultMax}
	}
	return policy
}
