package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(getenv("AIVCS_ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load env file: %v\n", err)
	}

	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	defaultAddr := getenv("AIVCS_ADDR", "http://localhost:8080")

	root := flag.NewFlagSet("aivcsctl", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	addrFlag := root.String("addr", defaultAddr, "aivcsd base URL (default env AIVCS_ADDR)")
	timeoutFlag := root.Duration("timeout", 15*time.Second, "HTTP request timeout")
	verboseFlag := root.Bool("verbose", false, "trace each request to stderr")
	if err := root.Parse(args); err != nil {
		return usageError(err)
	}

	if *verboseFlag {
		enableVerboseLogging()
	}

	remaining := root.Args()
	if len(remaining) == 0 {
		return usageError(errors.New("no command specified"))
	}

	client := &apiClient{
		baseURL: strings.TrimRight(*addrFlag, "/"),
		http:    &http.Client{Timeout: *timeoutFlag},
	}

	switch remaining[0] {
	case "run":
		return handleRun(ctx, client, remaining[1:])
	case "release":
		return handleRelease(ctx, client, remaining[1:])
	case "ci-gate":
		return handleCIGate(ctx, client, remaining[1:])
	case "publish-gate":
		return handlePublishGate(ctx, client, remaining[1:])
	case "roles":
		return handleRoles(ctx, client, remaining[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command %q", remaining[0])
	}
}

func usageError(err error) error {
	printUsage()
	return err
}

func printUsage() {
	fmt.Println(`aivcsctl: control plane CLI for the run ledger, release registry, and gates

Usage:
  aivcsctl run create|append|complete|fail|cancel|show|events|list
  aivcsctl release promote|rollback|current|history
  aivcsctl ci-gate eval
  aivcsctl publish-gate eval
  aivcsctl roles pipeline

Flags:
  -addr string      aivcsd base URL (default env AIVCS_ADDR, else http://localhost:8080)
  -timeout duration  HTTP request timeout (default 15s)
  -verbose           trace each request to stderr`)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
