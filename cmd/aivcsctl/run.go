package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
)

func handleRun(ctx context.Context, client *apiClient, args []string) error {
	if len(args) == 0 {
		fmt.Println(`Usage:
  aivcsctl run create --spec-digest <digest> --agent <name>
  aivcsctl run append <run-id> --kind <kind> --payload '<json>'
  aivcsctl run complete <run-id> --total-events N --duration-ms N --success
  aivcsctl run fail <run-id> --total-events N --duration-ms N
  aivcsctl run cancel <run-id> --total-events N --duration-ms N
  aivcsctl run show <run-id>
  aivcsctl run events <run-id>
  aivcsctl run list [--spec-digest <digest>]`)
		return nil
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("run create", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		specDigest := fs.String("spec-digest", "", "spec digest (required)")
		agent := fs.String("agent", "", "agent name")
		gitSHA := fs.String("git-sha", "", "git SHA")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *specDigest == "" {
			return errors.New("spec-digest is required")
		}
		payload := map[string]any{
			"spec_digest": *specDigest,
			"metadata": map[string]any{
				"agent_name": *agent,
				"git_sha":    *gitSHA,
			},
		}
		data, err := client.request(ctx, http.MethodPost, "/v1/runs", payload)
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "append":
		if len(args) < 2 {
			return errors.New("run id required")
		}
		runID := args[1]
		fs := flag.NewFlagSet("run append", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		kind := fs.String("kind", "", "event kind (required)")
		payloadStr := fs.String("payload", "{}", "JSON payload object")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *kind == "" {
			return errors.New("kind is required")
		}
		payload, err := parseJSONMap(*payloadStr)
		if err != nil {
			return fmt.Errorf("payload: %w", err)
		}
		data, err := client.request(ctx, http.MethodPost, "/v1/runs/"+runID+"/events", map[string]any{
			"kind":    *kind,
			"payload": payload,
		})
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "complete":
		return handleTerminalTransition(ctx, client, "complete", args[1:])
	case "fail":
		return handleTerminalTransition(ctx, client, "fail", args[1:])
	case "cancel":
		return handleTerminalTransition(ctx, client, "cancel", args[1:])
	case "show":
		if len(args) < 2 {
			return errors.New("run id required")
		}
		data, err := client.request(ctx, http.MethodGet, "/v1/runs/"+args[1], nil)
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "events":
		if len(args) < 2 {
			return errors.New("run id required")
		}
		data, err := client.request(ctx, http.MethodGet, "/v1/runs/"+args[1]+"/events", nil)
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "list":
		fs := flag.NewFlagSet("run list", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		specDigest := fs.String("spec-digest", "", "filter by spec digest")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		path := "/v1/runs"
		if *specDigest != "" {
			path += "?spec_digest=" + *specDigest
		}
		data, err := client.request(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		prettyPrint(data)
	default:
		return fmt.Errorf("unknown run subcommand %q", args[0])
	}
	return nil
}

func handleTerminalTransition(ctx context.Context, client *apiClient, verb string, args []string) error {
	if len(args) < 1 {
		return errors.New("run id required")
	}
	runID := args[0]

	fs := flag.NewFlagSet("run "+verb, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	totalEvents := fs.Int("total-events", 0, "total event count")
	durationMs := fs.Int64("duration-ms", 0, "run duration in milliseconds")
	success := fs.Bool("success", false, "whether the run succeeded")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	payload := map[string]any{
		"total_events": *totalEvents,
		"duration_ms":  *durationMs,
		"success":      *success,
	}
	data, err := client.request(ctx, http.MethodPost, "/v1/runs/"+runID+"/"+verb, payload)
	if err != nil {
		return err
	}
	prettyPrint(data)
	return nil
}
