package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
)

func handleCIGate(ctx context.Context, client *apiClient, args []string) error {
	if len(args) == 0 || args[0] != "eval" {
		fmt.Println(`Usage:
  aivcsctl ci-gate eval --result '<json CIResult>'`)
		if len(args) == 0 {
			return nil
		}
		return fmt.Errorf("unknown ci-gate subcommand %q", args[0])
	}

	fs := flag.NewFlagSet("ci-gate eval", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	resultStr := fs.String("result", "", "JSON-encoded CIResult (required)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	result, err := parseJSONMap(*resultStr)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	if result == nil {
		return errors.New("result is required")
	}
	data, err := client.request(ctx, http.MethodPost, "/v1/ci-gate/evaluate", map[string]interface{}{"result": result})
	if err != nil {
		return err
	}
	prettyPrint(data)
	return nil
}

func handlePublishGate(ctx context.Context, client *apiClient, args []string) error {
	if len(args) == 0 || args[0] != "eval" {
		fmt.Println(`Usage:
  aivcsctl publish-gate eval --candidate '<json PublishCandidate>'`)
		if len(args) == 0 {
			return nil
		}
		return fmt.Errorf("unknown publish-gate subcommand %q", args[0])
	}

	fs := flag.NewFlagSet("publish-gate eval", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	candidateStr := fs.String("candidate", "", "JSON-encoded PublishCandidate (required)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	candidate, err := parseJSONMap(*candidateStr)
	if err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	if candidate == nil {
		return errors.New("candidate is required")
	}
	data, err := client.request(ctx, http.MethodPost, "/v1/publish-gate/evaluate", candidate)
	if err != nil {
		return err
	}
	prettyPrint(data)
	return nil
}
