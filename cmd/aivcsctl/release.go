package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
)

func handleRelease(ctx context.Context, client *apiClient, args []string) error {
	if len(args) == 0 {
		fmt.Println(`Usage:
  aivcsctl release promote <name> --spec-digest <digest> --by <who> [--version <v>] [--notes <text>] [--approval-id <id>]
  aivcsctl release rollback <name> [--approval-id <id>]
  aivcsctl release current <name>
  aivcsctl release history <name>`)
		return nil
	}

	if len(args) < 2 {
		return errors.New("release name required")
	}
	name := args[1]

	switch args[0] {
	case "promote":
		fs := flag.NewFlagSet("release promote", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		specDigest := fs.String("spec-digest", "", "spec digest (required)")
		by := fs.String("by", "", "promoted by")
		version := fs.String("version", "", "version label")
		notes := fs.String("notes", "", "release notes")
		approvalID := fs.String("approval-id", "", "approval id, if required")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *specDigest == "" {
			return errors.New("spec-digest is required")
		}
		path := "/v1/releases/" + name + "/promote"
		if *approvalID != "" {
			path += "?approval_id=" + *approvalID
		}
		payload := map[string]any{
			"spec_digest": *specDigest,
			"metadata": map[string]any{
				"version_label": *version,
				"promoted_by":   *by,
				"notes":         *notes,
			},
		}
		data, err := client.request(ctx, http.MethodPost, path, payload)
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "rollback":
		fs := flag.NewFlagSet("release rollback", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		approvalID := fs.String("approval-id", "", "approval id, if required")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		path := "/v1/releases/" + name + "/rollback"
		if *approvalID != "" {
			path += "?approval_id=" + *approvalID
		}
		data, err := client.request(ctx, http.MethodPost, path, nil)
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "current":
		data, err := client.request(ctx, http.MethodGet, "/v1/releases/"+name+"/current", nil)
		if err != nil {
			return err
		}
		prettyPrint(data)
	case "history":
		data, err := client.request(ctx, http.MethodGet, "/v1/releases/"+name+"/history", nil)
		if err != nil {
			return err
		}
		prettyPrint(data)
	default:
		return fmt.Errorf("unknown release subcommand %q", args[0])
	}
	return nil
}
