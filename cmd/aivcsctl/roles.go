package main

import (
	"context"
	"fmt"
	"net/http"
)

func handleRoles(ctx context.Context, client *apiClient, args []string) error {
	if len(args) == 0 || args[0] != "pipeline" {
		fmt.Println(`Usage:
  aivcsctl roles pipeline`)
		if len(args) == 0 {
			return nil
		}
		return fmt.Errorf("unknown roles subcommand %q", args[0])
	}

	data, err := client.request(ctx, http.MethodGet, "/v1/roles/pipeline", nil)
	if err != nil {
		return err
	}
	prettyPrint(data)
	return nil
}
