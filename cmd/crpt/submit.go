package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adamwoolhether/crpt/documents"
)

type submitFlags struct {
	workers   int
	signature string
}

func newSubmitCmd(root *rootFlags) *cobra.Command {
	var flags submitFlags

	cmd := &cobra.Command{
		Use:   "submit FILE...",
		Short: "Submit JSON documents to the registry",
		Long: `Submit each file as one create-document call.

All workers share one throttle, so adding workers raises concurrency but
never the request rate. Each response body is printed after its file
name; the command fails if any file fails.

Examples:
  crpt submit doc.json
  crpt submit --workers 8 outbox/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", flags.workers)
			}

			a, err := root.load(cmd)
			if err != nil {
				return err
			}

			sig, err := a.signature(flags.signature)
			if err != nil {
				return err
			}

			api, err := a.api()
			if err != nil {
				return err
			}

			return submitAll(cmd, api, sig, args, flags.workers)
		},
	}

	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 4, "concurrent submissions")
	cmd.Flags().StringVar(&flags.signature, "signature", "", "detached signature, overrides api.signature")

	return cmd
}

// submitAll submits every file, even after a failure, and prints results
// in argument order.
func submitAll(cmd *cobra.Command, api *documents.API, sig string, files []string, workers int) error {
	bodies := make([]string, len(files))
	failures := make([]error, len(files))

	// The group only bounds concurrency; failures are kept per file so
	// one bad file never cancels the rest.
	var g errgroup.Group
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			body, err := submitFile(cmd.Context(), api, sig, file)
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", file, err)
				return nil
			}
			bodies[i] = body
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	for i, file := range files {
		if failures[i] == nil {
			fmt.Fprintf(out, "%s\t%s\n", file, bodies[i])
		}
	}

	return errors.Join(failures...)
}

func submitFile(ctx context.Context, api *documents.API, sig, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return api.CreateDocument(ctx, json.RawMessage(data), sig)
}
