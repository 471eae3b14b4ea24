package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-admin-session/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func requestCmd(current func() *app) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:     "request METHOD PATH",
		Short:   "Send one authenticated request and print the JSON reply",
		Example: `  adminctl request GET /job-offers
  adminctl request POST /services --data '{"name":"cleaning"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body []byte
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data is not valid JSON")
				}
				body = []byte(data)
			}
			req := pipeline.NewRequest(strings.ToUpper(args[0]), args[1], body)

			resp, err := current().gateway.Client().Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printBody(cmd.OutOrStdout(), resp.Body)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func fetchCmd(current func() *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch PATH...",
		Short: "GET several resources concurrently",
		Long: `GET several resources concurrently. If the session expired, the
requests share a single token refresh and are then replayed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			client := current().gateway.Client()
			bodies := make([]json.RawMessage, len(paths))

			g, ctx := errgroup.WithContext(cmd.Context())
			if limit > 0 {
				g.SetLimit(limit)
			}
			for i, path := range paths {
				g.Go(func() error {
					resp, err := client.Do(ctx, pipeline.NewRequest("GET", path, nil))
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					bodies[i] = resp.Body
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, path := range paths {
				fmt.Fprintf(out, "# %s\n", path)
				if err := printBody(out, bodies[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "parallel", 0, "Maximum concurrent requests (0 for no limit)")
	return cmd
}

// printBody pretty-prints JSON and writes anything else verbatim.
func printBody(w io.Writer, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
	_, err := fmt.Fprintln(w, pretty.String())
	return err
}
