package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the session against the configured API and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}
			cfg, err := goSession.LoadConfigFromEnv()
			if err != nil {
				return err
			}
			store, err := goSession.New().WithConfig(cfg).WithLogger(logger).Build()
			if err != nil {
				return fmt.Errorf("build store: %w", err)
			}
			defer store.Close()

			return printStatus(cmd.Context(), store, cmd.OutOrStdout(), timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the session check")
	return cmd
}

func printStatus(ctx context.Context, store *goSession.Store, w io.Writer, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	store.Mount(ctx)
	session, err := store.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for session: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		goSession.Session
		Status string `json:"status"`
	}{Session: session, Status: session.Status().String()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}
