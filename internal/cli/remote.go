package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"expense-cli/internal/model"
	"expense-cli/internal/remote"
	"expense-cli/internal/store"

	"github.com/spf13/cobra"
)

func newRemoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Development remote API",
	}
	cmd.AddCommand(newRemoteServeCmd(app))
	return cmd
}

func newRemoteServeCmd(app *App) *cobra.Command {
	var addr string
	var fail []string
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an in-memory expense API for `expense sync` to talk to",
		Long: strings.TrimSpace(`
Serve a development API on a local HTTP server.

Point a workspace at it with remote.endpoint in ~/.expense/config.yaml.
Commands named with --fail answer with an error code, which exercises the
failure data of queued requests.
`),
		Example: strings.TrimSpace(`
# Serve the current workspace's tag lists on localhost
expense remote serve --addr 127.0.0.1:3340

# Make every tag toggle fail
expense remote serve --fail SetPolicyTagsEnabled
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("remote: missing --addr"))
			}

			cfg := remote.ServerConfig{Fail: fail, Logger: app.logger().With("component", "remote")}
			if seed {
				db, err := loadDB(cmd.Context(), app)
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.Tags, err = allPolicyTags(cmd.Context(), db)
				_ = db.Close()
				if err != nil {
					return writeErr(cmd, err)
				}
			}
			srv := remote.NewServer(cfg)

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"policies":  len(cfg.Tags),
					"failing":   fail,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "expense remote running at %s\n", url)

			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdownCtx)
			}()
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3340", "Bind address (host:port or :port)")
	cmd.Flags().StringSliceVar(&fail, "fail", nil, "Command names to answer with a failure (repeatable)")
	cmd.Flags().BoolVar(&seed, "seed", true, "Start with the tag lists of the current workspace")
	return cmd
}

func allPolicyTags(ctx context.Context, db *store.DB) (map[string]model.PolicyTagLists, error) {
	raw, err := db.Collection(ctx, store.PolicyTagsPrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.PolicyTagLists, len(raw))
	for key, b := range raw {
		var lists model.PolicyTagLists
		if err := json.Unmarshal(b, &lists); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[store.MemberID(store.PolicyTagsPrefix, key)] = lists
	}
	return out, nil
}
