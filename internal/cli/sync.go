package cli

import (
	"expense-cli/internal/remote"

	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Send queued requests to the remote and apply its answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			email, err := currentEmail(ctx, app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg := app.config().Remote
			res, err := remote.Flush(ctx, db, remote.NewClient(cfg, email), app.log)
			if err != nil {
				return writeErr(cmd, err)
			}

			hints := []string{}
			if res.Offline {
				hints = append(hints, "remote unreachable; queued requests stay in the outbox until the next `expense sync`")
			}
			endpoint := cfg.Endpoint
			if endpoint == "" {
				endpoint = "loopback"
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"meta": map[string]any{"endpoint": endpoint, "hints": hints},
			})
		},
	}
	cmd.AddCommand(newSyncStatusCmd(app))
	return cmd
}

func newSyncStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the network state and the queued requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			network, err := db.Network(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			pending, err := db.Pending(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			queued := make([]map[string]any, 0, len(pending))
			for _, req := range pending {
				queued = append(queued, map[string]any{
					"seq":       req.Seq,
					"id":        req.ID,
					"command":   req.Command,
					"createdAt": req.CreatedAt,
				})
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"network": network, "pending": queued},
				"meta": map[string]any{"count": len(queued)},
			})
		},
	}
}
