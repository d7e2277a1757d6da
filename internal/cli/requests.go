package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/permission"
	"expense-cli/internal/store"

	"github.com/spf13/cobra"
)

func newRequestsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"request"},
		Short:   "Money requests (expenses on a report)",
	}
	cmd.AddCommand(newRequestsCreateCmd(app))
	return cmd
}

func newRequestsCreateCmd(app *App) *cobra.Command {
	var amount, currency, merchant, behaviour string
	var withLocation bool
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "create <report-id>",
		Short: "Add an expense to a report (optionally tagged with the device location)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := mutate.ParseAmount(amount)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx := cmd.Context()
			db, err := loadDB(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			r, err := db.Report(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if r == nil {
				return writeErr(cmd, errNotFound("report", args[0]))
			}
			email, err := currentEmail(ctx, app, db)
			if err != nil {
				return writeErr(cmd, err)
			}

			in := mutate.MoneyRequest{Amount: cents, Currency: currency, Merchant: merchant, ActorEmail: email}
			outcome := "skipped"
			if withLocation {
				if behaviour == "" {
					behaviour = app.config().Permissions.Location
				}
				b, err := permission.ParseBehaviour(behaviour)
				if err != nil {
					return writeErr(cmd, err)
				}
				tr, err := app.translator()
				if err != nil {
					return writeErr(cmd, err)
				}
				outcome, err = runLocationFlow(ctx, app, db, b, tr, bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr())
				if err != nil {
					return writeErr(cmd, err)
				}
				if outcome == "granted" {
					loc := model.Location{Lat: app.config().Permissions.Latitude, Lng: app.config().Permissions.Longitude}
					if cmd.Flags().Changed("lat") {
						loc.Lat = lat
					}
					if cmd.Flags().Changed("lng") {
						loc.Lng = lng
					}
					in.Location = &loc
				}
			}

			res, tx, err := mutate.CreateMoneyRequest(r, in)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := apply(ctx, app, db, res); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("money request created", "report", r.ReportID, "transaction", tx.TransactionID, "location", outcome)
			return writeOut(cmd, app, map[string]any{
				"data": tx,
				"meta": map[string]any{"locationPermission": outcome, "requestId": res.Request.ID},
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount in major units (e.g. 12.50)")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code (default: the report's currency)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "Merchant name")
	cmd.Flags().BoolVar(&withLocation, "with-location", false, "Ask for location access and attach the location when granted")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Device latitude (default: config permissions.latitude)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Device longitude (default: config permissions.longitude)")
	cmd.Flags().StringVar(&behaviour, "permission", "", "How the device answers the OS dialog: grant|deny|block|ask (default: config, then ask)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// runLocationFlow drives the permission prompt on the terminal: y confirms,
// n cancels, anything else (including EOF) dismisses it like a backdrop tap.
// It returns granted, denied or reset.
func runLocationFlow(ctx context.Context, app *App, db *store.DB, b permission.Behaviour, tr *i18n.Translator, in *bufio.Reader, out io.Writer) (string, error) {
	dev := permission.NewDevicePermission(db, "location", b, permission.TerminalAsker{In: in, Out: out})
	settings := permission.NewSystemSettings(app.config().Permissions.Settings)

	outcome := "reset"
	flow := permission.New(dev, settings, permission.Handlers{
		OnGrant: func() { outcome = "granted" },
		OnDeny:  func() { outcome = "denied" },
		OnReset: func() { outcome = "reset" },
	}, permission.WithLogger(app.log))

	if err := flow.SetTrigger(ctx, true); err != nil {
		return "", err
	}
	for flow.Prompt().Visible {
		p := flow.Prompt()
		fmt.Fprintf(out, "%s\n%s\n[y] %s / [n] %s: ", tr.T(p.TitleKey), tr.T(p.MessageKey), tr.T(p.ConfirmKey), tr.T(p.CancelKey))
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			err = flow.Confirm(ctx)
		case "n", "no":
			err = flow.Cancel()
		default:
			err = flow.Dismiss()
		}
		if err != nil {
			return "", err
		}
	}
	return outcome, nil
}
