package cli

import (
	"context"
	"fmt"
	"strings"

	"expense-cli/internal/i18n"
	"expense-cli/internal/model"
	"expense-cli/internal/mutate"
	"expense-cli/internal/perm"
	"expense-cli/internal/policy"
	"expense-cli/internal/store"
	"expense-cli/internal/tags"

	"github.com/spf13/cobra"
)

// tagsOpts are the flags every tags subcommand shares.
type tagsOpts struct {
	policyID    string
	orderWeight int
}

func (o *tagsOpts) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.policyID, "policy", envOr("EXPENSE_POLICY", ""), "Policy id (workspace)")
	cmd.Flags().IntVar(&o.orderWeight, "order-weight", 0, "Tag list order weight (0 is the first list)")
}

func newTagsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Workspace tags",
	}
	cmd.AddCommand(newTagsListCmd(app))
	cmd.AddCommand(newTagsSelectAllCmd(app))
	cmd.AddCommand(newTagsSetEnabledCmd(app, true))
	cmd.AddCommand(newTagsSetEnabledCmd(app, false))
	cmd.AddCommand(newTagsDeleteCmd(app))
	cmd.AddCommand(newTagsRequireCmd(app))
	cmd.AddCommand(newTagsClearErrorsCmd(app))
	cmd.AddCommand(newTagsRefreshCmd(app))
	return cmd
}

// tagsTarget is a policy the current account may manage tags of.
type tagsTarget struct {
	db     *store.DB
	policy *model.Policy
	lists  model.PolicyTagLists
	email  string
}

// openTagsTarget opens the workspace and enforces the tags access rules. The
// caller closes t.db.
func openTagsTarget(ctx context.Context, app *App, o tagsOpts) (*tagsTarget, error) {
	policyID := strings.TrimSpace(o.policyID)
	if policyID == "" {
		return nil, errMissingPolicy
	}
	db, err := loadDB(ctx, app)
	if err != nil {
		return nil, err
	}
	t := &tagsTarget{db: db}
	fail := func(err error) (*tagsTarget, error) {
		_ = db.Close()
		return nil, err
	}
	if t.policy, err = db.Policy(ctx, policy.IDOrDefault(policyID)); err != nil {
		return fail(err)
	}
	if t.policy == nil {
		return fail(errNotFound("policy", policyID))
	}
	if t.email, err = currentEmail(ctx, app, db); err != nil {
		return fail(err)
	}
	if err := perm.CanManageTags(t.policy, t.email); err != nil {
		return fail(err)
	}
	if t.lists, err = db.PolicyTags(ctx, t.policy.ID); err != nil {
		return fail(err)
	}
	cleared, err := clearEmptyRequired(ctx, app, db, t.policy.ID, t.lists)
	if err != nil {
		return fail(err)
	}
	if cleared {
		if t.lists, err = db.PolicyTags(ctx, t.policy.ID); err != nil {
			return fail(err)
		}
	}
	return t, nil
}

// clearEmptyRequired turns "required" off on every list left without an
// enabled tag, so expenses stay submittable. It reports whether anything was
// queued.
func clearEmptyRequired(ctx context.Context, app *App, db *store.DB, policyID string, lists model.PolicyTagLists) (bool, error) {
	cleared := false
	for _, l := range policy.SortedTagLists(lists) {
		if !tags.ShouldClearRequired(l) {
			continue
		}
		res, err := mutate.SetTagsRequired(policyID, lists, false, l.OrderWeight)
		if err != nil {
			return cleared, err
		}
		if err := apply(ctx, app, db, res); err != nil {
			return cleared, err
		}
		app.logger().Info("required cleared on list without enabled tags", "policy", policyID, "list", l.Name)
		cleared = true
	}
	return cleared, nil
}

func (t *tagsTarget) screen(ctx context.Context, tr *i18n.Translator, o tagsOpts, sel tags.Selection) (tags.Screen, error) {
	network, err := t.db.Network(ctx)
	if err != nil {
		return tags.Screen{}, err
	}
	return tags.BuildScreen(tags.ScreenInput{
		Policy:      t.policy,
		Lists:       t.lists,
		OrderWeight: o.orderWeight,
		Selection:   sel,
		Offline:     network.IsOffline,
		Compare:     tr.Comparer(),
	}), nil
}

func selectionOf(names []string) tags.Selection {
	sel := tags.Selection{}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			sel[n] = true
		}
	}
	return sel
}

// bulkLabels translates the dropdown labels so scripts see the same copy as the TUI.
func bulkLabels(tr *i18n.Translator, actions []tags.BulkAction) []map[string]any {
	out := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		out = append(out, map[string]any{
			"kind":  a.Kind,
			"count": a.Count,
			"names": a.Names,
			"label": tr.T(a.LabelKey),
		})
	}
	return out
}

func newTagsListCmd(app *App) *cobra.Command {
	var o tagsOpts
	var selected []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tags of a tag list, sorted for the current locale",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()
			tr, err := app.translator()
			if err != nil {
				return writeErr(cmd, err)
			}

			s, err := t.screen(ctx, tr, o, selectionOf(selected))
			if err != nil {
				return writeErr(cmd, err)
			}
			meta := map[string]any{
				"count":       len(s.Items),
				"loading":     s.Loading,
				"header":      s.Header,
				"bulkActions": bulkLabels(tr, s.BulkActions),
			}
			if s.Header.Visible {
				meta["selectedLabel"] = tr.T(i18n.CommonSelected, s.Header.SelectedCount)
			}
			if !s.Loading && len(s.Items) == 0 {
				meta["emptyText"] = tr.T(i18n.TagsEmpty)
			}
			return writeOut(cmd, app, map[string]any{"data": s, "meta": meta})
		},
	}
	o.bind(cmd)
	cmd.Flags().StringArrayVar(&selected, "select", nil, "Selected tag names (repeatable); derives the bulk actions")
	return cmd
}

func newTagsSelectAllCmd(app *App) *cobra.Command {
	var o tagsOpts
	var selected []string

	cmd := &cobra.Command{
		Use:   "select-all",
		Short: "Toggle-all over the current selection and show the resulting bulk actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()
			tr, err := app.translator()
			if err != nil {
				return writeErr(cmd, err)
			}

			before, err := t.screen(ctx, tr, o, selectionOf(selected))
			if err != nil {
				return writeErr(cmd, err)
			}
			after, err := t.screen(ctx, tr, o, before.Selection.ToggleAll(before.Items))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"selected":    after.Selection.Names(),
					"bulkActions": bulkLabels(tr, after.BulkActions),
				},
				"meta": map[string]any{"header": after.Header},
			})
		},
	}
	o.bind(cmd)
	cmd.Flags().StringArrayVar(&selected, "select", nil, "Currently selected tag names (repeatable)")
	return cmd
}

func newTagsSetEnabledCmd(app *App, enabled bool) *cobra.Command {
	var o tagsOpts
	use, short := "disable", "Disable tags"
	if enabled {
		use, short = "enable", "Enable tags"
	}

	cmd := &cobra.Command{
		Use:   use + " <tag-name>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()

			set := map[string]bool{}
			for _, name := range args {
				set[name] = enabled
			}
			res, err := mutate.SetTagsEnabled(t.policy.ID, t.lists, set, o.orderWeight)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := apply(ctx, app, t.db, res); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("tags updated", "policy", t.policy.ID, "enabled", enabled, "count", len(set))
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"enabled": enabled, "tags": selectionOf(args).Names()},
				"meta": map[string]any{"requestId": res.Request.ID},
			})
		},
	}
	o.bind(cmd)
	return cmd
}

func newTagsDeleteCmd(app *App) *cobra.Command {
	var o tagsOpts

	cmd := &cobra.Command{
		Use:   "delete <tag-name>...",
		Short: "Delete tags from the first tag list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()

			// Deletion follows the bulk dropdown: no delete entry, no delete.
			sel := selectionOf(args)
			bc := tags.NewBulkContext(t.policy, t.lists)
			list, _ := policy.TagList(t.lists, 0)
			actions := tags.BulkActions(sel.Names(), tags.KeyByName(tags.BuildItems(list, sel, true, nil)), bc)
			if _, ok := tags.FindBulkAction(actions, tags.BulkDelete); !ok {
				return writeErr(cmd, bulkUnavailableError{kind: "delete", policyID: t.policy.ID})
			}

			res, err := mutate.DeleteTags(t.policy.ID, t.lists, sel.Names())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := apply(ctx, app, t.db, res); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("tags deleted", "policy", t.policy.ID, "count", sel.Count())
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"deleted": sel.Names()},
				"meta": map[string]any{"requestId": res.Request.ID},
			})
		},
	}
	o.bind(cmd)
	return cmd
}

func newTagsRequireCmd(app *App) *cobra.Command {
	var o tagsOpts

	cmd := &cobra.Command{
		Use:       "require <on|off>",
		Short:     "Make choosing a tag from the list required (or not)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var required bool
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "on", "true", "yes":
				required = true
			case "off", "false", "no":
			default:
				return writeErr(cmd, fmt.Errorf("invalid value %q (expected on|off)", args[0]))
			}

			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()

			list, ok := policy.TagList(t.lists, o.orderWeight)
			if !ok {
				return writeErr(cmd, errNotFound("tag list", fmt.Sprint(o.orderWeight)))
			}
			toggle := tags.Required(t.policy, t.lists, list)
			if !toggle.Visible {
				return writeErr(cmd, bulkUnavailableError{kind: "required", policyID: t.policy.ID})
			}
			if required && toggle.Disabled {
				return writeErr(cmd, fmt.Errorf("tag list %s has no enabled tags; enable one before making it required", list.Name))
			}

			res, err := mutate.SetTagsRequired(t.policy.ID, t.lists, required, o.orderWeight)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := apply(ctx, app, t.db, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"listName": list.Name, "required": required},
				"meta": map[string]any{"requestId": res.Request.ID},
			})
		},
	}
	o.bind(cmd)
	return cmd
}

func newTagsClearErrorsCmd(app *App) *cobra.Command {
	var o tagsOpts
	var field string

	cmd := &cobra.Command{
		Use:   "clear-errors [tag-name]",
		Short: "Dismiss the errors of a tag, of a list field (--field), or of the list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()

			var res mutate.Result
			target := "list"
			switch {
			case len(args) == 1:
				target = "tag:" + args[0]
				res, err = mutate.ClearTagErrors(t.policy.ID, t.lists, args[0], o.orderWeight)
			case strings.TrimSpace(field) != "":
				target = "field:" + field
				res, err = mutate.ClearTagListErrorField(t.policy.ID, t.lists, o.orderWeight, field)
			default:
				res, err = mutate.ClearTagListErrors(t.policy.ID, t.lists, o.orderWeight)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := apply(ctx, app, t.db, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"cleared": target}})
		},
	}
	o.bind(cmd)
	cmd.Flags().StringVar(&field, "field", "", "List field whose error to dismiss (e.g. required)")
	return cmd
}

func newTagsRefreshCmd(app *App) *cobra.Command {
	var o tagsOpts

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Queue a read of the latest tag lists from the remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := openTagsTarget(ctx, app, o)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer t.db.Close()

			res := mutate.OpenTagsPage(t.policy.ID)
			if err := apply(ctx, app, t.db, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"policyId": t.policy.ID, "queued": res.Request.Command},
			})
		},
	}
	o.bind(cmd)
	return cmd
}
