package cli

import (
	"fmt"

	"expense-cli/internal/docs"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
)

var docStyles = map[string]string{
	"dark":  styles.DarkStyle,
	"light": styles.LightStyle,
	"notty": styles.NoTTYStyle,
}

func newDocsCmd(app *App) *cobra.Command {
	var (
		raw    bool
		render bool
		style  string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show on-demand documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `expense docs` to list topics)", topic))
			}

			switch {
			case render:
				s, ok := docStyles[style]
				if !ok {
					return writeErr(cmd, fmt.Errorf("unknown style %q (expected dark|light|notty)", style))
				}
				r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(s), glamour.WithWordWrap(width))
				if err != nil {
					return writeErr(cmd, err)
				}
				out, err := r.Render(body)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}

			return writeOut(cmd, app, map[string]any{"data": map[string]any{"topic": topic, "markdown": body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")
	cmd.Flags().StringVar(&style, "style", "dark", "Render style (dark|light|notty)")
	cmd.Flags().IntVar(&width, "width", 80, "Render wrap width")

	return cmd
}
