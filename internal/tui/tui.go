package tui

import (
	"context"
	"log/slog"

	"expense-cli/internal/i18n"
	"expense-cli/internal/remote"
	"expense-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Options are the dependencies of the interactive UI.
type Options struct {
	DB         *store.DB
	Workspace  string
	Email      string
	Translator *i18n.Translator
	// Client receives queued requests after every write. Nil means loopback.
	Client remote.Client
	Config *store.GlobalConfig
	Logger *slog.Logger
}

// observedKeys are the store keys whose changes re-project the open screen.
var observedKeys = []string{
	store.PolicyPrefix,
	store.PolicyTagsPrefix,
	store.ReportPrefix,
	store.ReportMetadataPrefix,
	store.ReportActionsPrefix,
	store.TransactionPrefix,
	store.KeyNetwork,
	store.KeySelectionMode,
	store.KeyIsLoadingApp,
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()
	if opts.Config != nil && opts.Config.TUI != nil {
		applyProfile(opts.Config.TUI.Profile)
	}

	m, err := newAppModel(ctx, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := m.observe()
	defer unsubscribe()

	final, err := p.Run()
	if fm, ok := final.(appModel); ok {
		fm.saveState()
	}
	return err
}
