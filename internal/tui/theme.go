package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The palette must stay readable on light and dark backgrounds, so colors are
// adaptive and "faint" is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

type palette struct {
	Muted      lipgloss.TerminalColor
	SelectedBg lipgloss.TerminalColor
	SelectedFg lipgloss.TerminalColor
	SurfaceBg  lipgloss.TerminalColor
	SurfaceFg  lipgloss.TerminalColor
	ControlBg  lipgloss.TerminalColor
	Accent     lipgloss.TerminalColor
	AccentFg   lipgloss.TerminalColor
	Error      lipgloss.TerminalColor
	Pending    lipgloss.TerminalColor
	Success    lipgloss.TerminalColor
}

var defaultPalette = palette{
	Muted:      ac("240", "243"),
	SelectedBg: ac("#e9e9e9", "#262626"),
	SelectedFg: ac("235", "255"),
	SurfaceBg:  ac("255", "235"),
	SurfaceFg:  ac("235", "252"),
	ControlBg:  ac("252", "237"),
	Accent:     ac("27", "62"),
	AccentFg:   ac("255", "235"),
	Error:      ac("160", "203"),
	Pending:    ac("244", "246"),
	Success:    ac("28", "78"),
}

// contrastPalette trades the soft grays for plain black/white.
var contrastPalette = palette{
	Muted:      ac("0", "15"),
	SelectedBg: ac("0", "15"),
	SelectedFg: ac("15", "0"),
	SurfaceBg:  ac("15", "0"),
	SurfaceFg:  ac("0", "15"),
	ControlBg:  ac("7", "8"),
	Accent:     ac("4", "12"),
	AccentFg:   ac("15", "0"),
	Error:      ac("1", "9"),
	Pending:    ac("8", "7"),
	Success:    ac("2", "10"),
}

var colors = defaultPalette

// applyProfile selects the palette for a config profile id. Unknown ids keep the default.
func applyProfile(id string) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "contrast":
		colors = contrastPalette
	default:
		colors = defaultPalette
	}
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colors.Muted))
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colors.Error)
}

func stylePending() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colors.Pending)).Italic(true)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colors.SelectedFg).Background(colors.SelectedBg).Bold(true)
}

func styleTitle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colors.Accent)
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts TERM and
// COLORTERM over termenv's probe, which under-reports on some terminals.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) EXPENSE_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg", last segment is the background)
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("EXPENSE_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
