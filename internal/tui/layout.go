package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	defaultNarrowWidth = 80
	modalMaxWidth      = 64
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height
// lines, so joined panes and overlays line up.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		lines[i] = fitLine(ln, width)
	}
	return strings.Join(lines, "\n")
}

// fitLine pads or truncates one line to width columns.
func fitLine(ln string, width int) string {
	w := xansi.StringWidth(ln)
	switch {
	case width <= 0:
		return ""
	case w > width && width == 1:
		return xansi.Cut(ln, 0, 1)
	case w > width:
		ln = xansi.Truncate(ln, width-1, "") + "…"
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

func modalWidth(width int) int {
	w := width - 4
	if w > modalMaxWidth {
		w = modalMaxWidth
	}
	if w < 24 {
		w = 24
	}
	return w
}

func modalBodyWidth(width int) int {
	return modalWidth(width) - 4
}

// renderModalBox draws a titled box without borders; nested borders inside a
// colored background leave artifacts on some terminals.
func renderModalBox(width int, title string, body string) string {
	w := modalWidth(width)
	header := lipgloss.NewStyle().
		Width(w).
		Padding(0, 2).
		Bold(true).
		Foreground(colors.SurfaceFg).
		Background(colors.ControlBg).
		Render(title)
	content := lipgloss.NewStyle().
		Width(w).
		Padding(1, 2).
		Foreground(colors.SurfaceFg).
		Background(colors.SurfaceBg).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}

// overlayCenter places the modal in the middle of a width x height canvas.
// The background is dropped; lipgloss has no compositing.
func overlayCenter(modal string, width, height int) string {
	if width <= 0 || height <= 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
