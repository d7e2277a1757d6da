package tui

import (
	"os"
	"strings"
	"sync"
)

// Some fonts render box and check glyphs poorly, so an ASCII set is available
// through EXPENSE_TUI_GLYPHS=ascii.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("EXPENSE_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func glyphCheckbox(checked bool) string {
	switch {
	case glyphs() == glyphSetASCII && checked:
		return "[x]"
	case glyphs() == glyphSetASCII:
		return "[ ]"
	case checked:
		return "☑"
	default:
		return "☐"
	}
}

func glyphSwitch(on bool) string {
	switch {
	case glyphs() == glyphSetASCII && on:
		return "(on )"
	case glyphs() == glyphSetASCII:
		return "(off)"
	case on:
		return "━●"
	default:
		return "○━"
	}
}

func glyphCursor() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "›"
}

func glyphWarning() string {
	if glyphs() == glyphSetASCII {
		return "!"
	}
	return "⚠"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
