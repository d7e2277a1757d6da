// Package i18n translates UI copy and provides locale-aware string ordering.
package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	catalogOnce sync.Once
	catalogErr  error
	builtin     message.Option
	matcher     = language.NewMatcher(supported)
)

// Translator renders translation keys for one locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for locale (a BCP 47 string). Unknown or empty
// locales fall back to English.
func New(locale string) (*Translator, error) {
	catalogOnce.Do(func() {
		b, err := newCatalog()
		if err != nil {
			catalogErr = err
			return
		}
		builtin = message.Catalog(b)
	})
	if catalogErr != nil {
		return nil, catalogErr
	}
	tag := Match(locale)
	return &Translator{tag: tag, printer: message.NewPrinter(tag, builtin)}, nil
}

// MustNew is New for call sites that only use the built-in catalog.
func MustNew(locale string) *Translator {
	t, err := New(locale)
	if err != nil {
		panic(err)
	}
	return t
}

// Match picks the supported language closest to locale.
func Match(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return English
	}
	_, idx := language.MatchStrings(matcher, locale)
	return supported[idx]
}

func (t *Translator) Locale() language.Tag { return t.tag }

// T translates key, formatting args into the message. Missing keys render as the key.
func (t *Translator) T(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

var newCollator = func(tag language.Tag) *collate.Collator {
	return collate.New(tag, collate.Numeric)
}

// Collator returns a fresh collator for the translator's locale. Collators keep
// internal buffers, so each sort should use its own.
func (t *Translator) Collator() *collate.Collator {
	return newCollator(t.tag)
}

// Comparer returns a compare func backed by one collator. It is meant for a
// single sort and is not safe for concurrent use.
func (t *Translator) Comparer() func(a, b string) int {
	c := t.Collator()
	return func(a, b string) int { return c.CompareString(a, b) }
}

// Compare orders a and b the way the locale's users expect (accents and case
// are secondary, digit runs compare numerically). It builds a collator per
// call; sorts use Comparer.
func (t *Translator) Compare(a, b string) int {
	return t.Collator().CompareString(a, b)
}
