// Package locale holds the per-request language session: the active locale,
// its text direction, the document attributes derived from it and the
// translation function bound to it.
//
// A Session is created once per request by Provider.Handler and is read by
// handlers and templates through FromContext.
package locale

import "errors"

// Locale is a supported UI language.
type Locale string

const (
	EN Locale = "en"
	AR Locale = "ar"

	// Default is used when neither the request marker nor the stored
	// preference names a supported locale.
	Default = EN
)

// Direction is the text flow direction of a locale.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// ErrUnsupportedLocale is returned when a value outside {en, ar} is used
// where a Locale is required.
var ErrUnsupportedLocale = errors.New("locale: unsupported locale")

// Supported lists every locale in display order.
var Supported = []Locale{EN, AR}

// Parse returns the locale named by s. Only the exact strings "en" and "ar"
// are accepted; no case folding or region stripping is applied.
func Parse(s string) (Locale, bool) {
	switch Locale(s) {
	case EN:
		return EN, true
	case AR:
		return AR, true
	}
	return "", false
}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	_, ok := Parse(string(l))
	return ok
}

// Dir returns the text direction for l.
func (l Locale) Dir() Direction {
	if l == AR {
		return RTL
	}
	return LTR
}

// Toggle flips between en and ar. Any other value is a programming error.
func (l Locale) Toggle() Locale {
	switch l {
	case EN:
		return AR
	case AR:
		return EN
	}
	panic("locale: toggle of unsupported locale " + string(l))
}

func (l Locale) String() string {
	return string(l)
}

// Resolve picks the initial locale. The request marker wins when it is a
// supported value, then the stored preference, then Default. A failing
// store read counts as no stored value.
func Resolve(marker string, store Store) Locale {
	if l, ok := Parse(marker); ok {
		return l
	}
	if store != nil {
		if stored, err := store.Load(); err == nil {
			if l, ok := Parse(stored); ok {
				return l
			}
		}
	}
	return Default
}
