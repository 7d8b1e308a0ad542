// Package layouts provides the page shells that wrap every screen.
package layouts

import (
	"github.com/a-h/templ"

	"github.com/DukeRupert/socialflow/internal/locale"
	"github.com/DukeRupert/socialflow/internal/templ/shared"
)

// arabicFontsURL loads the fonts named in locale.ArabicFontFamily.
const arabicFontsURL = "https://fonts.googleapis.com/css2?family=Cairo:wght@400;600&family=Noto+Kufi+Arabic:wght@400;600&display=swap"

const bodyClass = "min-h-screen bg-slate-50 text-slate-900 antialiased"

// BaseData is everything the document shell needs.
type BaseData struct {
	Title     string
	Document  locale.Document
	BodyClass string // merged over the default body classes
}

// bodyAttrs carries the merged body classes and, for Arabic, the font
// override style.
func bodyAttrs(data BaseData) templ.Attributes {
	attrs := templ.Attributes{"class": shared.Class(bodyClass, data.BodyClass)}
	if style := data.Document.BodyStyle(); style != "" {
		attrs["style"] = style
	}
	return attrs
}
