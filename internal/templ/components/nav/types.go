// Package nav renders the dashboard sidebar.
package nav

import "github.com/DukeRupert/socialflow/internal/templ/shared"

// Item is one navigation entry.
type Item struct {
	Path   string // Route path, also the dictionary key of the label
	Label  string // Translated label
	Active bool   // Whether the current page is this route
}

// LocaleSwitch is the data for the language toggle form.
type LocaleSwitch struct {
	Label     string // Text of the toggle button (the other language's name)
	CSRFToken string
	ReturnTo  string // Path to come back to after switching
}

const (
	linkClass   = "block rounded-md px-3 py-2 text-sm font-medium text-slate-600 hover:bg-slate-100"
	activeClass = "bg-slate-900 text-white hover:bg-slate-900"
)

func itemClass(item Item) string {
	if item.Active {
		return shared.Class(linkClass, activeClass)
	}
	return linkClass
}
