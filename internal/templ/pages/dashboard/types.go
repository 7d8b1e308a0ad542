package dashboard

import (
	"time"

	"github.com/DukeRupert/socialflow/internal/locale"
	"github.com/DukeRupert/socialflow/internal/templ/components/nav"
	"github.com/DukeRupert/socialflow/internal/templ/shared"
)

// PageData contains data for every dashboard screen.
type PageData struct {
	AppName    string
	Title      string // Heading and <title>
	Subtitle   string
	Document   locale.Document
	Nav        []nav.Item
	Toggle     nav.LocaleSwitch
	ShowSplash bool
	SplashText string

	// Overview only
	IntegrationsTitle string
	Integrations      []IntegrationStatus
	EventsTitle       string
	EventsEmpty       string
	Events            []EventRow
}

// IntegrationStatus is one row of the integrations card.
type IntegrationStatus struct {
	Name        string // Translated integration name
	Configured  bool
	StatusLabel string // Translated status text
}

// EventRow is one recently received webhook event.
type EventRow struct {
	AuthorHandle string
	Text         string
	ReceivedAt   time.Time
}

const (
	cardClass       = "rounded-lg border border-slate-200 bg-white p-4 shadow-sm"
	badgeBaseClass  = "rounded-full px-2 py-0.5 text-xs font-medium"
	configuredClass = "bg-emerald-100 text-emerald-800"
	missingClass    = "bg-amber-100 text-amber-800"
)

var (
	integrationCardClass = shared.Class(cardClass, "flex items-center justify-between")
	eventListClass       = shared.Class(cardClass, "divide-y divide-slate-100 p-0")
)

func badgeClass(configured bool) string {
	if configured {
		return shared.Class(badgeBaseClass, configuredClass)
	}
	return shared.Class(badgeBaseClass, missingClass)
}
