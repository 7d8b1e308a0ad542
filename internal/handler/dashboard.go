package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/DukeRupert/socialflow/internal/csrf"
	"github.com/DukeRupert/socialflow/internal/domain"
	"github.com/DukeRupert/socialflow/internal/locale"
	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/session"
	"github.com/DukeRupert/socialflow/internal/store"
	"github.com/DukeRupert/socialflow/internal/templ/components/nav"
	"github.com/DukeRupert/socialflow/internal/templ/pages/dashboard"
)

// recentEventsLimit is how many received posts the overview lists.
const recentEventsLimit = 10

// NavRoutes are the dashboard's navigation entries, in display order. Each
// path doubles as the dictionary key of its label.
var NavRoutes = []string{"/", "/accounts", "/posts", "/automations", "/analytics", "/settings", "/logout"}

// sectionRoutes are the placeholder screens reachable from the navigation.
var sectionRoutes = []string{"/accounts", "/posts", "/automations", "/analytics", "/settings"}

// EventLister reads recently received webhook events.
type EventLister interface {
	ListRecentEvents(ctx context.Context, limit int32) ([]store.Event, error)
}

// Integration is one entry of the overview's integrations card.
type Integration struct {
	Key        string // Dictionary key of the display name
	Configured bool
}

// DashboardHandler renders the dashboard screens and handles locale changes.
//
// Routes:
// - GET  /                 overview
// - GET  /accounts ...     section placeholders (see sectionRoutes)
// - GET  /login            landing page after cookies were cleared
// - POST /locale           set the locale from the "locale" form field
// - POST /locale/toggle    flip between en and ar
//
// Every route expects a locale.Provider in front of it.
type DashboardHandler struct {
	events       EventLister
	integrations []Integration
	logger       *slog.Logger
	isSecure     bool
}

// NewDashboardHandler creates a new DashboardHandler. events may be nil when
// no database is configured.
func NewDashboardHandler(events EventLister, integrations []Integration, logger *slog.Logger, isSecure bool) *DashboardHandler {
	return &DashboardHandler{
		events:       events,
		integrations: integrations,
		logger:       logger,
		isSecure:     isSecure,
	}
}

// RegisterRoutes registers dashboard routes. The locale endpoints are CSRF
// protected; limit wraps them as well (pass nil for none).
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /{$}", h.Overview)
	for _, path := range sectionRoutes {
		mux.HandleFunc("GET "+path, h.Section)
	}
	mux.HandleFunc("GET /login", h.SignedOut)
	mux.HandleFunc("GET /", h.notFound)

	protect := csrf.Protect(h.rejectCSRF)
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("POST /locale", limit(protect(http.HandlerFunc(h.SetLocale))))
	mux.Handle("POST /locale/toggle", limit(protect(http.HandlerFunc(h.ToggleLocale))))
}

// Overview renders the home screen: integrations status and recent posts.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	data, ok := h.pageData(w, r)
	if !ok {
		return
	}
	tr := locale.FromContext(r.Context()).Translator()

	data.Title = tr.T("dashboard_title")
	data.Subtitle = tr.T("dashboard_subtitle")
	data.IntegrationsTitle = tr.T("integrations_title")
	for _, it := range h.integrations {
		status := tr.T("status_missing")
		if it.Configured {
			status = tr.T("status_configured")
		}
		data.Integrations = append(data.Integrations, dashboard.IntegrationStatus{
			Name:        tr.T(it.Key),
			Configured:  it.Configured,
			StatusLabel: status,
		})
	}

	if h.events != nil {
		data.EventsTitle = tr.T("recent_events_title")
		data.EventsEmpty = tr.T("recent_events_empty")
		events, err := h.events.ListRecentEvents(r.Context(), recentEventsLimit)
		if err != nil {
			// The overview stays usable without history
			h.logger.Warn("failed to list recent events", "error", err)
		}
		for _, e := range events {
			data.Events = append(data.Events, dashboard.EventRow{
				AuthorHandle: e.AuthorHandle,
				Text:         e.Text,
				ReceivedAt:   e.ReceivedAt,
			})
		}
	}

	h.render(w, r, data)
}

// Section renders a placeholder screen titled with the route's nav label.
func (h *DashboardHandler) Section(w http.ResponseWriter, r *http.Request) {
	data, ok := h.pageData(w, r)
	if !ok {
		return
	}
	tr := locale.FromContext(r.Context()).Translator()
	data.Title = tr.T(r.URL.Path)
	data.Subtitle = tr.T("section_empty")
	h.render(w, r, data)
}

// SignedOut is where GET /logout lands by default.
func (h *DashboardHandler) SignedOut(w http.ResponseWriter, r *http.Request) {
	data, ok := h.pageData(w, r)
	if !ok {
		return
	}
	tr := locale.FromContext(r.Context()).Translator()
	data.Title = tr.T("signed_out_title")
	if r.URL.Query().Get("cookies") == "cleared" {
		data.Subtitle = tr.T("signed_out_body")
	}
	h.render(w, r, data)
}

// SetLocale switches to the locale named by the "locale" form field.
func (h *DashboardHandler) SetLocale(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("locale")
	if raw == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("dashboard.set_locale", "Locale is required"))
		return
	}
	l, ok := locale.Parse(raw)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "dashboard.set_locale", "Unsupported locale %q", raw))
		return
	}

	if err := locale.FromContext(r.Context()).SetLocale(l); err != nil {
		ErrorResponse(w, r, h.logger, domain.Wrap(err, domain.EINVALID, "dashboard.set_locale", "Unsupported locale"))
		return
	}
	metrics.LocaleChangesTotal.WithLabelValues(string(l)).Inc()

	http.Redirect(w, r, returnPath(r.FormValue("return_to")), http.StatusSeeOther)
}

// ToggleLocale flips the active locale.
func (h *DashboardHandler) ToggleLocale(w http.ResponseWriter, r *http.Request) {
	l := locale.FromContext(r.Context()).ToggleLocale()
	metrics.LocaleChangesTotal.WithLabelValues(string(l)).Inc()

	http.Redirect(w, r, returnPath(r.FormValue("return_to")), http.StatusSeeOther)
}

// pageData fills the parts shared by every screen. It returns false when a
// response was already written.
func (h *DashboardHandler) pageData(w http.ResponseWriter, r *http.Request) (dashboard.PageData, bool) {
	s := locale.FromContext(r.Context())
	tr := s.Translator()

	token, err := csrf.EnsureToken(w, r, h.isSecure)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return dashboard.PageData{}, false
	}

	showSplash := !session.SplashSeen(r)
	if showSplash {
		session.MarkSplashSeen(w, h.isSecure)
	}

	items := make([]nav.Item, 0, len(NavRoutes))
	for _, path := range NavRoutes {
		items = append(items, nav.Item{
			Path:   path,
			Label:  tr.T(path),
			Active: path == r.URL.Path,
		})
	}

	return dashboard.PageData{
		AppName:  tr.T("app_name"),
		Document: s.Document(),
		Nav:      items,
		Toggle: nav.LocaleSwitch{
			Label:     tr.T("language_toggle"),
			CSRFToken: token,
			ReturnTo:  r.URL.RequestURI(),
		},
		ShowSplash: showSplash,
		SplashText: tr.T("splash_loading"),
	}, true
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, data dashboard.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboard.Page(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render dashboard page", "path", r.URL.Path, "error", err)
	}
}

func (h *DashboardHandler) rejectCSRF(w http.ResponseWriter, r *http.Request) {
	ForbiddenResponse(w, r, h.logger)
}

func (h *DashboardHandler) notFound(w http.ResponseWriter, r *http.Request) {
	NotFoundResponse(w, r, h.logger)
}

// returnPath keeps a post-switch redirect on this site. Unsafe or missing
// targets become "/". The locale marker is dropped so it cannot override the
// locale that was just chosen.
func returnPath(target string) string {
	if !isSafeRedirectURL(target) {
		return "/"
	}

	u, err := url.Parse(target)
	if err != nil {
		return "/"
	}
	q := u.Query()
	if !q.Has(locale.MarkerParam) {
		return target
	}
	q.Del(locale.MarkerParam)
	u.RawQuery = q.Encode()
	return u.String()
}

// isSafeRedirectURL reports whether rawURL is a same-site relative URL:
// - "/posts?page=2"        -> true
// - "//evil.com"           -> false (protocol-relative)
// - "https://evil.com"     -> false
// - "javascript:alert(1)"  -> false
func isSafeRedirectURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "/") || strings.HasPrefix(rawURL, "//") {
		return false
	}
	// Browsers treat "/\" like "//"
	if strings.HasPrefix(rawURL, "/\\") {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsed.Scheme == "" && parsed.Host == ""
}
