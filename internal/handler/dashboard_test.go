package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/socialflow/internal/csrf"
	"github.com/DukeRupert/socialflow/internal/dictionary"
	"github.com/DukeRupert/socialflow/internal/locale"
	"github.com/DukeRupert/socialflow/internal/session"
	"github.com/DukeRupert/socialflow/internal/store"
)

// mockEventLister implements EventLister for testing.
type mockEventLister struct {
	ListRecentEventsFunc func(ctx context.Context, limit int32) ([]store.Event, error)
}

func (m *mockEventLister) ListRecentEvents(ctx context.Context, limit int32) ([]store.Event, error) {
	if m.ListRecentEventsFunc != nil {
		return m.ListRecentEventsFunc(ctx, limit)
	}
	return nil, nil
}

func newDashboardServer(t *testing.T, events EventLister) http.Handler {
	t.Helper()

	dict, err := dictionary.New("", newTestLogger())
	require.NoError(t, err)

	h := NewDashboardHandler(events, []Integration{
		{Key: "integration_twitter", Configured: true},
		{Key: "integration_archive", Configured: false},
	}, newTestLogger(), false)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, nil)
	return locale.NewProvider(dict, newTestLogger(), false).Handler(mux)
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func localeForm(values url.Values, token string) *http.Request {
	if token != "" {
		values.Set(csrf.FormFieldName, token)
	}
	req := httptest.NewRequest("POST", "/locale", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: token})
	}
	return req
}

// =============================================================================
// Pages
// =============================================================================

func TestOverview_FirstVisit(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="en" dir="ltr" data-locale="en">`)
	assert.Contains(t, body, `id="splash"`)
	assert.Contains(t, body, "Overview")
	assert.Contains(t, body, "X (Twitter) webhook")
	assert.Contains(t, body, "Not configured")
	assert.NotContains(t, body, "Recent posts")

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, session.SplashCookieName)
	assert.Zero(t, cookies[session.SplashCookieName].MaxAge)
	require.Contains(t, cookies, csrf.CookieName)
	require.Contains(t, cookies, locale.CookieName)
	assert.Equal(t, "en", cookies[locale.CookieName].Value)
}

func TestOverview_SplashOncePerSession(t *testing.T) {
	srv := newDashboardServer(t, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: session.SplashCookieName, Value: "1"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), `id="splash"`)
	assert.NotContains(t, cookiesByName(rec), session.SplashCookieName)
}

func TestOverview_ArabicMarker(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/?lang=ar", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="ar" dir="rtl" data-locale="ar">`)
	assert.Contains(t, body, "لوحة التحكم")
	assert.Contains(t, body, "Noto Kufi Arabic")
	assert.Equal(t, "ar", cookiesByName(rec)[locale.CookieName].Value)
}

func TestOverview_RecentEvents(t *testing.T) {
	var gotLimit int32
	events := &mockEventLister{
		ListRecentEventsFunc: func(ctx context.Context, limit int32) ([]store.Event, error) {
			gotLimit = limit
			return []store.Event{{
				AuthorHandle: "alice",
				Text:         "shipping today",
				ReceivedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	srv := newDashboardServer(t, events)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	body := rec.Body.String()
	assert.Equal(t, int32(recentEventsLimit), gotLimit)
	assert.Contains(t, body, "Recent posts")
	assert.Contains(t, body, "@alice")
	assert.Contains(t, body, "shipping today")
}

func TestOverview_EventErrorStillRenders(t *testing.T) {
	events := &mockEventLister{
		ListRecentEventsFunc: func(ctx context.Context, limit int32) ([]store.Event, error) {
			return nil, errors.New("connection refused")
		},
	}
	srv := newDashboardServer(t, events)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No posts received yet")
}

func TestSection_UsesRouteLabel(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/accounts", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `aria-current="page">Accounts</a>`)
	assert.Contains(t, body, "Nothing here yet")
}

func TestSignedOut_ExplainsClearedCookies(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", DefaultLogoutRedirect, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your session cookies were cleared.")
}

func TestUnknownPath_NotFound(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "The requested resource was not found")
}

// =============================================================================
// Locale Endpoints
// =============================================================================

func TestSetLocale(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, localeForm(url.Values{"locale": {"ar"}, "return_to": {"/posts?page=2"}}, "tok"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/posts?page=2", rec.Header().Get("Location"))
	assert.Equal(t, "ar", cookiesByName(rec)[locale.CookieName].Value)
}

func TestSetLocale_Unsupported(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, localeForm(url.Values{"locale": {"fr"}}, "tok"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `Unsupported locale "fr"`)
}

func TestSetLocale_Missing(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, localeForm(url.Values{}, "tok"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Locale is required")
	assert.NotContains(t, cookiesByName(rec), locale.CookieName)
}

func TestSetLocale_RequiresCSRF(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, localeForm(url.Values{"locale": {"ar"}}, ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You don't have permission")
}

func TestToggleLocale(t *testing.T) {
	srv := newDashboardServer(t, nil)

	req := localeForm(url.Values{"return_to": {"//evil.example"}}, "tok")
	req.URL.Path = "/locale/toggle"
	req.AddCookie(&http.Cookie{Name: locale.CookieName, Value: "ar"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "en", cookiesByName(rec)[locale.CookieName].Value)
}

func TestToggleLocale_OverridesMarkerInReturnPath(t *testing.T) {
	srv := newDashboardServer(t, nil)

	// Page loaded with the Arabic marker
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/?lang=ar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	first := cookiesByName(rec)
	require.Equal(t, "ar", first[locale.CookieName].Value)
	token := first[csrf.CookieName].Value
	assert.Contains(t, rec.Body.String(), `name="return_to" value="/?lang=ar"`)

	// Toggle from that page
	req := localeForm(url.Values{"return_to": {"/?lang=ar"}}, token)
	req.URL.Path = "/locale/toggle"
	req.AddCookie(&http.Cookie{Name: locale.CookieName, Value: "ar"})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.Equal(t, "/", location)
	require.Equal(t, "en", cookiesByName(rec)[locale.CookieName].Value)

	// Follow the redirect with the updated cookie
	req = httptest.NewRequest("GET", location, nil)
	req.AddCookie(&http.Cookie{Name: locale.CookieName, Value: "en"})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `<html lang="en" dir="ltr" data-locale="en">`)
	assert.NotContains(t, cookiesByName(rec), locale.CookieName)
}

func TestSetLocale_DropsMarkerKeepsOtherParams(t *testing.T) {
	srv := newDashboardServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, localeForm(url.Values{"locale": {"en"}, "return_to": {"/posts?lang=ar&page=2#top"}}, "tok"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/posts?page=2#top", rec.Header().Get("Location"))
	assert.Equal(t, "en", cookiesByName(rec)[locale.CookieName].Value)
}

func TestReturnPath(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"", "/"},
		{"//evil.example", "/"},
		{"/posts?page=2", "/posts?page=2"},
		{"/?lang=ar", "/"},
		{"/settings?lang=en&tab=1", "/settings?tab=1"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, returnPath(tt.target))
		})
	}
}

func TestIsSafeRedirectURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"/", true},
		{"/posts?page=2", true},
		{"", false},
		{"//evil.example", false},
		{"/\\evil.example", false},
		{"https://evil.example", false},
		{"javascript:alert(1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, isSafeRedirectURL(tt.url))
		})
	}
}
