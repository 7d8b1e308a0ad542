package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/session"
)

// DefaultLogoutRedirect is where GET /logout sends the browser when no
// usable redirect target was supplied.
const DefaultLogoutRedirect = "/login?cookies=cleared"

// LogoutHandler clears every authentication cookie the application or its
// auth vendors may have set.
//
// Routes:
// - GET  /logout?redirect=<target>  clear cookies, then 302 to a same-origin target
// - POST /logout                    clear cookies, answer {"success": true}
type LogoutHandler struct {
	appURL string
	logger *slog.Logger
}

// NewLogoutHandler creates a new LogoutHandler. appURL is the configured
// application URL (APP_URL, else BASE_URL); it may be empty or malformed,
// in which case the request origin is used.
func NewLogoutHandler(appURL string, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		appURL: appURL,
		logger: logger,
	}
}

// RegisterRoutes registers logout routes on the provided ServeMux. limit
// wraps both routes (pass nil for none). A request the limiter rejects
// still carries the cookie clear directives.
func (h *LogoutHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("GET /logout", purgeOnReject(limit(http.HandlerFunc(h.Logout))))
	mux.Handle("POST /logout", purgeOnReject(limit(http.HandlerFunc(h.LogoutJSON))))
}

// purgeOnReject clears auth cookies on a 429 written before the logout
// handler ran.
func purgeOnReject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&rejectPurger{ResponseWriter: w, r: r}, r)
	})
}

type rejectPurger struct {
	http.ResponseWriter
	r           *http.Request
	wroteHeader bool
}

func (p *rejectPurger) WriteHeader(code int) {
	if !p.wroteHeader && code == http.StatusTooManyRequests {
		cleared := session.Purge(p.ResponseWriter, p.r)
		metrics.CookiesClearedTotal.Add(float64(cleared))
	}
	p.wroteHeader = true
	p.ResponseWriter.WriteHeader(code)
}

func (p *rejectPurger) Write(b []byte) (int, error) {
	p.wroteHeader = true
	return p.ResponseWriter.Write(b)
}

func (p *rejectPurger) Unwrap() http.ResponseWriter {
	return p.ResponseWriter
}

// Logout purges auth cookies and redirects.
//
// Flow:
// 1. Resolve the effective origin (configured URL, else the request origin)
// 2. Reduce the redirect parameter to a path on that origin
// 3. Write a clear directive for every known and every present auth cookie
// 4. 302 to origin + path
func (h *LogoutHandler) Logout(w http.ResponseWriter, r *http.Request) {
	origin := EffectiveOrigin(h.appURL, r)
	path := SafeRedirectPath(r.URL.Query().Get("redirect"), origin)

	cleared := session.Purge(w, r)
	metrics.LogoutsTotal.WithLabelValues(http.MethodGet).Inc()
	metrics.CookiesClearedTotal.Add(float64(cleared))

	h.logger.Debug("cookies purged", "method", r.Method, "cleared", cleared, "redirect", path)

	http.Redirect(w, r, origin+path, http.StatusFound)
}

// LogoutJSON purges auth cookies for fetch-based clients.
func (h *LogoutHandler) LogoutJSON(w http.ResponseWriter, r *http.Request) {
	cleared := session.Purge(w, r)
	metrics.LogoutsTotal.WithLabelValues(http.MethodPost).Inc()
	metrics.CookiesClearedTotal.Add(float64(cleared))

	h.logger.Debug("cookies purged", "method", r.Method, "cleared", cleared)

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// EffectiveOrigin returns scheme://host of the configured application URL
// when it is an absolute http(s) URL, otherwise the origin the request was
// addressed to. It never fails.
func EffectiveOrigin(configured string, r *http.Request) string {
	if origin, ok := parseOrigin(strings.TrimRight(strings.TrimSpace(configured), "/")); ok {
		return origin
	}
	return requestOrigin(r)
}

func parseOrigin(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + canonicalHost(u.Scheme, u.Host), true
}

// canonicalHost drops the scheme's default port so that https://app and
// https://app:443 compare equal.
func canonicalHost(scheme, host string) string {
	switch strings.ToLower(scheme) {
	case "http":
		return strings.TrimSuffix(host, ":80")
	case "https":
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// requestOrigin trusts X-Forwarded-Proto because the app runs behind a
// TLS-terminating proxy in production.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		switch p := strings.ToLower(strings.TrimSpace(first)); p {
		case "http", "https":
			scheme = p
		}
	}
	return scheme + "://" + canonicalHost(scheme, r.Host)
}

// SafeRedirectPath reduces a redirect target to a path that is appended to
// origin:
// - ""                                  -> DefaultLogoutRedirect
// - "/accounts"                         -> "/accounts" (verbatim)
// - "https://<origin>/settings?tab=2#x" -> "/settings?tab=2#x"
// - anything else                       -> DefaultLogoutRedirect
func SafeRedirectPath(target, origin string) string {
	if target == "" {
		return DefaultLogoutRedirect
	}
	if strings.HasPrefix(target, "/") {
		return target
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return DefaultLogoutRedirect
	}
	if !sameOrigin(u, origin) {
		return DefaultLogoutRedirect
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		path += "#" + u.EscapedFragment()
	}
	return path
}

func sameOrigin(u *url.URL, origin string) bool {
	scheme, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	return strings.EqualFold(u.Scheme, scheme) &&
		strings.EqualFold(canonicalHost(u.Scheme, u.Host), canonicalHost(scheme, host))
}
