// Package session knows which browser cookies belong to the authentication
// subsystem and how to expire them. It is shared by the handler and
// middleware packages.
package session

const (
	// CookieName is the application's own session cookie.
	CookieName = "socialflow_session"

	// RefreshCookieName holds the refresh token paired with CookieName.
	RefreshCookieName = "socialflow_refresh"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// SplashCookieName marks that the splash screen was shown in this
	// browser session. It has no Max-Age so it dies with the session.
	SplashCookieName = "socialflow_splash_seen"
)

// KnownAuthCookies is cleared on every logout whether or not the request
// carried it.
var KnownAuthCookies = []string{
	CookieName,
	RefreshCookieName,
	"authjs.session-token",
	"__Secure-authjs.session-token",
	"authjs.csrf-token",
	"__Host-authjs.csrf-token",
	"authjs.callback-url",
	"__Secure-authjs.callback-url",
	"next-auth.session-token",
	"__Secure-next-auth.session-token",
	"next-auth.csrf-token",
	"__Host-next-auth.csrf-token",
	"next-auth.callback-url",
	"__Secure-next-auth.callback-url",
}

// vendorMarkers classify any cookie whose name contains them as auth-related.
var vendorMarkers = []string{"authjs", "next-auth"}

// securePrefixes require the Secure attribute on the cookie.
var securePrefixes = []string{"__Secure-", "__Host-"}
