// Package csrf protects the dashboard's state-changing forms (locale
// switching) with the double-submit cookie pattern:
// 1. A random token is set in a cookie and rendered into every form
// 2. On POST, the cookie value must equal the form (or header) value
//
// A cross-site page can make the browser send our cookie but cannot read
// it, so it cannot put the matching value in the form body.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "socialflow_csrf"

	// FormFieldName is the name of the CSRF token form field.
	FormFieldName = "csrf_token"

	// HeaderName carries the token for fetch-based submissions.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token (256 bits).
	TokenLength = 32

	// CookieMaxAge is the lifetime of the CSRF cookie (1 hour).
	CookieMaxAge = 3600
)

// GenerateToken returns 32 random bytes, base64 URL-encoded (43 characters).
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the submitted token (header first, then form
// field) against the cookie.
func ValidateRequest(r *http.Request) bool {
	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.FormValue(FormFieldName)
	}
	return ValidateToken(GetTokenFromRequest(r), submitted)
}

// SetCookie sets the CSRF token cookie. It is not HttpOnly so fetch-based
// callers can echo it in HeaderName.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetTokenFromRequest retrieves the CSRF token from the request cookie.
// Returns empty string if cookie doesn't exist.
func GetTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// EnsureToken returns the request's token, issuing a new cookie when there
// is none. Handlers call it on GET before rendering a form.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) (string, error) {
	if token := GetTokenFromRequest(r); token != "" {
		return token, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	SetCookie(w, token, isSecure)
	return token, nil
}

// Protect wraps a state-changing handler and calls reject instead when the
// request does not carry a matching token.
func Protect(reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ValidateRequest(r) {
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
