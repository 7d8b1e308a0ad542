package session

import (
	"net/http"
	"slices"
	"strings"
	"time"
)

// Descriptor is the classification of a single cookie name.
type Descriptor struct {
	Name string
	Auth bool
}

// Classify reports whether name belongs to the authentication subsystem:
// an exact member of KnownAuthCookies, or any name containing a vendor
// marker. The value of the cookie never matters.
func Classify(name string) Descriptor {
	return Descriptor{Name: name, Auth: IsAuthCookie(name)}
}

func IsAuthCookie(name string) bool {
	if slices.Contains(KnownAuthCookies, name) {
		return true
	}
	for _, marker := range vendorMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// RequiresSecure reports whether the browser only accepts name with the
// Secure attribute.
func RequiresSecure(name string) bool {
	for _, prefix := range securePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ClearTargets returns the cookie names to expire for a request: every known
// auth cookie, then every auth-classified cookie on the request that is not
// already listed, in request order.
func ClearTargets(r *http.Request) []string {
	names := slices.Clone(KnownAuthCookies)
	for _, c := range r.Cookies() {
		if !IsAuthCookie(c.Name) || slices.Contains(names, c.Name) {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

// ClearDirective builds the Set-Cookie that expires name.
func ClearDirective(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   RequiresSecure(name),
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearDirectives returns one directive per name from ClearTargets.
func ClearDirectives(r *http.Request) []*http.Cookie {
	names := ClearTargets(r)
	directives := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		directives = append(directives, ClearDirective(name))
	}
	return directives
}

// Purge writes the clear directives for r to w and returns how many cookies
// were expired.
func Purge(w http.ResponseWriter, r *http.Request) int {
	directives := ClearDirectives(r)
	for _, c := range directives {
		http.SetCookie(w, c)
	}
	return len(directives)
}
