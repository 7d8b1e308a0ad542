package session

import "net/http"

// SplashSeen reports whether the splash screen already ran in this browser
// session.
func SplashSeen(r *http.Request) bool {
	c, err := r.Cookie(SplashCookieName)
	return err == nil && c.Value == "1"
}

// MarkSplashSeen sets the session-scoped splash marker.
func MarkSplashSeen(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SplashCookieName,
		Value:    "1",
		Path:     CookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
