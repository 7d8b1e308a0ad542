package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
)

// BasicAuthMiddleware guards operator endpoints such as /metrics.
type BasicAuthMiddleware struct {
	realm    string
	username string
	password string
}

// NewBasicAuthMiddleware creates a basic auth guard. With both username and
// password empty the guard is disabled and every request passes.
func NewBasicAuthMiddleware(realm, username, password string) *BasicAuthMiddleware {
	return &BasicAuthMiddleware{
		realm:    realm,
		username: username,
		password: password,
	}
}

// Enabled reports whether credentials are required.
func (m *BasicAuthMiddleware) Enabled() bool {
	return m.username != "" || m.password != ""
}

// Handler returns middleware that requires basic authentication.
func (m *BasicAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			m.unauthorized(w)
			return
		}

		// Compare both so the response time does not reveal which one matched
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1
		if !userMatch || !passMatch {
			m.unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *BasicAuthMiddleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Basic realm="+strconv.Quote(m.realm))
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
