package locale

import (
	"log/slog"
	"net/http"
)

// MarkerParam is the query parameter that pins the locale for a request.
const MarkerParam = "lang"

// Provider installs a Session into every request it wraps.
type Provider struct {
	dict   Dictionary
	logger *slog.Logger
	secure bool
}

func NewProvider(dict Dictionary, logger *slog.Logger, secure bool) *Provider {
	return &Provider{dict: dict, logger: logger, secure: secure}
}

// Handler resolves the request's locale session and makes it available
// through FromContext.
func (p *Provider) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := NewCookieStore(w, r, p.secure)
		s := NewSession(r.URL.Query().Get(MarkerParam), store, p.dict, p.logger)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
