package locale

import (
	"context"
	"log/slog"
	"sync"
)

// ArabicFontFamily overrides the body font while the Arabic locale is active.
const ArabicFontFamily = "'Noto Kufi Arabic', 'Cairo', sans-serif"

// Dictionary looks up a message for a locale. Implementations must be
// comparable (typically a pointer) so Translator values can be compared.
type Dictionary interface {
	Lookup(l Locale, key string) (string, bool)
}

// Document is the set of page-root attributes driven by the locale.
type Document struct {
	Lang       string
	Dir        Direction
	DataLocale string
	// BodyFont is the body font-family override; empty means none.
	BodyFont string
}

// BodyStyle renders BodyFont as an inline style value.
func (d Document) BodyStyle() string {
	if d.BodyFont == "" {
		return ""
	}
	return "font-family: " + d.BodyFont
}

// Translator is the translation function bound to one locale. Two Translators
// obtained from the same Session compare equal until the locale changes.
type Translator struct {
	locale Locale
	dict   Dictionary
}

// Locale returns the locale the translator is bound to.
func (t Translator) Locale() Locale {
	return t.locale
}

// T returns the message for key. When the dictionary has no entry it returns
// the first fallback, or the key itself when no fallback is given.
func (t Translator) T(key string, fallback ...string) string {
	if t.dict != nil {
		if msg, ok := t.dict.Lookup(t.locale, key); ok {
			return msg
		}
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return key
}

// Session is the language state of one page render. It is safe for
// concurrent use, though a request normally touches it from one goroutine.
type Session struct {
	mu     sync.Mutex
	locale Locale
	doc    Document
	store  Store
	dict   Dictionary
	logger *slog.Logger
}

// NewSession resolves the initial locale from marker and store, then applies
// it to the document and store the same way a later change would.
func NewSession(marker string, store Store, dict Dictionary, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		locale: Resolve(marker, store),
		store:  store,
		dict:   dict,
		logger: logger,
	}
	s.apply()
	return s
}

func (s *Session) Locale() Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

func (s *Session) Dir() Direction {
	return s.Locale().Dir()
}

// Document returns a snapshot of the page-root attributes.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// SetLocale replaces the active locale. Values outside {en, ar} are rejected
// with ErrUnsupportedLocale and leave the session unchanged.
func (s *Session) SetLocale(l Locale) error {
	if !l.Valid() {
		return ErrUnsupportedLocale
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = l
	s.apply()
	return nil
}

// ToggleLocale flips between en and ar and returns the new locale.
func (s *Session) ToggleLocale() Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = s.locale.Toggle()
	s.apply()
	return s.locale
}

// T translates key in the active locale.
func (s *Session) T(key string, fallback ...string) string {
	return s.Translator().T(key, fallback...)
}

func (s *Session) Translator() Translator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Translator{locale: s.locale, dict: s.dict}
}

// apply syncs the document attributes and persists the locale. Callers hold mu.
func (s *Session) apply() {
	s.doc.Lang = string(s.locale)
	s.doc.Dir = s.locale.Dir()
	s.doc.DataLocale = string(s.locale)
	if s.locale == AR {
		s.doc.BodyFont = ArabicFontFamily
	} else {
		s.doc.BodyFont = ""
	}

	if s.store == nil {
		return
	}
	if current, err := s.store.Load(); err == nil && current == string(s.locale) {
		return
	}
	if err := s.store.Save(string(s.locale)); err != nil {
		s.logger.Debug("locale preference not persisted", "locale", s.locale, "error", err)
	}
}

type contextKey string

const sessionContextKey contextKey = "locale_session"

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFrom returns the session installed in ctx, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}

// FromContext returns the session installed by Provider.Handler. Calling it
// on a context without a session is a programming error and panics.
func FromContext(ctx context.Context) *Session {
	s, ok := SessionFrom(ctx)
	if !ok {
		panic("locale: FromContext called outside of a locale Provider")
	}
	return s
}
