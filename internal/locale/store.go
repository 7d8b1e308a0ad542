package locale

import (
	"errors"
	"net/http"
	"sync"
)

const (
	// CookieName holds the persisted locale preference.
	CookieName = "socialflow_locale"

	// CookieMaxAge keeps the preference for one year.
	CookieMaxAge = 365 * 24 * 60 * 60
)

// ErrNoValue is returned by Store.Load when nothing has been persisted yet.
var ErrNoValue = errors.New("locale: no stored value")

// Store persists the locale preference between page loads. Both methods
// report failures to the caller; the Session decides to ignore them.
type Store interface {
	Load() (string, error)
	Save(value string) error
}

// CookieStore keeps the preference in the socialflow_locale cookie. Reads come
// from the request; writes go to the response and are visible to later Loads
// in the same request.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	mu    sync.Mutex
	saved *string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure}
}

func (s *CookieStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved != nil {
		return *s.saved, nil
	}

	cookie, err := s.r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNoValue
	}
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func (s *CookieStore) Save(value string) error {
	if _, ok := Parse(value); !ok {
		return ErrUnsupportedLocale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.saved = &value
	return nil
}

// MemoryStore is an in-process Store. LoadErr and SaveErr, when set, are
// returned instead of touching the value.
type MemoryStore struct {
	mu      sync.Mutex
	value   string
	set     bool
	saves   int
	LoadErr error
	SaveErr error
}

// NewMemoryStore returns a store holding value. An empty value means nothing
// has been stored.
func NewMemoryStore(value string) *MemoryStore {
	return &MemoryStore{value: value, set: value != ""}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LoadErr != nil {
		return "", s.LoadErr
	}
	if !s.set {
		return "", ErrNoValue
	}
	return s.value, nil
}

func (s *MemoryStore) Save(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.value = value
	s.set = true
	s.saves++
	return nil
}

// Saves returns how many successful writes the store has seen.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
