package locale

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type mapDictionary map[Locale]map[string]string

func (d *mapDictionary) Lookup(l Locale, key string) (string, bool) {
	msg, ok := (*d)[l][key]
	return msg, ok
}

func newTestDictionary() *mapDictionary {
	return &mapDictionary{
		EN: {"/": "Dashboard", "/accounts": "Accounts"},
		AR: {"/": "لوحة التحكم"},
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSession_AppliesDocumentOnInit(t *testing.T) {
	store := NewMemoryStore("")
	s := NewSession("ar", store, newTestDictionary(), newTestLogger())

	doc := s.Document()
	assert.Equal(t, "ar", doc.Lang)
	assert.Equal(t, RTL, doc.Dir)
	assert.Equal(t, "ar", doc.DataLocale)
	assert.Equal(t, ArabicFontFamily, doc.BodyFont)
	assert.Equal(t, "font-family: "+ArabicFontFamily, doc.BodyStyle())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ar", stored)
}

func TestNewSession_SkipsWriteWhenStoreMatches(t *testing.T) {
	store := NewMemoryStore("en")
	_ = NewSession("", store, nil, newTestLogger())

	assert.Equal(t, 0, store.Saves())
}

func TestSession_SetLocale(t *testing.T) {
	store := NewMemoryStore("")
	s := NewSession("", store, newTestDictionary(), newTestLogger())
	require.Equal(t, EN, s.Locale())

	require.NoError(t, s.SetLocale(AR))
	assert.Equal(t, AR, s.Locale())
	assert.Equal(t, RTL, s.Dir())
	assert.Equal(t, ArabicFontFamily, s.Document().BodyFont)

	require.NoError(t, s.SetLocale(EN))
	assert.Equal(t, LTR, s.Dir())
	assert.Empty(t, s.Document().BodyFont, "font override removed when leaving ar")
	assert.Empty(t, s.Document().BodyStyle())

	stored, _ := store.Load()
	assert.Equal(t, "en", stored)
}

func TestSession_SetLocaleRejectsUnsupported(t *testing.T) {
	s := NewSession("ar", NewMemoryStore(""), nil, newTestLogger())

	err := s.SetLocale("fr")
	assert.ErrorIs(t, err, ErrUnsupportedLocale)
	assert.Equal(t, AR, s.Locale())
}

func TestSession_StoreWriteFailureIsIgnored(t *testing.T) {
	store := NewMemoryStore("")
	store.SaveErr = errors.New("quota exceeded")

	s := NewSession("", store, nil, newTestLogger())
	assert.Equal(t, AR, s.ToggleLocale())
	assert.Equal(t, "ar", s.Document().Lang, "in-memory state stays authoritative")
}

func TestSession_ToggleTwiceRestoresState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.SampledFrom(Supported).Draw(t, "start")
		s := NewSession(string(start), NewMemoryStore(""), nil, newTestLogger())
		before := s.Document()

		s.ToggleLocale()
		s.ToggleLocale()

		if s.Locale() != start {
			t.Fatalf("locale = %s, want %s", s.Locale(), start)
		}
		if s.Document() != before {
			t.Fatalf("document = %+v, want %+v", s.Document(), before)
		}
	})
}

func TestSession_T(t *testing.T) {
	s := NewSession("", nil, newTestDictionary(), newTestLogger())

	assert.Equal(t, "Dashboard", s.T("/"))
	assert.Equal(t, "Missing", s.T("/unknown", "Missing"))
	assert.Equal(t, "/unknown", s.T("/unknown"))

	require.NoError(t, s.SetLocale(AR))
	assert.Equal(t, "لوحة التحكم", s.T("/"))
	assert.Equal(t, "fallback", s.T("/accounts", "fallback"))
}

func TestSession_TranslatorStableUntilLocaleChanges(t *testing.T) {
	s := NewSession("", nil, newTestDictionary(), newTestLogger())

	first := s.Translator()
	assert.True(t, first == s.Translator())

	s.ToggleLocale()
	changed := s.Translator()
	assert.False(t, first == changed)
	assert.Equal(t, AR, changed.Locale())
}

func TestFromContext(t *testing.T) {
	assert.PanicsWithValue(t, "locale: FromContext called outside of a locale Provider", func() {
		FromContext(context.Background())
	})

	s := NewSession("", nil, nil, newTestLogger())
	ctx := WithSession(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))
}
