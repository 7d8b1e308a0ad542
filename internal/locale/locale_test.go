package locale

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   Locale
		wantOK bool
	}{
		{"en", EN, true},
		{"ar", AR, true},
		{"", "", false},
		{"EN", "", false},
		{"ar-SA", "", false},
		{" en", "", false},
		{"fr", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocale_Dir(t *testing.T) {
	assert.Equal(t, LTR, EN.Dir())
	assert.Equal(t, RTL, AR.Dir())
}

func TestLocale_Toggle(t *testing.T) {
	assert.Equal(t, AR, EN.Toggle())
	assert.Equal(t, EN, AR.Toggle())
	assert.Panics(t, func() { Locale("fr").Toggle() })
}

func TestLocale_ToggleIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := rapid.SampledFrom(Supported).Draw(t, "locale")
		if got := l.Toggle().Toggle(); got != l {
			t.Fatalf("toggle(toggle(%s)) = %s", l, got)
		}
		if l.Toggle().Dir() == l.Dir() {
			t.Fatalf("toggle kept direction %s", l.Dir())
		}
	})
}

func TestResolve(t *testing.T) {
	failing := NewMemoryStore("ar")
	failing.LoadErr = errors.New("storage disabled")

	tests := []struct {
		name   string
		marker string
		store  Store
		want   Locale
	}{
		{"marker wins over store", "ar", NewMemoryStore("en"), AR},
		{"store used when marker missing", "", NewMemoryStore("ar"), AR},
		{"invalid marker falls to store", "de", NewMemoryStore("ar"), AR},
		{"invalid stored value falls to default", "", NewMemoryStore("AR"), Default},
		{"empty store", "", NewMemoryStore(""), Default},
		{"failing store treated as empty", "", failing, Default},
		{"nil store", "", nil, Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.marker, tt.store))
		})
	}
}
