// Package dictionary serves UI messages for the supported locales from
// go-i18n bundles built out of TOML message files.
//
// The English and Arabic files are embedded. A directory of
// messages.<locale>.toml files can be layered on top and reloaded while the
// server runs (see Watch).
package dictionary

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/DukeRupert/socialflow/internal/locale"
)

//go:embed locales/*.toml
var embedded embed.FS

// Bundle is the message dictionary. It implements locale.Dictionary.
type Bundle struct {
	mu         sync.RWMutex
	localizers map[locale.Locale]*i18n.Localizer
	overrides  fs.FS
	logger     *slog.Logger
}

// New builds a Bundle from the embedded message files, with optional
// overrides read from dir. An empty dir means embedded messages only.
func New(dir string, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bundle{logger: logger}
	if dir != "" {
		b.overrides = os.DirFS(dir)
	}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload rebuilds the dictionary from the embedded files and the override
// directory. On error the previous messages stay in place.
func (b *Bundle) Reload() error {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, l := range locale.Supported {
		name := fileName(l)
		if _, err := bundle.LoadMessageFileFS(embedded, "locales/"+name); err != nil {
			return fmt.Errorf("load embedded %s: %w", name, err)
		}
		if b.overrides == nil {
			continue
		}
		if _, err := bundle.LoadMessageFileFS(b.overrides, name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load override %s: %w", name, err)
		}
	}

	localizers := make(map[locale.Locale]*i18n.Localizer, len(locale.Supported))
	for _, l := range locale.Supported {
		localizers[l] = i18n.NewLocalizer(bundle, string(l))
	}

	b.mu.Lock()
	b.localizers = localizers
	b.mu.Unlock()

	b.logger.Debug("message dictionary loaded", "locales", len(localizers), "overrides", b.overrides != nil)
	return nil
}

// Lookup returns the message for key in l. A message that only exists in
// another locale is reported as missing.
func (b *Bundle) Lookup(l locale.Locale, key string) (string, bool) {
	b.mu.RLock()
	localizer, ok := b.localizers[l]
	b.mu.RUnlock()
	if !ok || key == "" {
		return "", false
	}

	// go-i18n falls back to the default language and reports it as an
	// error, so any error means the key is missing for l.
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		return "", false
	}
	return msg, true
}

func fileName(l locale.Locale) string {
	return "messages." + string(l) + ".toml"
}
