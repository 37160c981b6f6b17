// Package i18n localizes the strings niiview shows to people: host
// notifications, terminal UI labels and CLI output.
//
//	i18n.Init(i18n.ResolveLocale(cfg.Language))
//	i18n.T("tui.status.playing", "playing")
//	i18n.Tf("engine.notify.loadFailed", "Failed to load %s: %v", name, err)
//	i18n.Tn("tui.viewports", "{{.Count}} viewport", "{{.Count}} viewports", n)
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/wethinkt/go-niiview/internal/tuilog"
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	mu        sync.RWMutex
)

// Init loads the embedded locales and selects lang, falling back to
// English. It may be called again to switch language.
func Init(lang string) {
	mu.Lock()
	defer mu.Unlock()

	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, _ := localeFS.ReadDir("locales")
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+e.Name()); err != nil {
			tuilog.Log.Warn("i18n: bad locale file", "file", e.Name(), "error", err)
		}
	}

	localizer = i18n.NewLocalizer(bundle, lang, "en")
}

// T returns the localized string for id, or defaultMsg when there is no
// translation.
func T(id string, defaultMsg string) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()

	if l == nil {
		return defaultMsg
	}

	s, err := l.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID:    id,
			Other: defaultMsg,
		},
	})
	if err != nil {
		return defaultMsg
	}
	return s
}

// Tf is T followed by fmt.Sprintf.
func Tf(id string, defaultMsg string, args ...any) string {
	return fmt.Sprintf(T(id, defaultMsg), args...)
}

// Tn picks the plural form for count. Forms use {{.Count}}.
func Tn(id string, one string, other string, count int) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()

	if l == nil {
		if count == 1 {
			return strings.ReplaceAll(one, "{{.Count}}", strconv.Itoa(count))
		}
		return strings.ReplaceAll(other, "{{.Count}}", strconv.Itoa(count))
	}

	s, err := l.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID:    id,
			One:   one,
			Other: other,
		},
		PluralCount:  count,
		TemplateData: map[string]int{"Count": count},
	})
	if err != nil {
		return strings.ReplaceAll(other, "{{.Count}}", strconv.Itoa(count))
	}
	return s
}

// ResolveLocale picks the locale: NIIVIEW_LANG, then configLang, then
// LC_ALL and LANG, then "en".
func ResolveLocale(configLang string) string {
	if v := os.Getenv("NIIVIEW_LANG"); v != "" {
		return v
	}
	if configLang != "" {
		return configLang
	}
	for _, env := range []string{"LC_ALL", "LANG"} {
		if v := os.Getenv(env); v != "" && v != "C" && v != "POSIX" {
			return normalizeLocale(v)
		}
	}
	return "en"
}

// normalizeLocale turns "de_DE.UTF-8" into "de-DE".
func normalizeLocale(posix string) string {
	posix, _, _ = strings.Cut(posix, ".")
	posix, _, _ = strings.Cut(posix, "@")
	return strings.ReplaceAll(posix, "_", "-")
}
