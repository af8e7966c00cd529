// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	tag      language.Tag
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	// catalogs holds override and runtime-built catalogs by locale.
	catalogs = map[string]*Catalog{}

	supported = []language.Tag{language.AmericanEnglish, language.BrazilianPortuguese}
	matcher   = language.NewMatcher(supported)
	builtin   = map[string]map[Code]string{
		"en-US": enUS,
		"pt-BR": ptBR,
	}
)

// GetCatalog returns the catalog for the given locale.
// Unknown or unparseable locales resolve to the closest supported one,
// falling back to en-US.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}

	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	resolved := resolveLocale(requested)
	if c, ok := lookupCatalog(resolved); ok {
		return c
	}

	built := NewCatalog(resolved, builtin[resolved])
	return storeCatalogIfAbsent(resolved, built)
}

// SupportedLocales lists the locales with built-in messages.
func SupportedLocales() []string {
	out := make([]string, 0, len(supported))
	for _, tag := range supported {
		out = append(out, tag.String())
	}
	return out
}

func resolveLocale(requested string) string {
	tag, err := language.Parse(requested)
	if err != nil {
		return BaseLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return BaseLocale
	}
	return supported[index].String()
}

// AcceptLanguage picks the supported locale that best matches an HTTP
// Accept-Language header.
func AcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}
	return supported[index].String()
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Number renders n with the catalog locale's digit grouping.
func (c *Catalog) Number(n int) string {
	return message.NewPrinter(c.tag).Sprintf("%d", n)
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
// Templates are always executed even with nil/empty metadata so that
// missing variables render consistently.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a catalog for the given locale, replacing any
// built-in or previously resolved one.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Catalog{
		locale:   locale,
		tag:      tag,
		messages: cloned,
	}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}

func storeCatalogIfAbsent(locale string, candidate *Catalog) *Catalog {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[locale]; ok {
		return existing
	}
	catalogs[locale] = candidate
	return candidate
}
