// Package i18n negotiates the request locale and looks up page titles.
package i18n

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/text/language"
)

// CookieName remembers an explicit ?lang= choice.
const CookieName = "portal_lang"

var supported = []language.Tag{language.English, language.French}

// Catalog holds translated strings per supported locale.
type Catalog struct {
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// NewCatalog returns the built-in en/fr catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		matcher: language.NewMatcher(supported),
		messages: map[language.Tag]map[string]string{
			language.English: english,
			language.French:  french,
		},
	}
}

// Supported lists the locales the catalog can serve, English first.
func (c *Catalog) Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// Negotiate picks a supported locale. An explicit query value wins over the cookie,
// which wins over Accept-Language. Unparseable inputs are skipped.
func (c *Catalog) Negotiate(query, cookie, acceptLanguage string) language.Tag {
	for _, explicit := range []string{query, cookie} {
		if explicit == "" {
			continue
		}
		if tag, err := language.Parse(explicit); err == nil {
			return c.match(tag)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			return c.match(tags...)
		}
	}
	return language.English
}

func (c *Catalog) match(tags ...language.Tag) language.Tag {
	_, idx, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supported[idx]
}

// Translate looks key up in tag, then in English, then returns the key itself.
func (c *Catalog) Translate(tag language.Tag, key string) string {
	if msg, ok := c.messages[tag][key]; ok {
		return msg
	}
	if msg, ok := c.messages[language.English][key]; ok {
		return msg
	}
	return key
}

type contextKeyLocale struct{}

// WithLocale stores the negotiated locale.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKeyLocale{}, tag)
}

// Locale returns the negotiated locale, English when unset.
func Locale(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(contextKeyLocale{}).(language.Tag); ok {
		return tag
	}
	return language.English
}

// Middleware negotiates the locale for every request and persists an explicit
// ?lang= choice in a cookie.
func Middleware(c *Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query().Get("lang")
			var cookie string
			if ck, err := r.Cookie(CookieName); err == nil {
				cookie = ck.Value
			}
			tag := c.Negotiate(query, cookie, r.Header.Get("Accept-Language"))
			if query != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    tag.String(),
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), tag)))
		})
	}
}
