package web

import (
	"context"
	"io/fs"
	"net/http"
	"path"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"

	"rallyrank/resources"
)

type ctxKey int

const ctxKeyLocale ctxKey = iota

const defaultLocale = "en"

// loadLocales parses every locales/<lang>/default.po catalog. The default
// locale comes first so the matcher falls back to it.
func loadLocales() (map[string]*gotext.Po, []language.Tag, error) {
	dirs, err := fs.ReadDir(resources.Locales, "locales")
	if err != nil {
		return nil, nil, err
	}

	locales := make(map[string]*gotext.Po, len(dirs))
	tags := []language.Tag{language.Make(defaultLocale)}
	for _, v := range dirs {
		if !v.IsDir() {
			continue
		}

		buf, err := fs.ReadFile(resources.Locales, path.Join("locales", v.Name(), "default.po"))
		if err != nil {
			return nil, nil, err
		}

		po := gotext.NewPo()
		po.Parse(buf)
		locales[v.Name()] = po

		if v.Name() != defaultLocale {
			tags = append(tags, language.Make(v.Name()))
		}
	}

	return locales, tags, nil
}

func (s *Server) localeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := s.matchLocale(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyLocale, locale)))
	})
}

func (s *Server) matchLocale(acceptLanguage string) string {
	wanted, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(wanted) == 0 {
		return defaultLocale
	}

	_, index, confidence := s.matcher.Match(wanted...)
	if confidence == language.No {
		return defaultLocale
	}

	base, _ := s.tags[index].Base()
	return base.String()
}

// t translates str in the locale of the request.
func (s *Server) t(r *http.Request, str string) string {
	locale, _ := r.Context().Value(ctxKeyLocale).(string)
	po, ok := s.locales[locale]
	if !ok || str == "" {
		return str
	}

	return po.Get(str)
}
