package i18n

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/store"
)

const (
	// CookieName is the cookie (and KV key) that remembers the chosen language.
	CookieName = "lang"
	// CookieMaxAge keeps the choice for a year.
	CookieMaxAge = 365 * 24 * time.Hour
	// CountryHeader is set by Cloudflare to the visitor's ISO country code.
	CountryHeader = "CF-IPCountry"
)

// FromCountry maps a country code to the language its visitors get by default.
func FromCountry(country string) (Lang, bool) {
	if strings.EqualFold(strings.TrimSpace(country), "IR") {
		return FA, true
	}
	return "", false
}

// FromTag extracts the primary subtag of a locale ("fa-IR", "en_US.UTF-8")
// and reports whether it is supported.
func FromTag(tag string) (Lang, bool) {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_.@"); i >= 0 {
		tag = tag[:i]
	}
	return Parse(tag)
}

// ParseAcceptLanguage picks the supported language with the highest q-value.
func ParseAcceptLanguage(header string) (Lang, bool) {
	type candidate struct {
		lang Lang
		q    float64
	}

	var candidates []candidate
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(strings.TrimSpace(part), ";")
		lang, ok := FromTag(fields[0])
		if !ok {
			continue
		}
		q := 1.0
		for _, f := range fields[1:] {
			f = strings.TrimSpace(f)
			if v, found := strings.CutPrefix(f, "q="); found {
				if parsed, err := strconv.ParseFloat(v, 64); err == nil {
					q = parsed
				}
			}
		}
		if q <= 0 {
			continue
		}
		candidates = append(candidates, candidate{lang: lang, q: q})
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].q > candidates[j].q
	})
	return candidates[0].lang, true
}

// FromRequest resolves the language of an HTTP request: the lang cookie first,
// then the edge country header, then Accept-Language, then English.
func FromRequest(r *http.Request) Lang {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if lang, ok := Parse(cookie.Value); ok {
			return lang
		}
	}
	if lang, ok := FromCountry(r.Header.Get(CountryHeader)); ok {
		return lang
	}
	if lang, ok := ParseAcceptLanguage(r.Header.Get("Accept-Language")); ok {
		return lang
	}
	return EN
}

// EnvBrowserLang returns the process locale in the usual POSIX precedence.
func EnvBrowserLang() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Prober returns response headers of the site, as seen through its edge proxy.
type Prober interface {
	Probe(ctx context.Context) (http.Header, error)
}

// Detector chooses the widget language and remembers the choice.
type Detector struct {
	kv          store.KVStore
	prober      Prober
	browserLang func() string
	log         *zerolog.Logger
}

// NewDetector builds a detector. browserLang may be nil to read the process locale.
func NewDetector(kv store.KVStore, prober Prober, browserLang func() string, logger *zerolog.Logger) *Detector {
	if browserLang == nil {
		browserLang = EnvBrowserLang
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Detector{kv: kv, prober: prober, browserLang: browserLang, log: logger}
}

// Detect returns the saved language, or derives one from the visitor's country
// and locale and saves it.
func (d *Detector) Detect(ctx context.Context) Lang {
	saved, ok, err := d.kv.Get(ctx, CookieName)
	if err != nil {
		d.log.Warn().Err(err).Msg("read saved language")
	}
	if lang, supported := Parse(saved); ok && supported {
		return lang
	}

	lang := d.derive(ctx)
	d.Save(ctx, lang)
	return lang
}

// Save remembers an explicit language choice.
func (d *Detector) Save(ctx context.Context, lang Lang) {
	if err := d.kv.Set(ctx, CookieName, string(lang)); err != nil {
		d.log.Warn().Err(err).Str("lang", string(lang)).Msg("save language")
	}
}

func (d *Detector) derive(ctx context.Context) Lang {
	if d.prober == nil {
		return d.fallback()
	}

	headers, err := d.prober.Probe(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("language detection failed")
		return d.fallback()
	}

	if lang, ok := FromCountry(headers.Get(CountryHeader)); ok {
		return lang
	}
	if lang, ok := FromTag(d.browserLang()); ok {
		return lang
	}
	return EN
}

func (d *Detector) fallback() Lang {
	if lang, ok := FromTag(d.browserLang()); ok && lang == FA {
		return FA
	}
	return EN
}
