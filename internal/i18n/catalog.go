// Package i18n loads the embedded locale catalogs and picks a language for
// each request.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const DefaultLanguage = "en"

//go:embed locales/*.yaml
var locales embed.FS

type Language struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Native string `yaml:"native"`
	Dir    string `yaml:"dir"`
}

func (l Language) RTL() bool { return l.Dir == "rtl" }

type catalogFile struct {
	Meta     Language          `yaml:"meta"`
	Messages map[string]string `yaml:"messages"`
}

type Catalog struct {
	languages []Language
	byCode    map[string]Language
	messages  map[string]map[string]string
	matcher   language.Matcher
}

// Default loads the catalogs compiled into the binary.
func Default() (*Catalog, error) {
	return Load(locales, "locales")
}

// Load reads every *.yaml catalog under dir. The English catalog is
// required; it is the fallback for missing keys.
func Load(fsys fs.FS, dir string) (*Catalog, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		byCode:   make(map[string]Language),
		messages: make(map[string]map[string]string),
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		code := strings.ToLower(strings.TrimSpace(file.Meta.Code))
		if code == "" {
			return nil, fmt.Errorf("%s: missing meta.code", name)
		}
		if _, err := language.Parse(code); err != nil {
			return nil, fmt.Errorf("%s: invalid language code %q: %w", name, code, err)
		}
		if _, dup := c.byCode[code]; dup {
			return nil, fmt.Errorf("%s: duplicate language %q", name, code)
		}
		file.Meta.Code = code
		if file.Meta.Dir == "" {
			file.Meta.Dir = "ltr"
		}
		c.byCode[code] = file.Meta
		c.messages[code] = file.Messages
		c.languages = append(c.languages, file.Meta)
	}
	if _, ok := c.byCode[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing %q catalog", DefaultLanguage)
	}

	// The default language must come first: the matcher falls back to index 0.
	sort.SliceStable(c.languages, func(i, j int) bool {
		if c.languages[i].Code == DefaultLanguage {
			return true
		}
		if c.languages[j].Code == DefaultLanguage {
			return false
		}
		return c.languages[i].Code < c.languages[j].Code
	})
	tags := make([]language.Tag, 0, len(c.languages))
	for _, l := range c.languages {
		tags = append(tags, language.MustParse(l.Code))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func (c *Catalog) Languages() []Language {
	out := make([]Language, len(c.languages))
	copy(out, c.languages)
	return out
}

func (c *Catalog) Supported(code string) bool {
	_, ok := c.byCode[strings.ToLower(code)]
	return ok
}

func (c *Catalog) Language(code string) Language {
	if l, ok := c.byCode[strings.ToLower(code)]; ok {
		return l
	}
	return c.byCode[DefaultLanguage]
}

// Match picks a language: an explicit saved choice first, then the
// browser's Accept-Language header, then English.
func (c *Catalog) Match(saved, acceptLanguage string) string {
	if c.Supported(saved) {
		return strings.ToLower(saved)
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return c.languages[index].Code
}

// T returns the message for key in lang, falling back to English and then
// to the key itself. Args are applied with fmt.Sprintf.
func (c *Catalog) T(lang, key string, args ...any) string {
	msg, ok := c.messages[strings.ToLower(lang)][key]
	if !ok {
		msg, ok = c.messages[DefaultLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
