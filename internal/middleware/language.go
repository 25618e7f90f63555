package middleware

import (
	"github.com/gin-gonic/gin"
	"youareloved-web/internal/i18n"
)

// LanguageCookie holds an explicit language choice.
const LanguageCookie = "lang"

const languageContextKey = "lang"

func LanguageFromContext(c *gin.Context) string {
	if lang := c.GetString(languageContextKey); lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}

// Language picks the request language from the saved choice, then
// Accept-Language, then English.
func Language(catalog *i18n.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		saved, _ := c.Cookie(LanguageCookie)
		c.Set(languageContextKey, catalog.Match(saved, c.GetHeader("Accept-Language")))
		c.Next()
	}
}
