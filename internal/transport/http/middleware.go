package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/auth"
	"github.com/vovakirdan/wirechat-widget/internal/i18n"
)

const (
	// ContextKeyOperator is the context key for the authenticated operator name.
	ContextKeyOperator = "operator"
	// ContextKeyLang is the context key for the resolved response language.
	ContextKeyLang = "lang"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError writes an error body in the request's language and aborts the chain.
func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: i18n.TranslateError(langFrom(c), msg)})
}

func langFrom(c *gin.Context) i18n.Lang {
	if v, ok := c.Get(ContextKeyLang); ok {
		if lang, ok := v.(i18n.Lang); ok {
			return lang
		}
	}
	return i18n.EN
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The second result is the error message to report when extraction fails.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "invalid authorization header format"
	}
	return parts[1], ""
}

// AuthMiddleware creates a middleware that validates operator JWT tokens.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := bearerToken(c.GetHeader("Authorization"))
		if problem != "" {
			logger.Debug().Msg(problem)
			respondError(c, http.StatusUnauthorized, problem)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			respondError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextKeyOperator, claims.Operator)
		c.Next()
	}
}

// LocaleMiddleware resolves the response language and remembers it in the lang
// cookie for a year.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.FromRequest(c.Request)
		c.Set(ContextKeyLang, lang)

		if current, err := c.Cookie(i18n.CookieName); err != nil || current != string(lang) {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(i18n.CookieName, string(lang), int(i18n.CookieMaxAge.Seconds()), "/", "", false, false)
		}
		c.Next()
	}
}

// CORSMiddleware lets the widget call the visitor endpoints from the site's origin.
func CORSMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, HEAD, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Expose-Headers", i18n.CountryHeader)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
