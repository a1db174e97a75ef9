package rest

import (
	"net/http"

	"myEventReco/business/experiment"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/trace"

	"github.com/labstack/echo/v4"
)

const stickyCookieMaxAge = 90 * 24 * 60 * 60

// StickyCookies carries one encrypted variant token per experiment, in a
// cookie named "<prefix>_<experiment key>".
type StickyCookies struct {
	Prefix string
	Tokens *experiment.TokenCodec
}

func (s StickyCookies) name(key string) string {
	return s.Prefix + "_" + key
}

func (s StickyCookies) Read(c echo.Context, experimentKey string) string {
	key := experiment.SanitizeKey(experimentKey)
	if !s.Tokens.Enabled() || key == "" {
		return ""
	}
	ck, err := c.Cookie(s.name(key))
	if err != nil {
		return ""
	}
	return ck.Value
}

func (s StickyCookies) Write(c echo.Context, experimentKey, variant string) {
	if !s.Tokens.Enabled() || experimentKey == "" || variant == "" {
		return
	}
	token, err := s.Tokens.Issue(experimentKey, variant)
	if err != nil {
		logger.Warn("experiment_token_issue_failed",
			"trace_id", trace.TraceIDFromContext(c.Request().Context()),
			"experiment", experimentKey,
			"error", err,
		)
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     s.name(experimentKey),
		Value:    token,
		Path:     "/",
		MaxAge:   stickyCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
