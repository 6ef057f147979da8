package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/services/session"
)

const RefreshCookie = "refreshToken"

type cookieWriter struct {
	config *config.CookieConfig
}

func (w cookieWriter) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     w.config.Path,
		Domain:   w.config.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   w.config.Secure,
		SameSite: w.config.SameSiteMode(),
	}
}

func (w cookieWriter) set(c echo.Context, pair session.TokenPair) {
	c.SetCookie(w.cookie(principal.AccessCookie, pair.AccessToken, w.config.MaxAge))
	c.SetCookie(w.cookie(RefreshCookie, pair.RefreshToken, w.config.MaxAge))
}

func (w cookieWriter) clear(c echo.Context) {
	for _, name := range []string{principal.AccessCookie, RefreshCookie} {
		expired := w.cookie(name, "", 0)
		expired.MaxAge = -1
		expired.Expires = time.Unix(0, 0)
		c.SetCookie(expired)
	}
}
