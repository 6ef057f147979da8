package principal

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/token"
	"go.uber.org/zap"
)

// AccessCookie is the cookie the access token is issued in.
const AccessCookie = "accessToken"

// Resolver loads the projection of one principal kind.
type Resolver[P any] interface {
	Kind() models.Kind
	Resolve(ctx context.Context, id string) (P, error)
}

type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (*token.Claims, error)
}

type Handler[P any] func(c echo.Context, p P) error

// Gate authenticates requests for one principal kind.
type Gate[P any] struct {
	tokens   TokenVerifier
	resolver Resolver[P]
	logger   *logging.Service
}

func NewGate[P any](tokens TokenVerifier, resolver Resolver[P], logger *logging.Service) *Gate[P] {
	return &Gate[P]{tokens: tokens, resolver: resolver, logger: logger}
}

// ExtractToken returns the bearer token from the Authorization header,
// falling back to the access token cookie.
func ExtractToken(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate resolves the caller or returns a 401 APIError.
func (g *Gate[P]) Authenticate(c echo.Context) (P, error) {
	var zero P
	kind := g.resolver.Kind()

	tokenString := ExtractToken(c)
	if tokenString == "" {
		return zero, response.Unauthorized("Unauthorized request", nil)
	}

	claims, err := g.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		g.logger.Debug("access token rejected", zap.String("kind", kind.String()), zap.Error(err))
		return zero, response.Unauthorized("Invalid access token", err)
	}

	if claims.Kind != kind {
		g.logger.Debug("access token for another principal kind",
			zap.String("expected", kind.String()),
			zap.String("actual", claims.Kind.String()))
		return zero, response.Unauthorized("Invalid access token", nil)
	}

	p, err := g.resolver.Resolve(c.Request().Context(), claims.PrincipalID)
	if err != nil {
		if errors.Is(err, models.ErrPrincipalNotFound) {
			return zero, response.Unauthorized(notFoundMessage(kind), err)
		}
		return zero, response.Internal(err)
	}

	return p, nil
}

// Protect wraps a handler that needs the authenticated principal.
func (g *Gate[P]) Protect(next Handler[P]) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := g.Authenticate(c)
		if err != nil {
			return err
		}
		return next(c, p)
	}
}

func notFoundMessage(kind models.Kind) string {
	switch kind {
	case models.KindHospital:
		return "Hospital not found"
	case models.KindPatient:
		return "User not found"
	default:
		return "Principal not found"
	}
}
