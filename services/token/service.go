package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = fmt.Errorf("%w: token has expired", ErrInvalidToken)
	ErrMalformedToken    = fmt.Errorf("%w: malformed token", ErrInvalidToken)
	ErrInvalidSignature  = fmt.Errorf("%w: invalid token signature", ErrInvalidToken)
	ErrSigningKeyMissing = errors.New("token signing secret is not configured")
)

// Claims is shared by access and refresh tokens. Refresh tokens leave Kind empty.
type Claims struct {
	PrincipalID string      `json:"principal_id"`
	Kind        models.Kind `json:"principal_kind,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	config *config.JWTConfig
	logger *logging.Service
	now    func() time.Time
}

func NewService(cfg *config.JWTConfig, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying tokens.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.RefreshExpiry
}

func (s *Service) IssueAccessToken(principalID string, kind models.Kind) (string, error) {
	token, err := s.sign(principalID, kind, s.config.AccessExpiry, s.config.AccessSecret)
	if err != nil {
		s.logger.Error("failed to sign access token", zap.String("principal_id", principalID), zap.Error(err))
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

func (s *Service) IssueRefreshToken(principalID string) (string, error) {
	token, err := s.sign(principalID, "", s.config.RefreshExpiry, s.config.RefreshSecret)
	if err != nil {
		s.logger.Error("failed to sign refresh token", zap.String("principal_id", principalID), zap.Error(err))
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, nil
}

func (s *Service) sign(principalID string, kind models.Kind, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", ErrSigningKeyMissing
	}

	now := s.now()
	jti := uuid.NewString()
	claims := Claims{
		PrincipalID: principalID,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.Issuer,
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) VerifyAccessToken(tokenString string) (*Claims, error) {
	return s.Verify(tokenString, s.config.AccessSecret)
}

func (s *Service) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return s.Verify(tokenString, s.config.RefreshSecret)
}

// Verify checks signature, algorithm, issuer and expiry. A token is valid strictly
// before its exp claim.
func (s *Service) Verify(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrSigningKeyMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)

	if err != nil {
		s.logger.Debug("token verification failed", zap.Error(err))

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PrincipalID == "" {
		return nil, ErrInvalidToken
	}

	if !claims.ExpiresAt.After(s.now()) {
		return nil, ErrExpiredToken
	}

	return claims, nil
}
