package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrWeakPassword          = errors.New("password does not meet requirements")
	ErrPasswordTooLong       = fmt.Errorf("%w: password must be at most 72 bytes", ErrWeakPassword)
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

type Service struct {
	config *config.AuthConfig
	logger *logging.Service
}

func NewService(cfg *config.AuthConfig, logger *logging.Service) *Service {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.MinLength {
		s.logger.Debug("password validation failed: insufficient length",
			zap.Int("length", len(password)),
			zap.Int("min_required", s.config.MinLength))
		return fmt.Errorf("%w: password must be at least %d characters", ErrWeakPassword, s.config.MinLength)
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var missing []string

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if s.config.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		s.logger.Debug("password validation failed: missing requirements",
			zap.Strings("missing_requirements", missing))
		return fmt.Errorf("%w: password must contain at least %s", ErrWeakPassword, strings.Join(missing, ", "))
	}

	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	if err := s.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
