package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/token"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized       = errors.New("unauthorized request")
	ErrInvalidToken       = fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	ErrTokenReused        = fmt.Errorf("%w: refresh token is expired or used", ErrUnauthorized)
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrUnknownKind        = errors.New("unknown principal kind")
)

// CredentialStore is implemented once per principal kind.
type CredentialStore interface {
	Kind() models.Kind
	FindCredentialsByEmail(ctx context.Context, email string) (*models.Credentials, error)
	FindCredentialsByID(ctx context.Context, id string) (*models.Credentials, error)
	StoreRefreshToken(ctx context.Context, id, refreshToken string) error
	// RotateRefreshToken replaces presented with next only if presented is
	// still the stored value. It reports whether the swap happened.
	RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
	PublicProfile(ctx context.Context, id string) (any, error)
}

type TokenService interface {
	IssueAccessToken(principalID string, kind models.Kind) (string, error)
	IssueRefreshToken(principalID string) (string, error)
	VerifyRefreshToken(tokenString string) (*token.Claims, error)
}

type PasswordVerifier interface {
	VerifyPassword(hashedPassword, password string) error
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	TokenPair
	PrincipalID string
	Principal   any
}

type Manager struct {
	tokens    TokenService
	passwords PasswordVerifier
	stores    map[models.Kind]CredentialStore
	logger    *logging.Service
}

func NewManager(tokens TokenService, passwords PasswordVerifier, logger *logging.Service, stores ...CredentialStore) *Manager {
	m := &Manager{
		tokens:    tokens,
		passwords: passwords,
		stores:    make(map[models.Kind]CredentialStore, len(stores)),
		logger:    logger,
	}
	for _, store := range stores {
		m.stores[store.Kind()] = store
	}
	return m
}

func (m *Manager) store(kind models.Kind) (CredentialStore, error) {
	store, ok := m.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return store, nil
}

func (m *Manager) Login(ctx context.Context, kind models.Kind, email, password string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	store, err := m.store(kind)
	if err != nil {
		return nil, err
	}

	creds, err := store.FindCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrPrincipalNotFound) {
			m.logger.Info("login for unknown principal", zap.String("kind", kind.String()), zap.String("email", email))
		}
		return nil, err
	}

	if err := m.passwords.VerifyPassword(creds.PasswordHash, password); err != nil {
		m.logger.Info("login rejected: password mismatch", m.eventFields(ctx, kind, creds.ID)...)
		return nil, ErrInvalidCredentials
	}

	pair, err := m.issuePair(creds.ID, kind)
	if err != nil {
		return nil, err
	}

	if err := store.StoreRefreshToken(ctx, creds.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	profile, err := store.PublicProfile(ctx, creds.ID)
	if err != nil {
		return nil, err
	}

	m.logger.Info("principal logged in", m.eventFields(ctx, kind, creds.ID)...)

	return &LoginResult{
		TokenPair:   *pair,
		PrincipalID: creds.ID,
		Principal:   profile,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// be the one currently stored for the principal; on success it is replaced.
func (m *Manager) Refresh(ctx context.Context, kind models.Kind, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, ErrUnauthorized
	}

	store, err := m.store(kind)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	creds, err := store.FindCredentialsByID(ctx, claims.PrincipalID)
	if err != nil {
		return nil, err
	}

	if creds.RefreshToken != presented {
		m.logger.Warn("stale refresh token presented", m.eventFields(ctx, kind, creds.ID)...)
		return nil, ErrTokenReused
	}

	pair, err := m.issuePair(creds.ID, kind)
	if err != nil {
		return nil, err
	}

	swapped, err := store.RotateRefreshToken(ctx, creds.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !swapped {
		m.logger.Warn("concurrent refresh lost rotation", m.eventFields(ctx, kind, creds.ID)...)
		return nil, ErrTokenReused
	}

	m.logger.Info("refresh token rotated", m.eventFields(ctx, kind, creds.ID)...)

	return pair, nil
}

// Logout clears the stored refresh token. Calling it twice is not an error.
func (m *Manager) Logout(ctx context.Context, kind models.Kind, principalID string) error {
	store, err := m.store(kind)
	if err != nil {
		return err
	}

	if err := store.ClearRefreshToken(ctx, principalID); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	m.logger.Info("principal logged out", m.eventFields(ctx, kind, principalID)...)
	return nil
}

func (m *Manager) issuePair(principalID string, kind models.Kind) (*TokenPair, error) {
	access, err := m.tokens.IssueAccessToken(principalID, kind)
	if err != nil {
		return nil, err
	}
	refresh, err := m.tokens.IssueRefreshToken(principalID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) eventFields(ctx context.Context, kind models.Kind, principalID string) []zap.Field {
	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.String("principal_id", principalID),
	}

	client, ok := ClientFromContext(ctx)
	if !ok {
		return fields
	}

	device := DescribeDevice(client.UserAgent)
	return append(fields,
		zap.String("ip", client.IP),
		zap.String("browser", device.Browser),
		zap.String("os", device.OS),
		zap.String("device_type", device.Type),
	)
}
