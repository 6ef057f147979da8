package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/medreg/models"
	"gorm.io/gorm"
)

// Principal is a gorm model that can be logged into.
type Principal[T any] interface {
	*T
	Credentials() *models.Credentials
}

// CredentialRepository reads and writes the login columns of one principal
// table. Only refresh_token is ever written.
type CredentialRepository[T any, P Principal[T]] struct {
	db   *gorm.DB
	kind models.Kind
}

func NewCredentialRepository[T any, P Principal[T]](db *gorm.DB, kind models.Kind) *CredentialRepository[T, P] {
	return &CredentialRepository[T, P]{db: db, kind: kind}
}

func (r *CredentialRepository[T, P]) Kind() models.Kind {
	return r.kind
}

func (r *CredentialRepository[T, P]) FindCredentialsByEmail(ctx context.Context, email string) (*models.Credentials, error) {
	return r.find(ctx, "email = ?", models.NormalizeEmail(email))
}

func (r *CredentialRepository[T, P]) FindCredentialsByID(ctx context.Context, id string) (*models.Credentials, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *CredentialRepository[T, P]) find(ctx context.Context, query string, arg string) (*models.Credentials, error) {
	var record T
	err := r.db.WithContext(ctx).Where(query, arg).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", r.kind, err)
	}
	return P(&record).Credentials(), nil
}

func (r *CredentialRepository[T, P]) StoreRefreshToken(ctx context.Context, id, refreshToken string) error {
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).UpdateColumn("refresh_token", refreshToken)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrPrincipalNotFound
	}
	return nil
}

func (r *CredentialRepository[T, P]) RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	result := r.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND refresh_token = ?", id, presented).
		UpdateColumn("refresh_token", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *CredentialRepository[T, P]) ClearRefreshToken(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).UpdateColumn("refresh_token", nil).Error
}
