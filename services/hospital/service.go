package hospital

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tech-arch1tect/medreg/database"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrHospitalNotFound = fmt.Errorf("%w: hospital not found", models.ErrPrincipalNotFound)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// BlobRemover deletes uploaded files that are no longer referenced.
type BlobRemover interface {
	Remove(ctx context.Context, urls ...string)
}

type Service struct {
	*database.CredentialRepository[models.Hospital, *models.Hospital]

	db        *gorm.DB
	passwords PasswordHasher
	blobs     BlobRemover
	logger    *logging.Service
}

func NewService(db *gorm.DB, passwords PasswordHasher, blobs BlobRemover, logger *logging.Service) *Service {
	return &Service{
		CredentialRepository: database.NewCredentialRepository[models.Hospital](db, models.KindHospital),
		db:                   db,
		passwords:            passwords,
		blobs:                blobs,
		logger:               logger,
	}
}

type RegisterInput struct {
	HospitalName    string   `json:"hospitalname" form:"hospitalname"`
	Email           string   `json:"email" form:"email"`
	Password        string   `json:"password" form:"password"`
	HelplineNumbers []string `json:"helplinenumbers" form:"helplinenumbers"`
	Specializations []string `json:"specializations" form:"specializations"`
	OpeningTime     string   `json:"openingtime" form:"openingtime"`
	ClosingTime     string   `json:"closingtime" form:"closingtime"`
	Description     string   `json:"description" form:"description"`
	Location        string   `json:"location" form:"location"`
	ProfilePhoto    string   `json:"-" form:"-"`
}

func (in *RegisterInput) normalize() error {
	in.HospitalName = strings.TrimSpace(in.HospitalName)
	in.Email = models.NormalizeEmail(in.Email)
	in.Location = strings.TrimSpace(in.Location)
	in.HelplineNumbers = compact(in.HelplineNumbers)
	in.Specializations = compact(in.Specializations)

	if in.HospitalName == "" || in.Email == "" || strings.TrimSpace(in.Password) == "" || in.Location == "" {
		return models.Invalid("Required fields missing")
	}
	if len(in.HelplineNumbers) == 0 {
		return models.Invalid("At least one helpline number required")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Hospital, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	hospital := &models.Hospital{
		Email:           in.Email,
		HospitalName:    in.HospitalName,
		ProfilePhoto:    in.ProfilePhoto,
		OtherPhotos:     []string{},
		HelplineNumbers: in.HelplineNumbers,
		Specializations: in.Specializations,
		OpeningTime:     in.OpeningTime,
		ClosingTime:     in.ClosingTime,
		Description:     in.Description,
		Location:        in.Location,
		Password:        hash,
	}

	if err := s.db.WithContext(ctx).Create(hospital).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrEmailTaken
		}
		s.logger.Error("failed to create hospital", zap.String("email", in.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to create hospital: %w", err)
	}

	s.logger.Info("hospital registered", zap.String("hospital_id", hospital.ID))
	return hospital, nil
}

// UpdateInput replaces name and email; the remaining fields keep their
// current value when left empty.
type UpdateInput struct {
	HospitalName    string   `json:"hospitalname" form:"hospitalname"`
	Email           string   `json:"email" form:"email"`
	HelplineNumbers []string `json:"helplinenumbers" form:"helplinenumbers"`
	Specializations []string `json:"specializations" form:"specializations"`
	OpeningTime     string   `json:"openingtime" form:"openingtime"`
	ClosingTime     string   `json:"closingtime" form:"closingtime"`
	Description     string   `json:"description" form:"description"`
	Location        string   `json:"location" form:"location"`
	ProfilePhoto    string   `json:"-" form:"-"`
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateInput) (*models.Hospital, error) {
	in.HospitalName = strings.TrimSpace(in.HospitalName)
	in.Email = models.NormalizeEmail(in.Email)
	if in.HospitalName == "" || in.Email == "" {
		return nil, models.Invalid("Hospital name and email are required")
	}

	var replacedPhoto string
	hospital, err := s.mutate(ctx, id, func(h *models.Hospital) {
		h.HospitalName = in.HospitalName
		h.Email = in.Email
		if helplines := compact(in.HelplineNumbers); len(helplines) > 0 {
			h.HelplineNumbers = helplines
		}
		if specializations := compact(in.Specializations); len(specializations) > 0 {
			h.Specializations = specializations
		}
		h.OpeningTime = fallback(in.OpeningTime, h.OpeningTime)
		h.ClosingTime = fallback(in.ClosingTime, h.ClosingTime)
		h.Description = fallback(in.Description, h.Description)
		h.Location = fallback(strings.TrimSpace(in.Location), h.Location)
		if in.ProfilePhoto != "" {
			replacedPhoto = h.ProfilePhoto
			h.ProfilePhoto = in.ProfilePhoto
		}
	})
	if err != nil {
		return nil, err
	}

	if replacedPhoto != "" {
		s.removeBlobs(ctx, replacedPhoto)
	}
	return hospital, nil
}

func (s *Service) AddPhotos(ctx context.Context, id string, urls []string) (*models.Hospital, error) {
	if len(urls) == 0 {
		return nil, models.Invalid("No files uploaded")
	}
	return s.mutate(ctx, id, func(h *models.Hospital) {
		h.OtherPhotos = append(h.OtherPhotos, urls...)
	})
}

func (s *Service) RemovePhotos(ctx context.Context, id string, urls []string) (*models.Hospital, error) {
	if len(urls) == 0 {
		return nil, models.Invalid("No photos to delete")
	}

	var removed []string
	hospital, err := s.mutate(ctx, id, func(h *models.Hospital) {
		h.OtherPhotos = slices.DeleteFunc(h.OtherPhotos, func(u string) bool {
			if slices.Contains(urls, u) {
				removed = append(removed, u)
				return true
			}
			return false
		})
	})
	if err != nil {
		return nil, err
	}

	// only blobs the hospital actually owned
	s.removeBlobs(ctx, removed...)
	return hospital, nil
}

var profileColumns = []string{
	"hospital_name", "email", "profile_photo", "other_photos", "helpline_numbers",
	"specializations", "opening_time", "closing_time", "description", "location",
}

// mutate loads the hospital, applies fn and saves it in one transaction.
func (s *Service) mutate(ctx context.Context, id string, fn func(*models.Hospital)) (*models.Hospital, error) {
	var hospital models.Hospital
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&hospital, "id = ?", id).Error; err != nil {
			return err
		}
		fn(&hospital)
		return tx.Model(&hospital).Select(profileColumns).Updates(&hospital).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrHospitalNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, models.ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("failed to update hospital: %w", err)
	}
	return &hospital, nil
}

func (s *Service) removeBlobs(ctx context.Context, urls ...string) {
	if s.blobs != nil {
		s.blobs.Remove(ctx, urls...)
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func fallback(value, current string) string {
	if strings.TrimSpace(value) == "" {
		return current
	}
	return value
}
