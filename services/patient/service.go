package patient

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
	"gorm.io/gorm/clause"
)

var (
	ErrPatientNotFound  = fmt.Errorf("%w: user not found", models.ErrPrincipalNotFound)
	ErrHospitalNotFound = errors.New("hospital not found")
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type BlobRemover interface {
	Remove(ctx context.Context, urls ...string)
}

type Service struct {
	*database.CredentialRepository[models.Patient, *models.Patient]

	db        *gorm.DB
	passwords PasswordHasher
	blobs     BlobRemover
	logger    *logging.Service
}

func NewService(db *gorm.DB, passwords PasswordHasher, blobs BlobRemover, logger *logging.Service) *Service {
	return &Service{
		CredentialRepository: database.NewCredentialRepository[models.Patient](db, models.KindPatient),
		db:                   db,
		passwords:            passwords,
		blobs:                blobs,
		logger:               logger,
	}
}

type RegisterInput struct {
	FullName     string `json:"fullname" form:"fullname"`
	Email        string `json:"email" form:"email"`
	Password     string `json:"password" form:"password"`
	ProfilePhoto string `json:"-" form:"-"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Patient, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = models.NormalizeEmail(in.Email)
	if in.FullName == "" || in.Email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, models.Invalid("fullname, email and password are required")
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{
		FullName:      in.FullName,
		Email:         in.Email,
		Password:      hash,
		ProfilePhoto:  in.ProfilePhoto,
		Reports:       []string{},
		HiddenReports: []string{},
	}

	if err := s.db.WithContext(ctx).Create(patient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrEmailTaken
		}
		s.logger.Error("failed to create patient", zap.String("email", in.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.logger.Info("patient registered", zap.String("patient_id", patient.ID))
	return patient, nil
}

type UpdateInput struct {
	FullName     string `json:"fullname" form:"fullname"`
	Email        string `json:"email" form:"email"`
	PhoneNumber  string `json:"phonenumber" form:"phonenumber"`
	DOB          string `json:"dob" form:"dob"`
	BloodGroup   string `json:"bloodgroup" form:"bloodgroup"`
	Gender       string `json:"gender" form:"gender"`
	ProfilePhoto string `json:"-" form:"-"`
}

// UpdateProfile overwrites the editable fields. The profile photo is only
// replaced when a new one was uploaded.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateInput) (*models.Patient, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = models.NormalizeEmail(in.Email)
	if in.FullName == "" || in.Email == "" {
		return nil, models.Invalid("fullname, email are required")
	}

	var replacedPhoto string
	patient, err := s.mutate(ctx, id, func(p *models.Patient) {
		p.FullName = in.FullName
		p.Email = in.Email
		p.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		p.DOB = strings.TrimSpace(in.DOB)
		p.BloodGroup = strings.TrimSpace(in.BloodGroup)
		p.Gender = strings.TrimSpace(in.Gender)
		if in.ProfilePhoto != "" {
			replacedPhoto = p.ProfilePhoto
			p.ProfilePhoto = in.ProfilePhoto
		}
	})
	if err != nil {
		return nil, err
	}

	if replacedPhoto != "" {
		s.removeBlobs(ctx, replacedPhoto)
	}
	return patient, nil
}

// AddReports appends to the visible or the hidden report list.
func (s *Service) AddReports(ctx context.Context, id string, urls []string, hidden bool) (*models.Patient, error) {
	if len(urls) == 0 {
		return nil, models.Invalid("No files uploaded")
	}
	return s.mutate(ctx, id, func(p *models.Patient) {
		list := reportList(p, hidden)
		*list = append(*list, urls...)
	})
}

func (s *Service) RemoveReports(ctx context.Context, id string, urls []string, hidden bool) (*models.Patient, error) {
	if len(urls) == 0 {
		return nil, models.Invalid("No reports to delete")
	}

	var removed []string
	patient, err := s.mutate(ctx, id, func(p *models.Patient) {
		list := reportList(p, hidden)
		*list = slices.DeleteFunc(*list, func(u string) bool {
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

	s.removeBlobs(ctx, removed...)
	return patient, nil
}

func reportList(p *models.Patient, hidden bool) *[]string {
	if hidden {
		return &p.HiddenReports
	}
	return &p.Reports
}

// LinkHospital records that the patient attends the hospital. Linking twice
// is a no-op. The linked hospital's public view is returned.
func (s *Service) LinkHospital(ctx context.Context, patientID, hospitalID string) (*models.Hospital, error) {
	var hospital models.Hospital
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&hospital, "id = ?", hospitalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHospitalNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Patient{}).Where("id = ?", patientID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPatientNotFound
		}

		link := models.HospitalPatient{HospitalID: hospitalID, PatientID: patientID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
	})
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) || errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to link hospital: %w", err)
	}

	s.logger.Info("patient linked to hospital", zap.String("patient_id", patientID), zap.String("hospital_id", hospitalID))
	return &hospital, nil
}

var profileColumns = []string{
	"full_name", "email", "phone_number", "profile_photo", "reports",
	"hidden_reports", "dob", "blood_group", "gender",
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*models.Patient)) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&patient, "id = ?", id).Error; err != nil {
			return err
		}
		fn(&patient)
		return tx.Model(&patient).Select(profileColumns).Updates(&patient).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrPatientNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, models.ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return &patient, nil
}

func (s *Service) removeBlobs(ctx context.Context, urls ...string) {
	if s.blobs != nil {
		s.blobs.Remove(ctx, urls...)
	}
}
