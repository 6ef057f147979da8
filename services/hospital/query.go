package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tech-arch1tect/medreg/models"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Page struct {
	Hospitals  []models.Hospital `json:"hospitals"`
	TotalCount int64             `json:"totalCount"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// NormalizePage falls back to page 1 and the default size for out of range values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	return s.page(ctx, s.db.WithContext(ctx).Model(&models.Hospital{}), page, limit)
}

// SearchByName matches hospital names case-insensitively.
func (s *Service) SearchByName(ctx context.Context, name string, page, limit int) (*Page, error) {
	return s.search(ctx, "hospital_name", name, page, limit)
}

func (s *Service) SearchByLocation(ctx context.Context, location string, page, limit int) (*Page, error) {
	return s.search(ctx, "location", location, page, limit)
}

func (s *Service) search(ctx context.Context, column, term string, page, limit int) (*Page, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, models.Invalid("Search term is required")
	}
	query := s.db.WithContext(ctx).Model(&models.Hospital{}).
		Where("LOWER("+column+") LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(term))+"%")
	return s.page(ctx, query, page, limit)
}

func (s *Service) page(ctx context.Context, query *gorm.DB, page, limit int) (*Page, error) {
	page, limit = NormalizePage(page, limit)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count hospitals: %w", err)
	}

	hospitals := []models.Hospital{}
	err := query.Session(&gorm.Session{}).
		Order("created_at ASC").Order("id ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&hospitals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}

	return &Page{Hospitals: hospitals, TotalCount: total, Page: page, Limit: limit}, nil
}

// GetPublic returns the hospital without credentials or patients.
func (s *Service) GetPublic(ctx context.Context, id string) (*models.Hospital, error) {
	var hospital models.Hospital
	err := s.db.WithContext(ctx).First(&hospital, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hospital: %w", err)
	}
	return &hospital, nil
}

func (s *Service) PublicProfile(ctx context.Context, id string) (any, error) {
	return s.GetPublic(ctx, id)
}

// Resolve builds the hospital's own view including its linked patients.
func (s *Service) Resolve(ctx context.Context, id string) (*models.HospitalProfile, error) {
	hospital, err := s.GetPublic(ctx, id)
	if err != nil {
		return nil, err
	}

	var patients []models.Patient
	err = s.db.WithContext(ctx).
		Joins("JOIN hospital_patients ON hospital_patients.patient_id = patients.id").
		Where("hospital_patients.hospital_id = ?", id).
		Order("hospital_patients.created_at ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}

	profile := &models.HospitalProfile{Hospital: *hospital, Patients: make([]models.PatientSummary, 0, len(patients))}
	for i := range patients {
		profile.Patients = append(profile.Patients, patients[i].Summary())
	}
	return profile, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
