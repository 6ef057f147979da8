package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/tech-arch1tect/medreg/models"
	"gorm.io/gorm"
)

func (s *Service) Get(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	err := s.db.WithContext(ctx).First(&patient, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	return &patient, nil
}

func (s *Service) PublicProfile(ctx context.Context, id string) (any, error) {
	return s.Get(ctx, id)
}

// Resolve builds the patient's own view including linked hospitals.
func (s *Service) Resolve(ctx context.Context, id string) (*models.PatientProfile, error) {
	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var hospitals []models.Hospital
	err = s.db.WithContext(ctx).
		Joins("JOIN hospital_patients ON hospital_patients.hospital_id = hospitals.id").
		Where("hospital_patients.patient_id = ?", id).
		Order("hospital_patients.created_at ASC").
		Find(&hospitals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load hospitals: %w", err)
	}

	profile := &models.PatientProfile{Patient: *patient, Hospitals: make([]models.HospitalSummary, 0, len(hospitals))}
	for i := range hospitals {
		profile.Hospitals = append(profile.Hospitals, hospitals[i].Summary())
	}
	return profile, nil
}
