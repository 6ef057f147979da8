package principal

import (
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/services/hospital"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/token"
	"go.uber.org/fx"
)

type (
	HospitalGate = Gate[*models.HospitalProfile]
	PatientGate  = Gate[*models.PatientProfile]
)

func ProvideHospitalGate(tokens *token.Service, hospitals *hospital.Service, logger *logging.Service) *HospitalGate {
	return NewGate[*models.HospitalProfile](tokens, hospitals, logger.Named("gate"))
}

func ProvidePatientGate(tokens *token.Service, patients *patient.Service, logger *logging.Service) *PatientGate {
	return NewGate[*models.PatientProfile](tokens, patients, logger.Named("gate"))
}

var Module = fx.Options(
	fx.Provide(ProvideHospitalGate, ProvidePatientGate),
)
