package handlers

import (
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/middleware/ratelimit"
	"github.com/tech-arch1tect/medreg/server"
	"github.com/tech-arch1tect/medreg/services/hospital"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
	"go.uber.org/fx"
)

func ProvideHospitalHandler(cfg *config.Config, hospitals *hospital.Service, sessions *session.Manager, uploader *storage.Uploader, gate *principal.HospitalGate, limiter *ratelimit.Limiter) *HospitalHandler {
	return NewHospitalHandler(hospitals, sessions, uploader, gate, limiter, &cfg.Cookie)
}

func ProvidePatientHandler(cfg *config.Config, patients *patient.Service, sessions *session.Manager, uploader *storage.Uploader, gate *principal.PatientGate, limiter *ratelimit.Limiter) *PatientHandler {
	return NewPatientHandler(patients, sessions, uploader, gate, limiter, &cfg.Cookie)
}

var Module = fx.Options(
	fx.Provide(ProvideHospitalHandler, ProvidePatientHandler),
	fx.Invoke(func(srv *server.Server, hospitals *HospitalHandler, patients *PatientHandler) {
		RegisterRoutes(srv.Echo(), hospitals, patients)
	}),
)
