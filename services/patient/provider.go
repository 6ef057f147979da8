package patient

import (
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvidePatientService(db *gorm.DB, passwords *auth.Service, uploader *storage.Uploader, logger *logging.Service) *Service {
	return NewService(db, passwords, uploader, logger.Named("patient"))
}

var Module = fx.Options(
	fx.Provide(
		ProvidePatientService,
		fx.Annotate(
			func(s *Service) session.CredentialStore { return s },
			fx.ResultTags(session.StoreGroup),
		),
	),
)
