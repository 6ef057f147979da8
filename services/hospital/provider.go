package hospital

import (
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideHospitalService(db *gorm.DB, passwords *auth.Service, uploader *storage.Uploader, logger *logging.Service) *Service {
	return NewService(db, passwords, uploader, logger.Named("hospital"))
}

var Module = fx.Options(
	fx.Provide(
		ProvideHospitalService,
		fx.Annotate(
			func(s *Service) session.CredentialStore { return s },
			fx.ResultTags(session.StoreGroup),
		),
	),
)
