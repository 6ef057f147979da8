package token

import (
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/fx"
)

func ProvideTokenService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.JWT, logger.Named("token"))
}

var Module = fx.Options(
	fx.Provide(ProvideTokenService),
)
