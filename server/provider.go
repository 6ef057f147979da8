package server

import (
	"context"

	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideServer(cfg *config.Config, logger *logging.Service) *Server {
	return New(cfg, logger.Named("http"))
}

// Run ties the server to the application lifecycle. A server that fails
// after startup shuts the application down.
func Run(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *Server, logger *logging.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideServer),
	fx.Invoke(Run),
)
