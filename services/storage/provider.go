package storage

import (
	"context"
	"fmt"

	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideStore(cfg *config.Config, logger *logging.Service) (Store, error) {
	switch cfg.Storage.Driver {
	case "local":
		logger.Info("using local blob storage", zap.String("dir", cfg.Storage.LocalDir))
		return NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.LocalURL)
	case "s3":
		logger.Info("using s3 blob storage", zap.String("bucket", cfg.Storage.S3Bucket))
		return NewS3Store(context.Background(), &cfg.Storage)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStore, cfg.Storage.Driver)
	}
}

func ProvideUploader(store Store, cfg *config.Config, logger *logging.Service) *Uploader {
	return NewUploader(store, &cfg.Upload, logger.Named("storage"))
}

var Module = fx.Options(
	fx.Provide(ProvideStore, ProvideUploader),
)
