package app

import (
	"errors"
	"fmt"

	"github.com/tech-arch1tect/medreg/apidoc"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/database"
	"github.com/tech-arch1tect/medreg/handlers"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/middleware/ratelimit"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/server"
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/hospital"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
	"github.com/tech-arch1tect/medreg/services/token"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.errors = append(b.errors, errors.New("config cannot be nil"))
		return b
	}
	b.config = cfg
	return b
}

// WithAutoConfig loads the configuration from the environment and .env.
func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.errors = append(b.errors, fmt.Errorf("failed to load config: %w", err))
		return b
	}
	b.config = cfg
	return b
}

// WithFxOptions adds options after the built-in modules, e.g. fx.Decorate
// or fx.Replace in tests.
func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if b.config == nil && len(b.errors) == 0 {
		b.WithAutoConfig()
	}
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %w", errors.Join(b.errors...))
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &App{config: b.config}
	options := append(b.Options(),
		fx.Populate(&app.logger, &app.server, &app.db),
	)

	app.fx = fx.New(options...)
	if err := app.fx.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	return app, nil
}

// Options is the complete dependency graph for the configured application.
func (b *AppBuilder) Options() []fx.Option {
	options := []fx.Option{
		fx.NopLogger,
		config.NewProvider(b.config),
		fx.Supply(database.WithModels(models.All()...)),
		Modules,
	}
	return append(options, b.fxOptions...)
}

// Modules wires every component. Route registration happens in the
// handlers and apidoc invokes, before the server starts.
var Modules = fx.Options(
	logging.Module,
	database.Module,
	auth.Module,
	token.Module,
	storage.Module,
	hospital.Module,
	patient.Module,
	session.Module,
	principal.Module,
	ratelimit.Module,
	server.Module,
	handlers.Module,
	apidoc.Module,
)
