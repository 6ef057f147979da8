package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/server"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	fx     *fx.App
	config *config.Config
	logger *logging.Service
	db     *gorm.DB
	server *server.Server
}

func (a *App) Start(ctx context.Context) error {
	if err := a.fx.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	a.logger.Info("application started",
		zap.String("name", a.config.App.Name),
		zap.String("version", a.config.App.Version),
		zap.String("addr", a.server.Addr()))
	return nil
}

// Run starts the application and blocks until a termination signal arrives
// or a component requests shutdown.
func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	exitCode := 0
	select {
	case sig := <-sigChan:
		a.logger.Info("received shutdown signal, stopping gracefully", zap.String("signal", sig.String()))
	case sig := <-a.fx.Wait():
		exitCode = sig.ExitCode
		a.logger.Warn("shutdown requested", zap.Int("exit_code", exitCode))
	}

	if err := a.Stop(); err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("application exited with code %d", exitCode)
	}
	return nil
}

func (a *App) Stop() error {
	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil {
		a.logger.Error("failed to stop application gracefully", zap.Error(err))
		return err
	}
	return nil
}

func (a *App) Server() *server.Server {
	return a.server
}

func (a *App) DB() *gorm.DB {
	return a.db
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.config
}
