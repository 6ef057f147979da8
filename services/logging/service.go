package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Service struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

type Config struct {
	Level      LogLevel
	Format     string
	OutputPath string
}

func NewService(config Config) (*Service, error) {
	zapConfig := zap.NewProductionConfig()

	zapConfig.Level = zap.NewAtomicLevelAt(parseLogLevel(config.Level))

	switch config.Format {
	case "console":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		zapConfig.Encoding = "json"
	}

	if config.OutputPath != "" && config.OutputPath != "stdout" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return FromZap(logger), nil
}

// FromZap wraps an existing zap logger.
func FromZap(logger *zap.Logger) *Service {
	if logger == nil {
		return nil
	}
	return &Service{
		logger: logger,
		sugar:  logger.Sugar(),
	}
}

func (s *Service) Logger() *zap.Logger {
	if s != nil {
		return s.logger
	}
	return nil
}

func (s *Service) Sugar() *zap.SugaredLogger {
	if s != nil {
		return s.sugar
	}
	return nil
}

// Named returns a child logger scoped to a component.
func (s *Service) Named(name string) *Service {
	if s == nil || s.logger == nil {
		return s
	}
	return FromZap(s.logger.Named(name))
}

func (s *Service) Debug(msg string, fields ...zap.Field) {
	if s != nil && s.logger != nil {
		s.logger.Debug(msg, fields...)
	}
}

func (s *Service) Info(msg string, fields ...zap.Field) {
	if s != nil && s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}

func (s *Service) Warn(msg string, fields ...zap.Field) {
	if s != nil && s.logger != nil {
		s.logger.Warn(msg, fields...)
	}
}

func (s *Service) Error(msg string, fields ...zap.Field) {
	if s != nil && s.logger != nil {
		s.logger.Error(msg, fields...)
	}
}

func (s *Service) Infof(template string, args ...any) {
	if s != nil && s.sugar != nil {
		s.sugar.Infof(template, args...)
	}
}

func (s *Service) Errorf(template string, args ...any) {
	if s != nil && s.sugar != nil {
		s.sugar.Errorf(template, args...)
	}
}

func (s *Service) Sync() error {
	if s != nil && s.logger != nil {
		return s.logger.Sync()
	}
	return nil
}

func parseLogLevel(level LogLevel) zapcore.Level {
	switch level {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
