package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
)

type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger *logging.Service
}

func New(cfg *config.Config, logger *logging.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler(logger)
	configureTrustedProxies(e, cfg.Server.TrustedProxies, logger)

	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger(logger, "/api/ping"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowCredentials: true,
	}))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	if cfg.Storage.Driver == "local" {
		e.Static(cfg.Storage.LocalURL, cfg.Storage.LocalDir)
	}

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	addr := s.Addr()
	s.logger.Info("starting server", zap.String("addr", addr))
	s.logRoutes()

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) Group(prefix string) *echo.Group {
	return s.echo.Group(prefix)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) logRoutes() {
	for _, r := range s.echo.Routes() {
		s.logger.Debug("route",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.String("handler", shortenHandlerName(r.Name)))
	}
}

// configureTrustedProxies only honours X-Forwarded-For from the listed
// proxies. Without any, the peer address is used as is.
func configureTrustedProxies(e *echo.Echo, proxies []string, logger *logging.Service) {
	var opts []echo.TrustOption
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if !strings.Contains(proxy, "/") {
			if ip := net.ParseIP(proxy); ip != nil && ip.To4() != nil {
				proxy += "/32"
			} else {
				proxy += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(proxy)
		if err != nil {
			logger.Warn("ignoring invalid trusted proxy", zap.String("proxy", proxy), zap.Error(err))
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}

	if len(opts) == 0 {
		e.IPExtractor = echo.ExtractIPDirect()
		return
	}
	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
}

func shortenHandlerName(name string) string {
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > 80 {
		name = name[:77] + "..."
	}
	return name
}
