package testutils

import (
	"time"

	"github.com/tech-arch1tect/medreg/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	TestAccessSecret  = "test-access-secret-at-least-32-characters"
	TestRefreshSecret = "test-refresh-secret-at-least-32-characters"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:    "medreg-test",
			URL:     "http://localhost:8000",
			Version: "test",
		},
		Server: config.ServerConfig{
			Port:      "0",
			Host:      "127.0.0.1",
			BodyLimit: "25M",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "console",
			Output: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		JWT: config.JWTConfig{
			AccessSecret:  TestAccessSecret,
			RefreshSecret: TestRefreshSecret,
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 240 * time.Hour,
			Issuer:        "medreg-test",
		},
		Auth: config.AuthConfig{
			MinLength:  8,
			BcryptCost: bcrypt.MinCost,
		},
		Cookie: config.CookieConfig{
			Secure:   true,
			SameSite: "none",
			MaxAge:   7 * 24 * time.Hour,
			Path:     "/",
		},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Storage: config.StorageConfig{
			Driver:   "local",
			LocalURL: "/uploads",
		},
		Upload: config.UploadConfig{
			MaxFiles:      10,
			MaxFileSize:   1 << 20,
			ImageMaxWidth: 64,
			JPEGQuality:   80,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:   false,
			Driver:    "memory",
			Rate:      20,
			Period:    time.Minute,
			KeyPrefix: "medreg-test:",
		},
	}
}

var TestPasswords = struct {
	Valid    string
	TooShort string
	Wrong    string
}{
	Valid:    "pw123456",
	TooShort: "pw1",
	Wrong:    "not-the-password",
}
