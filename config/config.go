package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	Cookie    CookieConfig    `envPrefix:"COOKIE_"`
	CORS      CORSConfig      `envPrefix:"CORS_"`
	Storage   StorageConfig   `envPrefix:"STORAGE_"`
	Upload    UploadConfig    `envPrefix:"UPLOAD_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

type AppConfig struct {
	Name    string `env:"NAME" envDefault:"medreg"`
	URL     string `env:"URL" envDefault:"http://localhost:8000"`
	Version string `env:"VERSION" envDefault:"1.0.0"`
}

type ServerConfig struct {
	Port      string `env:"PORT" envDefault:"8000"`
	Host      string `env:"HOST" envDefault:"0.0.0.0"`
	BodyLimit string `env:"BODY_LIMIT" envDefault:"25M"`
	// IPs or CIDRs allowed to set X-Forwarded-For
	TrustedProxies  []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"medreg.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

// JWTConfig holds independent secrets for access and refresh tokens.
type JWTConfig struct {
	AccessSecret  string        `env:"ACCESS_SECRET"`
	RefreshSecret string        `env:"REFRESH_SECRET"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"240h"`
	Issuer        string        `env:"ISSUER" envDefault:"medreg"`
}

type AuthConfig struct {
	MinLength      int  `env:"MIN_LENGTH" envDefault:"8"`
	RequireUpper   bool `env:"REQUIRE_UPPER" envDefault:"false"`
	RequireLower   bool `env:"REQUIRE_LOWER" envDefault:"false"`
	RequireNumber  bool `env:"REQUIRE_NUMBER" envDefault:"false"`
	RequireSpecial bool `env:"REQUIRE_SPECIAL" envDefault:"false"`
	BcryptCost     int  `env:"BCRYPT_COST" envDefault:"10"`
}

type CookieConfig struct {
	Secure   bool          `env:"SECURE" envDefault:"true"`
	SameSite string        `env:"SAME_SITE" envDefault:"none"`
	MaxAge   time.Duration `env:"MAX_AGE" envDefault:"168h"`
	Domain   string        `env:"DOMAIN"`
	Path     string        `env:"PATH" envDefault:"/"`
}

type CORSConfig struct {
	AllowOrigins []string `env:"ORIGIN" envSeparator:"," envDefault:"*"`
}

type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"local"`

	LocalDir string `env:"LOCAL_DIR" envDefault:"public/uploads"`
	LocalURL string `env:"LOCAL_URL" envDefault:"/uploads"`

	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
}

type UploadConfig struct {
	MaxFiles      int   `env:"MAX_FILES" envDefault:"10"`
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`
	ImageMaxWidth int   `env:"IMAGE_MAX_WIDTH" envDefault:"1600"`
	JPEGQuality   int   `env:"JPEG_QUALITY" envDefault:"85"`
}

type RateLimitConfig struct {
	Enabled       bool          `env:"ENABLED" envDefault:"true"`
	Driver        string        `env:"DRIVER" envDefault:"memory"`
	Rate          int           `env:"RATE" envDefault:"20"`
	Period        time.Duration `env:"PERIOD" envDefault:"1m"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix     string        `env:"KEY_PREFIX" envDefault:"medreg:ratelimit:"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error

	if err := validateJWTConfig(&c.JWT); err != nil {
		errs = append(errs, err)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %s", c.Database.Driver))
	}

	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("STORAGE_S3_BUCKET is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver))
	}

	switch c.RateLimit.Driver {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported rate limit driver: %s", c.RateLimit.Driver))
	}

	return errors.Join(errs...)
}

const minSecretLength = 32

func validateJWTConfig(cfg *JWTConfig) error {
	if cfg.AccessSecret == "" {
		return errors.New("JWT_ACCESS_SECRET is required")
	}
	if cfg.RefreshSecret == "" {
		return errors.New("JWT_REFRESH_SECRET is required")
	}
	if len(cfg.AccessSecret) < minSecretLength || len(cfg.RefreshSecret) < minSecretLength {
		return fmt.Errorf("JWT secrets must be at least %d characters long", minSecretLength)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.AccessExpiry <= 0 || cfg.RefreshExpiry <= 0 {
		return errors.New("JWT expiry durations must be positive")
	}
	return nil
}

// SameSiteMode maps the configured string onto http.SameSite.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
