package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultJWTSecret es el secreto de desarrollo; no se acepta en produccion.
const DefaultJWTSecret = "dev_secret_change_me"

// Config centraliza la configuración del servicio.
type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"dev"`
	Port           string        `env:"PORT" envDefault:"3000"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"168h"`
	BaseURL        string        `env:"BASE_URL"`
	FrontendURL    string        `env:"FRONTEND_URL" envDefault:"http://localhost:8001"`
	AuthFailureURL string        `env:"AUTH_FAILURE_URL"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	SMTPHost       string        `env:"SMTP_HOST"`
	SMTPPort       int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string        `env:"SMTP_USER"`
	SMTPPass       string        `env:"SMTP_PASS"`
	SMTPUseTLS     bool          `env:"SMTP_USE_TLS" envDefault:"false"`
	FromEmail      string        `env:"FROM_EMAIL" envDefault:"no-reply@moveit.local"`
	MailTimeout    time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
	MailSandbox    bool          `env:"MAIL_SANDBOX" envDefault:"true"`
	MailSandboxAPI string        `env:"MAIL_SANDBOX_API" envDefault:"https://api.nodemailer.com/user"`

	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL    string `env:"GOOGLE_CALLBACK"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	FacebookCallbackURL  string `env:"FACEBOOK_CALLBACK"`

	StoreBackend  string `env:"STORE_BACKEND" envDefault:"file"`
	DataFile      string `env:"DATA_FILE" envDefault:"users.json"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisKey      string `env:"REDIS_KEY" envDefault:"moveit:users"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDerived() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:" + c.Port
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	if c.AuthFailureURL == "" {
		c.AuthFailureURL = c.FrontendURL + "/?error=oauth"
	}
	if c.GoogleCallbackURL == "" {
		c.GoogleCallbackURL = c.BaseURL + "/auth/google/callback"
	}
	if c.FacebookCallbackURL == "" {
		c.FacebookCallbackURL = c.BaseURL + "/auth/facebook/callback"
	}
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
}

// IsProduction indica si el servicio corre con APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// UsesDefaultSecret indica si JWT_SECRET quedo con el valor de desarrollo.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// SMTPConfigured indica si hay credenciales completas de SMTP real.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.UsesDefaultSecret() {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.StoreBackend {
	case "file":
		if c.DataFile == "" {
			return errors.New("DATA_FILE is required for the file store")
		}
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}
