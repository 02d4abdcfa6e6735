package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"4000"`
	DatabaseURL     string        `env:"DATABASE_URL,required,notEmpty"`
	FrontendURL     string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET,required,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	JWTIssuer        string        `env:"JWT_ISSUER" envDefault:"jobportal"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPass     string        `env:"SMTP_PASS"`
	SMTPFrom     string        `env:"SMTP_FROM"`
	SMTPFromName string        `env:"SMTP_FROM_NAME" envDefault:"ZeekNet"`
	SMTPUseSSL   bool          `env:"SMTP_USE_SSL" envDefault:"false"`
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"15s"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OTPTTL           time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPRequestWindow time.Duration `env:"OTP_REQUEST_WINDOW" envDefault:"10m"`
	OTPRequestMax    int           `env:"OTP_REQUEST_MAX" envDefault:"5"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
