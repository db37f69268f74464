package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Booking BookingConfig
	Mail    MailConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Location,X-Request-ID"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type BookingConfig struct {
	// Request-supplied unit price/tax are ignored unless this is enabled.
	TrustClientPrices   bool          `envconfig:"BOOKING_TRUST_CLIENT_PRICES" default:"false"`
	IdempotencyTTL      time.Duration `envconfig:"BOOKING_IDEMPOTENCY_TTL" default:"24h"`
	IdempotencySweep    time.Duration `envconfig:"BOOKING_IDEMPOTENCY_SWEEP_INTERVAL" default:"1h"`
	NotificationTimeout time.Duration `envconfig:"BOOKING_NOTIFICATION_TIMEOUT" default:"30s"`
	TxMaxRetries        int           `envconfig:"BOOKING_TX_MAX_RETRIES" default:"3"`
}

// Empty SMTP host/user switches the mailer to log-only mode.
type MailConfig struct {
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	FromName     string `envconfig:"SMTP_FROM_NAME" default:"Travel Marketplace"`
	FromAddress  string `envconfig:"SMTP_FROM_ADDRESS" default:"no-reply@localhost"`
	AdminAddress string `envconfig:"ADMIN_NOTIFICATION_EMAIL"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func (c MailConfig) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != ""
}

func (c MailConfig) SMTPAddr() string {
	return c.SMTPHost + ":" + c.SMTPPort
}

func LoadConfig() (Config, error) {
	// .env is optional; real environment variables always win
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded", "error", err.Error())
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects required variables that are set but blank; envconfig only checks presence.
// DB_PASSWORD may stay blank for trust-authenticated local databases.
func (c Config) validate() error {
	nonEmpty := []struct {
		name  string
		value string
	}{
		{"PORT", c.Server.Port},
		{"DB_USER", c.DB.User},
		{"DB_NAME", c.DB.DBName},
		{"JWT_SECRET", c.JWT.Secret},
	}
	for _, v := range nonEmpty {
		if strings.TrimSpace(v.value) == "" {
			return fmt.Errorf("required key %s must not be empty", v.name)
		}
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 10,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "1h",
		},
		Booking: BookingConfig{
			IdempotencyTTL:      24 * time.Hour,
			IdempotencySweep:    time.Hour,
			NotificationTimeout: 5 * time.Second,
			TxMaxRetries:        3,
		},
		Mail: MailConfig{
			SMTPPort:     "587",
			FromName:     "Travel Marketplace",
			FromAddress:  "no-reply@localhost",
			AdminAddress: "ops@localhost",
		},
	}
}
