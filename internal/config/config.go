// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Configuration Management:
// Defaults live in NewDefaultConfig() as plain struct literals, and Load()
// layers the process environment on top of them. A local .env file is read
// first via "github.com/joho/godotenv" so developers don't have to export
// variables by hand; real environment variables always win because godotenv
// never overwrites keys that are already set.
//
// Using typed structs (not raw strings/maps) gives you compile-time safety
// and IDE autocompletion. This is strongly preferred in Go over untyped config.
package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	// DefaultJWTSecret only suits throwaway in-memory runs.
	DefaultJWTSecret = "change-me"
)

// ErrDefaultJWTSecret is returned by Validate when a persistent store would
// be paired with the well-known default signing secret.
var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set when STORAGE_DRIVER is postgres")

// Config is the top-level configuration container.
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Storage    StorageConfig
	Postgres   PostgresConfig
	Auth       AuthConfig
	Blob       BlobConfig
	Notify     NotifyConfig
	Pagination PaginationConfig
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
}

// ServerConfig holds HTTP server settings.
//
// Go Learning Note — time.Duration:
// Go uses time.Duration (an int64 of nanoseconds) instead of raw integers for
// timeouts and intervals. "10 * time.Second" is self-documenting. cast.ToDuration
// accepts both "10s"-style strings and bare integers (nanoseconds).
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig selects the repository backend: "memory" or "postgres".
type StorageConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	Migrate  bool
}

// AuthConfig holds credential settings. AdminUsername/AdminPassword, when
// both set, make the server create that admin account on startup.
type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	AllowAdminSignup bool
	AdminUsername    string
	AdminPassword    string
}

// BlobConfig controls where identity documents and driver licenses are kept.
type BlobConfig struct {
	Root string
}

// NotifyConfig configures the admin notification senders. A sender whose
// required settings are empty is simply not registered.
type NotifyConfig struct {
	SendTimeout time.Duration

	TelegramToken       string
	TelegramAdminChatID int64

	AMQPURL      string
	AMQPExchange string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	AdminEmails  []string
}

type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// NewDefaultConfig returns a Config populated with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			ServiceName: "ridehail",
			LogLevel:    "debug",
		},
		Server: ServerConfig{
			Port:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DB:       "ridehail",
			SSLMode:  "disable",
			Migrate:  true,
		},
		Auth: AuthConfig{
			JWTSecret:  DefaultJWTSecret,
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Blob: BlobConfig{
			Root: "media",
		},
		Notify: NotifyConfig{
			SendTimeout:  5 * time.Second,
			AMQPExchange: "ride_events",
			SMTPPort:     587,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}
}

// Load builds the configuration from defaults, an optional .env file and the
// process environment.
func Load() *Config {
	_ = godotenv.Load(".env")

	cfg := NewDefaultConfig()

	cfg.App.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", cfg.App.ServiceName))
	cfg.App.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", cfg.App.LogLevel))

	cfg.Server.Port = cast.ToString(getOrReturnDefault("HTTP_PORT", cfg.Server.Port))
	cfg.Server.ReadTimeout = cast.ToDuration(getOrReturnDefault("HTTP_READ_TIMEOUT", cfg.Server.ReadTimeout))
	cfg.Server.WriteTimeout = cast.ToDuration(getOrReturnDefault("HTTP_WRITE_TIMEOUT", cfg.Server.WriteTimeout))
	cfg.Server.ShutdownTimeout = cast.ToDuration(getOrReturnDefault("HTTP_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout))

	cfg.Storage.Driver = strings.ToLower(cast.ToString(getOrReturnDefault("STORAGE_DRIVER", cfg.Storage.Driver)))

	cfg.Postgres.Host = cast.ToString(getOrReturnDefault("POSTGRES_HOST", cfg.Postgres.Host))
	cfg.Postgres.Port = cast.ToString(getOrReturnDefault("POSTGRES_PORT", cfg.Postgres.Port))
	cfg.Postgres.User = cast.ToString(getOrReturnDefault("POSTGRES_USER", cfg.Postgres.User))
	cfg.Postgres.Password = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", cfg.Postgres.Password))
	cfg.Postgres.DB = cast.ToString(getOrReturnDefault("POSTGRES_DB", cfg.Postgres.DB))
	cfg.Postgres.SSLMode = cast.ToString(getOrReturnDefault("POSTGRES_SSLMODE", cfg.Postgres.SSLMode))
	cfg.Postgres.Migrate = cast.ToBool(getOrReturnDefault("POSTGRES_MIGRATE", cfg.Postgres.Migrate))

	cfg.Auth.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", cfg.Auth.JWTSecret))
	cfg.Auth.TokenTTL = cast.ToDuration(getOrReturnDefault("JWT_TTL", cfg.Auth.TokenTTL))
	cfg.Auth.BcryptCost = cast.ToInt(getOrReturnDefault("BCRYPT_COST", cfg.Auth.BcryptCost))
	cfg.Auth.AllowAdminSignup = cast.ToBool(getOrReturnDefault("ALLOW_ADMIN_SIGNUP", cfg.Auth.AllowAdminSignup))
	cfg.Auth.AdminUsername = cast.ToString(getOrReturnDefault("ADMIN_USERNAME", ""))
	cfg.Auth.AdminPassword = cast.ToString(getOrReturnDefault("ADMIN_PASSWORD", ""))

	cfg.Blob.Root = cast.ToString(getOrReturnDefault("MEDIA_ROOT", cfg.Blob.Root))

	cfg.Notify.SendTimeout = cast.ToDuration(getOrReturnDefault("NOTIFY_TIMEOUT", cfg.Notify.SendTimeout))
	cfg.Notify.TelegramToken = cast.ToString(getOrReturnDefault("TG_ADMIN_BOT_TOKEN", ""))
	cfg.Notify.TelegramAdminChatID = cast.ToInt64(getOrReturnDefault("TG_ADMIN_CHAT_ID", 0))
	cfg.Notify.AMQPURL = cast.ToString(getOrReturnDefault("AMQP_URL", ""))
	cfg.Notify.AMQPExchange = cast.ToString(getOrReturnDefault("AMQP_EXCHANGE", cfg.Notify.AMQPExchange))
	cfg.Notify.SMTPHost = cast.ToString(getOrReturnDefault("SMTP_HOST", ""))
	cfg.Notify.SMTPPort = cast.ToInt(getOrReturnDefault("SMTP_PORT", cfg.Notify.SMTPPort))
	cfg.Notify.SMTPUsername = cast.ToString(getOrReturnDefault("SMTP_USERNAME", ""))
	cfg.Notify.SMTPPassword = cast.ToString(getOrReturnDefault("SMTP_PASSWORD", ""))
	cfg.Notify.MailFrom = cast.ToString(getOrReturnDefault("MAIL_FROM", ""))
	cfg.Notify.AdminEmails = splitList(cast.ToString(getOrReturnDefault("ADMIN_EMAILS", "")))

	cfg.Pagination.DefaultPageSize = cast.ToInt(getOrReturnDefault("PAGE_SIZE", cfg.Pagination.DefaultPageSize))
	cfg.Pagination.MaxPageSize = cast.ToInt(getOrReturnDefault("MAX_PAGE_SIZE", cfg.Pagination.MaxPageSize))

	return cfg
}

// PostgresURL renders the connection string shared by pgxpool and migrate.
func (c PostgresConfig) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DB,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// UsesDefaultJWTSecret reports whether tokens would be signed with the
// built-in secret.
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

// Validate rejects configurations that must not start. The default JWT
// secret is tolerated with the memory store only.
func (c *Config) Validate() error {
	if c.Storage.Driver == StoragePostgres && c.UsesDefaultJWTSecret() {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
