package config

import (
	"errors"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("Expected memory storage by default, got %s", cfg.Storage.Driver)
	}
	if cfg.Pagination.DefaultPageSize <= 0 || cfg.Pagination.DefaultPageSize > cfg.Pagination.MaxPageSize {
		t.Errorf("Unexpected pagination defaults: %+v", cfg.Pagination)
	}
	if cfg.Auth.TokenTTL <= 0 {
		t.Error("Expected positive token TTL")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("HTTP_PORT", ":9090")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("TG_ADMIN_CHAT_ID", "-100123")
	t.Setenv("ADMIN_EMAILS", "ops@example.com, ,dispatch@example.com")
	t.Setenv("POSTGRES_MIGRATE", "false")

	cfg := Load()

	if cfg.Storage.Driver != StoragePostgres {
		t.Errorf("Expected postgres driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Server.Port != ":9090" {
		t.Errorf("Expected :9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Expected 3s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.BcryptCost != 4 {
		t.Errorf("Expected bcrypt cost 4, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Notify.TelegramAdminChatID != -100123 {
		t.Errorf("Expected chat id -100123, got %d", cfg.Notify.TelegramAdminChatID)
	}
	if len(cfg.Notify.AdminEmails) != 2 || cfg.Notify.AdminEmails[1] != "dispatch@example.com" {
		t.Errorf("Unexpected admin emails: %v", cfg.Notify.AdminEmails)
	}
	if cfg.Postgres.Migrate {
		t.Error("Expected migrations to be disabled")
	}
}

func TestPostgresURL(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db",
		Port:     "5433",
		User:     "ride",
		Password: "p@ss word",
		DB:       "rides",
		SSLMode:  "disable",
	}

	got := pg.PostgresURL()
	want := "postgres://ride:p%40ss%20word@db:5433/rides?sslmode=disable"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestValidate_DefaultJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		secret  string
		wantErr bool
	}{
		{name: "memory with default secret", driver: StorageMemory, secret: DefaultJWTSecret},
		{name: "postgres with default secret", driver: StoragePostgres, secret: DefaultJWTSecret, wantErr: true},
		{name: "postgres with own secret", driver: StoragePostgres, secret: "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Storage.Driver = tt.driver
			cfg.Auth.JWTSecret = tt.secret

			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrDefaultJWTSecret) {
				t.Errorf("Expected ErrDefaultJWTSecret, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if got := cfg.UsesDefaultJWTSecret(); got != (tt.secret == DefaultJWTSecret) {
				t.Errorf("Expected UsesDefaultJWTSecret %v, got %v", !got, got)
			}
		})
	}
}
