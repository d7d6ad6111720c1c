package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/healthmate_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.InviteTTLDays != 30 {
		t.Errorf("expected default invite TTL 30 days, got %d", cfg.InviteTTLDays)
	}
	if cfg.ExpirySweepCron != "@hourly" {
		t.Errorf("expected default sweep schedule @hourly, got %s", cfg.ExpirySweepCron)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("PORT", "9999")
	os.Setenv("INVITE_TTL_DAYS", "7")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("INVITE_TTL_DAYS")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.InviteTTLDays != 7 {
		t.Errorf("expected invite TTL 7, got %d", cfg.InviteTTLDays)
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{Env: "production", InviteTTLDays: 30}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for production without AUTH_ISSUER")
	}
	cfg.AuthIssuer = "https://auth.example.com/realms/healthmate"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DevWithoutIssuer(t *testing.T) {
	cfg := &Config{Env: "development", InviteTTLDays: 30}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadInviteTTL(t *testing.T) {
	cfg := &Config{Env: "development", InviteTTLDays: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero invite TTL")
	}
}
