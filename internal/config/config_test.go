package config

import (
	"os"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/clinic_test")
	t.Setenv("ENV", "development")
	// Keep the loader away from any .env file in the working directory.
	wd, _ := os.Getwd()
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.ClinicOpenHour != 8 || cfg.ClinicCloseHour != 18 {
		t.Errorf("expected default clinic hours 8-18, got %d-%d", cfg.ClinicOpenHour, cfg.ClinicCloseHour)
	}
	if cfg.UndoWindowMinutes != 5 {
		t.Errorf("expected default undo window 5, got %d", cfg.UndoWindowMinutes)
	}
}

func TestLoad_DatabaseURLRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoad_ClinicHoursOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CLINIC_OPEN_HOUR", "7")
	t.Setenv("CLINIC_CLOSE_HOUR", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClinicOpenHour != 7 || cfg.ClinicCloseHour != 20 {
		t.Errorf("expected clinic hours 7-20, got %d-%d", cfg.ClinicOpenHour, cfg.ClinicCloseHour)
	}
}

func TestValidate_InvertedHours(t *testing.T) {
	cfg := &Config{Env: "development", ClinicOpenHour: 18, ClinicCloseHour: 8, UndoWindowMinutes: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for open hour after close hour")
	}
}

func TestValidate_UndoWindowPositive(t *testing.T) {
	cfg := &Config{Env: "development", ClinicOpenHour: 8, ClinicCloseHour: 18, UndoWindowMinutes: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero undo window")
	}
}

func TestValidate_ProductionNeedsAuth(t *testing.T) {
	cfg := &Config{Env: "production", ClinicOpenHour: 8, ClinicCloseHour: 18, UndoWindowMinutes: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth configuration")
	}
	cfg.AuthSigningSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with signing secret set: %v", err)
	}
}
