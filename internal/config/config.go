package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string  `mapstructure:"PORT"`
	Env               string  `mapstructure:"ENV"`
	DatabaseURL       string  `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32   `mapstructure:"DB_MIN_CONNS"`
	RedisURL          string  `mapstructure:"REDIS_URL"`
	AuthIssuer        string  `mapstructure:"AUTH_ISSUER"`
	AuthAudience      string  `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningSecret string  `mapstructure:"AUTH_SIGNING_SECRET"`
	ClinicOpenHour    int     `mapstructure:"CLINIC_OPEN_HOUR"`
	ClinicCloseHour   int     `mapstructure:"CLINIC_CLOSE_HOUR"`
	UndoWindowMinutes int     `mapstructure:"UNDO_WINDOW_MINUTES"`
	RateLimitRPS      float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CLINIC_OPEN_HOUR", 8)
	v.SetDefault("CLINIC_CLOSE_HOUR", 18)
	v.SetDefault("UNDO_WINDOW_MINUTES", 5)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_SIGNING_SECRET")
	v.BindEnv("CLINIC_OPEN_HOUR")
	v.BindEnv("CLINIC_CLOSE_HOUR")
	v.BindEnv("UNDO_WINDOW_MINUTES")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: set ENV=production and AUTH_SIGNING_SECRET or AUTH_ISSUER for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Clinic hours must
// describe a non-empty daily window, the undo grace window must be
// positive, and non-development modes must have JWT verification material.
func (c *Config) Validate() error {
	if c.ClinicOpenHour < 0 || c.ClinicOpenHour > 23 {
		return fmt.Errorf("CLINIC_OPEN_HOUR must be between 0 and 23, got %d", c.ClinicOpenHour)
	}
	if c.ClinicCloseHour < 1 || c.ClinicCloseHour > 24 {
		return fmt.Errorf("CLINIC_CLOSE_HOUR must be between 1 and 24, got %d", c.ClinicCloseHour)
	}
	if c.ClinicOpenHour >= c.ClinicCloseHour {
		return fmt.Errorf("CLINIC_OPEN_HOUR (%d) must be before CLINIC_CLOSE_HOUR (%d)",
			c.ClinicOpenHour, c.ClinicCloseHour)
	}
	if c.UndoWindowMinutes <= 0 {
		return fmt.Errorf("UNDO_WINDOW_MINUTES must be positive, got %d", c.UndoWindowMinutes)
	}
	if !c.IsDev() && c.AuthSigningSecret == "" && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_SIGNING_SECRET or AUTH_ISSUER must be set when ENV=%q. "+
			"Refusing to start without authentication configuration", c.Env)
	}
	return nil
}
