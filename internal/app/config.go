// Package app holds the explicit application configuration passed into the
// clients and the batch driver at construction time.
package app

import (
	"fmt"
	"strings"
	"time"

	"steam_sheet_enrich/internal/retry"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration, built once in LoadConfig and
// handed to components explicitly. No package reads the environment on its
// own after this.
type Config struct {
	SteamAPIKey        string        `mapstructure:"steam_api_key"`
	SteamHistoryAPIKey string        `mapstructure:"steamhistory_api_key"`
	SpreadsheetID      string        `mapstructure:"spreadsheet_id"`
	SheetName          string        `mapstructure:"sheet_name"`
	CredentialsFile    string        `mapstructure:"google_credentials_file"`
	TargetAppID        int           `mapstructure:"target_app_id"`
	ProgressFile       string        `mapstructure:"progress_file"`
	RowDelay           time.Duration `mapstructure:"-"`
	TimeBudget         time.Duration `mapstructure:"-"`
	OwnershipCheck     int           `mapstructure:"ownership_check_every"`
	ReputationCheck    int           `mapstructure:"reputation_check_every"`
	LogLevel           string        `mapstructure:"loglevel"`
	Env                string        `mapstructure:"env"`
}

// LoadConfig loads .env if present, then resolves every setting from the
// environment with defaults.
func LoadConfig() (*Config, error) {
	// Ignore error if the file doesn't exist (e.g. production)
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("steam_api_key", "")
	v.SetDefault("steamhistory_api_key", "")
	v.SetDefault("spreadsheet_id", "")
	v.SetDefault("sheet_name", "Sheet1")
	v.SetDefault("google_credentials_file", "credentials.json")
	v.SetDefault("target_app_id", 730)
	v.SetDefault("progress_file", ".progress.json")
	v.SetDefault("row_delay_ms", 500)
	v.SetDefault("time_budget_seconds", 250)
	v.SetDefault("ownership_check_every", 10)
	v.SetDefault("reputation_check_every", 20)
	v.SetDefault("loglevel", "")
	v.SetDefault("env", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.RowDelay = time.Duration(v.GetInt("row_delay_ms")) * time.Millisecond
	cfg.TimeBudget = time.Duration(v.GetInt("time_budget_seconds")) * time.Second

	return &cfg, nil
}

// RequireSteamKey returns an error when no Steam API key is configured.
func (c *Config) RequireSteamKey() error {
	if c.SteamAPIKey == "" {
		return fmt.Errorf("STEAM_API_KEY is required")
	}
	return nil
}

// RequireSheet returns an error when no spreadsheet is configured.
func (c *Config) RequireSheet() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("SPREADSHEET_ID is required")
	}
	return nil
}

// ResilienceConfig groups the retry presets for the different call sites.
type ResilienceConfig struct {
	APIRequest retry.Config
	SheetWrite retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	APIRequest: retry.Config{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   15 * time.Second,
		Timeout:    15 * time.Second,
	},
	SheetWrite: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
}
