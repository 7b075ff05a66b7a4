package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	OdooURL      string `toml:"odoo_url"`
	OdooDB       string `toml:"odoo_db"`
	OdooUsername string `toml:"odoo_username"`
	OdooPassword string `toml:"odoo_password"`

	CarrierURL    string `toml:"carrier_url"`
	CarrierAPIKey string `toml:"dhl_api_key"`
	CarrierName   string `toml:"carrier_name"`

	WebhookURL string `toml:"webhook_url"`

	PollInterval string `toml:"poll_interval"`
	CycleTimeout string `toml:"cycle_timeout"`
	HTTPTimeout  string `toml:"http_timeout"`
	Lookback     string `toml:"lookback"`

	Workers       int `toml:"workers"`
	ShipmentLimit int `toml:"limit"`

	StatusFile string `toml:"status_file"`
	Once       *bool  `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.shipsync/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".shipsync", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("odoo-url", fc.OdooURL, &cfg.OdooURL)
	s.setString("odoo-db", fc.OdooDB, &cfg.OdooDB)
	s.setString("odoo-username", fc.OdooUsername, &cfg.OdooUsername)
	s.setString("odoo-password", fc.OdooPassword, &cfg.OdooPassword)
	s.setString("carrier-url", fc.CarrierURL, &cfg.CarrierURL)
	s.setString("dhl-api-key", fc.CarrierAPIKey, &cfg.CarrierAPIKey)
	s.setString("carrier-name", fc.CarrierName, &cfg.CarrierName)
	s.setString("webhook-url", fc.WebhookURL, &cfg.WebhookURL)
	s.setString("status-file", fc.StatusFile, &cfg.StatusFile)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("cycle-timeout", fc.CycleTimeout, &cfg.CycleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("lookback", fc.Lookback, &cfg.Lookback); err != nil {
		return err
	}

	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setInt("limit", fc.ShipmentLimit, &cfg.ShipmentLimit)

	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
