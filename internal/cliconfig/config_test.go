package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CarrierURL != DefaultCarrierURL {
		t.Errorf("CarrierURL = %v, want %v", cfg.CarrierURL, DefaultCarrierURL)
	}
	if cfg.CarrierName != DefaultCarrierName {
		t.Errorf("CarrierName = %v, want %v", cfg.CarrierName, DefaultCarrierName)
	}
	if cfg.PollInterval != 30*time.Minute {
		t.Errorf("PollInterval = %v, want 30m", cfg.PollInterval)
	}
	if cfg.CycleTimeout != 10*time.Minute {
		t.Errorf("CycleTimeout = %v, want 10m", cfg.CycleTimeout)
	}
	if cfg.Lookback != 90*24*time.Hour {
		t.Errorf("Lookback = %v, want 2160h", cfg.Lookback)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %v, want 5", cfg.Workers)
	}
	if cfg.ShipmentLimit != 100 {
		t.Errorf("ShipmentLimit = %v, want 100", cfg.ShipmentLimit)
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.OdooURL = "https://erp.example.com"
	cfg.OdooDB = "production"
	cfg.OdooUsername = "sync-bot"
	cfg.OdooPassword = "secret"
	cfg.CarrierAPIKey = "demo-key"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid minimal config", func(c *Config) {}, false},
		{"missing odoo url", func(c *Config) { c.OdooURL = "" }, true},
		{"missing odoo db", func(c *Config) { c.OdooDB = "" }, true},
		{"missing odoo username", func(c *Config) { c.OdooUsername = "" }, true},
		{"missing odoo password", func(c *Config) { c.OdooPassword = "" }, true},
		{"missing api key", func(c *Config) { c.CarrierAPIKey = "" }, true},
		{"webhook url optional", func(c *Config) { c.WebhookURL = "" }, false},
		{"invalid poll interval", func(c *Config) { c.PollInterval = -1 }, true},
		{"negative cycle timeout", func(c *Config) { c.CycleTimeout = -time.Second }, true},
		{"zero cycle timeout disables deadline", func(c *Config) { c.CycleTimeout = 0 }, false},
		{"cycle timeout exceeds poll", func(c *Config) {
			c.PollInterval = time.Minute
			c.CycleTimeout = 2 * time.Minute
		}, true},
		{"invalid workers", func(c *Config) { c.Workers = 0 }, true},
		{"invalid lookback", func(c *Config) { c.Lookback = 0 }, true},
		{"invalid limit", func(c *Config) { c.ShipmentLimit = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	// Trailing slashes are trimmed
	c1 := validConfig()
	c1.OdooURL = "https://erp.example.com/"
	c1.CarrierURL = "https://api-eu.dhl.com/"
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c1.OdooURL != "https://erp.example.com" {
		t.Errorf("OdooURL = %v, want trimmed", c1.OdooURL)
	}
	if c1.CarrierURL != "https://api-eu.dhl.com" {
		t.Errorf("CarrierURL = %v, want trimmed", c1.CarrierURL)
	}

	// Empty carrier url and name fall back to defaults
	c2 := validConfig()
	c2.CarrierURL = ""
	c2.CarrierName = ""
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.CarrierURL != DefaultCarrierURL {
		t.Errorf("CarrierURL = %v, want %v", c2.CarrierURL, DefaultCarrierURL)
	}
	if c2.CarrierName != DefaultCarrierName {
		t.Errorf("CarrierName = %v, want %v", c2.CarrierName, DefaultCarrierName)
	}
}
