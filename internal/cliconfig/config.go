package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCarrierURL is the default base endpoint for carrier tracking queries.
const DefaultCarrierURL = "https://api-eu.dhl.com"

// DefaultCarrierName filters store records to shipments handled by this carrier.
const DefaultCarrierName = "DHL"

// Config holds CLI configuration for shipsync.
type Config struct {
	OdooURL      string
	OdooDB       string
	OdooUsername string
	OdooPassword string

	CarrierURL    string
	CarrierAPIKey string
	CarrierName   string

	WebhookURL string

	PollInterval time.Duration
	CycleTimeout time.Duration
	HTTPTimeout  time.Duration

	Workers       int
	Lookback      time.Duration
	ShipmentLimit int

	StatusFile string
	Once       bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		CarrierURL:    DefaultCarrierURL,
		CarrierName:   DefaultCarrierName,
		PollInterval:  30 * time.Minute,
		CycleTimeout:  10 * time.Minute,
		HTTPTimeout:   30 * time.Second,
		Workers:       5,
		Lookback:      90 * 24 * time.Hour,
		ShipmentLimit: 100,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.OdooURL == "" {
		return fmt.Errorf("odoo-url is required")
	}
	if c.OdooDB == "" {
		return fmt.Errorf("odoo-db is required")
	}
	if c.OdooUsername == "" {
		return fmt.Errorf("odoo-username is required")
	}
	if c.OdooPassword == "" {
		return fmt.Errorf("odoo-password is required")
	}
	if c.CarrierAPIKey == "" {
		return fmt.Errorf("dhl-api-key is required")
	}

	if c.CarrierURL == "" {
		c.CarrierURL = DefaultCarrierURL
	}
	if c.CarrierName == "" {
		c.CarrierName = DefaultCarrierName
	}

	// Ensure no trailing slash
	for _, p := range []*string{&c.OdooURL, &c.CarrierURL} {
		if n := len(*p); n > 0 && (*p)[n-1] == '/' {
			*p = (*p)[:n-1]
		}
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.CycleTimeout < 0 {
		return fmt.Errorf("cycle timeout must not be negative")
	}
	if c.CycleTimeout > 0 && c.CycleTimeout > c.PollInterval {
		return fmt.Errorf("cycle timeout must not exceed poll interval")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive")
	}
	if c.ShipmentLimit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	return nil
}

var logger zerolog.Logger

func init() {
	logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// Logger returns the package logger.
func Logger() zerolog.Logger {
	return logger
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
