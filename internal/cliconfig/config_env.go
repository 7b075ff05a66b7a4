package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables.
// Credentials use the plain names the deployment environment already
// carries (ODOO_URL, DHL_API_KEY, ...); tunables use the SHIPSYNC_ prefix.
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("odoo-url", os.Getenv("ODOO_URL"), &cfg.OdooURL)
	s.setString("odoo-db", os.Getenv("ODOO_DB"), &cfg.OdooDB)
	s.setString("odoo-username", os.Getenv("ODOO_USERNAME"), &cfg.OdooUsername)
	s.setString("odoo-password", os.Getenv("ODOO_PASSWORD"), &cfg.OdooPassword)
	s.setString("dhl-api-key", os.Getenv("DHL_API_KEY"), &cfg.CarrierAPIKey)
	s.setString("webhook-url", os.Getenv("WEBHOOK_URL"), &cfg.WebhookURL)

	s.setString("carrier-url", os.Getenv("SHIPSYNC_CARRIER_URL"), &cfg.CarrierURL)
	s.setString("carrier-name", os.Getenv("SHIPSYNC_CARRIER_NAME"), &cfg.CarrierName)
	s.setString("status-file", os.Getenv("SHIPSYNC_STATUS_FILE"), &cfg.StatusFile)

	if err := s.setDuration("poll", os.Getenv("SHIPSYNC_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("cycle-timeout", os.Getenv("SHIPSYNC_CYCLE_TIMEOUT"), &cfg.CycleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("SHIPSYNC_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("lookback", os.Getenv("SHIPSYNC_LOOKBACK"), &cfg.Lookback); err != nil {
		return err
	}

	if err := s.setIntFromString("workers", os.Getenv("SHIPSYNC_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setIntFromString("limit", os.Getenv("SHIPSYNC_LIMIT"), &cfg.ShipmentLimit); err != nil {
		return err
	}

	s.setBoolFromString("once", os.Getenv("SHIPSYNC_ONCE"), &cfg.Once)

	return nil
}
