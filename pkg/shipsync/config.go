package shipsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
)

// DefaultCarrierURL is the default base endpoint for carrier tracking queries.
const DefaultCarrierURL = "https://api-eu.dhl.com"

// DefaultCarrierName filters store records to shipments handled by this carrier.
const DefaultCarrierName = "DHL"

// Config holds the configuration for a Tracker.
// Use SetDefaults to fill optional fields, then Validate before New.
type Config struct {
	// OdooURL is the base URL of the Odoo instance (no trailing slash).
	OdooURL string
	// OdooDB is the Odoo database name.
	OdooDB string
	// OdooUsername and OdooPassword authenticate the XML-RPC session.
	OdooUsername string
	OdooPassword string

	// CarrierURL is the tracking API base URL. Defaults to DefaultCarrierURL.
	CarrierURL string
	// CarrierAPIKey authenticates tracking queries.
	CarrierAPIKey string
	// CarrierName filters store records to one carrier. Defaults to
	// DefaultCarrierName.
	CarrierName string

	// WebhookURL receives one summary message per cycle. Empty disables
	// notification delivery.
	WebhookURL string

	// PollInterval is the pause between cycle starts.
	PollInterval time.Duration
	// CycleTimeout bounds one cycle's reconciliation work. Zero disables
	// the deadline.
	CycleTimeout time.Duration
	// HTTPTimeout applies to individual carrier and webhook requests.
	HTTPTimeout time.Duration

	// Workers bounds concurrent carrier queries within a cycle.
	Workers int
	// Lookback bounds the active listing to recently shipped records.
	Lookback time.Duration
	// ShipmentLimit caps the number of records per listing.
	ShipmentLimit int

	// StatusFile is where the last cycle outcome is written as JSON.
	// Empty disables the status file.
	StatusFile string

	// Once runs a single cycle and stops.
	Once bool
}

// SetDefaults fills zero-valued optional fields with sensible defaults.
func (c *Config) SetDefaults() {
	if c.CarrierURL == "" {
		c.CarrierURL = DefaultCarrierURL
	}
	if c.CarrierName == "" {
		c.CarrierName = DefaultCarrierName
	}
	if c.PollInterval == 0 {
		c.PollInterval = 30 * time.Minute
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	if c.Workers == 0 {
		c.Workers = 5
	}
	if c.Lookback == 0 {
		c.Lookback = 90 * 24 * time.Hour
	}
	if c.ShipmentLimit == 0 {
		c.ShipmentLimit = 100
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.OdooURL == "" {
		return fmt.Errorf("%w: odoo url is required", domain.ErrInvalidConfig)
	}
	if c.OdooDB == "" {
		return fmt.Errorf("%w: odoo database is required", domain.ErrInvalidConfig)
	}
	if c.OdooUsername == "" || c.OdooPassword == "" {
		return fmt.Errorf("%w: odoo credentials are required", domain.ErrInvalidConfig)
	}
	if c.CarrierAPIKey == "" {
		return fmt.Errorf("%w: carrier api key is required", domain.ErrInvalidConfig)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("%w: poll interval must be positive", domain.ErrInvalidConfig)
	}
	if c.CycleTimeout < 0 {
		return fmt.Errorf("%w: cycle timeout must not be negative", domain.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be positive", domain.ErrInvalidConfig)
	}
	if c.Lookback < 0 {
		return fmt.Errorf("%w: lookback must be positive", domain.ErrInvalidConfig)
	}

	c.OdooURL = strings.TrimRight(c.OdooURL, "/")
	c.CarrierURL = strings.TrimRight(c.CarrierURL, "/")
	return nil
}
