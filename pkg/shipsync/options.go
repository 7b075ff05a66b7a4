package shipsync

import (
	"net/http"

	"github.com/parcel-labs/shipsync/internal/ports"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// CarrierClient queries the carrier tracking API for one shipment.
type CarrierClient = ports.CarrierClient

// RecordStore wraps the business-records system.
type RecordStore = ports.RecordStore

// Notifier delivers cycle results to the notification channel.
type Notifier = ports.Notifier

// StatusRecorder records the outcome of the last cycle.
type StatusRecorder = ports.StatusRecorder

// Option configures optional behavior of a Tracker.
type Option func(*options)

// options holds the optional configuration for a Tracker instance.
type options struct {
	httpClient ports.HTTPClient
	logger     ports.Logger
	carrier    ports.CarrierClient
	store      ports.RecordStore
	notifier   ports.Notifier
	recorder   ports.StatusRecorder
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     &noopLogger{},
	}
}

// WithHTTPClient sets a custom HTTP client for carrier and webhook
// communication. If not provided, a default client with the configured
// timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCarrier replaces the built-in DHL client. Useful for tests and for
// carriers with a compatible tracking contract.
func WithCarrier(carrier CarrierClient) Option {
	return func(o *options) {
		o.carrier = carrier
	}
}

// WithRecordStore replaces the built-in Odoo client.
func WithRecordStore(store RecordStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithNotifier replaces the built-in webhook sender. A custom notifier
// does not track WebhookURL changes on config reload.
func WithNotifier(notifier Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// WithStatusRecorder replaces the built-in status file recorder.
func WithStatusRecorder(recorder StatusRecorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
