// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the application core and the outside
// world. They define what the reconciliation engine needs from external
// systems without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [CarrierClient]: queries the carrier tracking API
//   - [RecordStore]: lists and updates business shipment records
//   - [Notifier]: delivers one cycle summary to the notification channel
//   - [StatusRecorder]: records the last cycle outcome for operations
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with
// concrete implementations (DHL HTTP API, Odoo XML-RPC, webhook, zerolog).
package ports
