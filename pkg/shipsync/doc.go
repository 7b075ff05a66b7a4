// Package shipsync provides an embeddable shipment reconciliation agent.
//
// Shipsync polls a carrier tracking API for every undelivered shipment in
// an Odoo instance, writes confirmed status changes back to Odoo, and
// posts one summary message per cycle to a Mattermost-compatible webhook.
// It can be used as a standalone CLI application or embedded as a library
// in other Go programs.
//
// # Basic Usage
//
// To embed shipsync in your application:
//
//	cfg := shipsync.Config{
//	    OdooURL:       "https://erp.example.com",
//	    OdooDB:        "production",
//	    OdooUsername:  "sync-bot",
//	    OdooPassword:  "secret",
//	    CarrierAPIKey: "your-api-key",
//	    WebhookURL:    "https://chat.example.com/hooks/abc",
//	}
//
//	tracker, err := shipsync.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := tracker.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := tracker.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Create a [Config] with at minimum the Odoo connection fields and
// CarrierAPIKey. All other fields have sensible defaults set via
// [Config.SetDefaults].
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external
// dependencies:
//
//	tracker, err := shipsync.New(cfg,
//	    shipsync.WithHTTPClient(mockClient),
//	    shipsync.WithCarrier(fakeCarrier),
//	    shipsync.WithRecordStore(fakeStore),
//	    shipsync.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Tracker can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Tracker.Status]
// to query the current state.
//
// # Hot Reload
//
// [Tracker.ApplyConfig] applies poll interval, cycle timeout, worker
// count and webhook URL changes to a running tracker. Connection settings
// require a restart. [Tracker.TriggerNow] requests an immediate cycle;
// a trigger arriving while a cycle runs is dropped, never queued.
package shipsync
