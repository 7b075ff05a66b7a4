// Package dhl implements ports.CarrierClient against the DHL Unified
// Tracking API.
package dhl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

// DefaultBaseURL is the DHL tracking API endpoint for the EU region.
const DefaultBaseURL = "https://api-eu.dhl.com"

const trackEndpoint = "/track/shipments"

// maxAttempts bounds the immediate retry on transient failures.
const maxAttempts = 2

// Client queries the DHL tracking API and normalizes responses into
// domain snapshots.
type Client struct {
	baseURL string
	apiKey  string
	client  ports.HTTPClient
	logger  ports.Logger
}

// NewClient creates a DHL tracking client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL, apiKey string, client ports.HTTPClient, logger ports.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

// FetchStatus returns a normalized snapshot for the tracking number.
// Transient failures get one immediate retry; everything else surfaces
// on the first attempt.
func (c *Client) FetchStatus(ctx context.Context, trackingNumber string) (domain.Snapshot, error) {
	if strings.TrimSpace(trackingNumber) == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: empty tracking number", domain.ErrValidation)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		snap, err := c.fetch(ctx, trackingNumber)
		if err == nil {
			return snap, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrTransient) || ctx.Err() != nil {
			return domain.Snapshot{}, err
		}
		c.logger.Debug("carrier query retry",
			ports.String("tracking_number", trackingNumber),
			ports.Int("attempt", attempt),
			ports.Err(err),
		)
	}
	return domain.Snapshot{}, lastErr
}

func (c *Client) fetch(ctx context.Context, trackingNumber string) (domain.Snapshot, error) {
	u := c.baseURL + trackEndpoint + "?trackingNumber=" + url.QueryEscape(trackingNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("DHL-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
	case resp.StatusCode == http.StatusNotFound:
		return domain.Snapshot{}, fmt.Errorf("%w: tracking number %s", domain.ErrNotFound, trackingNumber)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.Snapshot{}, fmt.Errorf("%w: carrier returned %d", domain.ErrAuthFailure, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Snapshot{}, fmt.Errorf("%w: carrier returned 429", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Snapshot{}, fmt.Errorf("%w: carrier rejected request: %s", domain.ErrValidation, string(body))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Snapshot{}, fmt.Errorf("%w: carrier returned %d: %s", domain.ErrTransient, resp.StatusCode, string(body))
	}

	var tr trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: decode response: %v", domain.ErrTransient, err)
	}
	if len(tr.Shipments) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: no shipment data for %s", domain.ErrNotFound, trackingNumber)
	}
	return normalize(tr.Shipments[0]), nil
}

type trackResponse struct {
	Shipments []trackedShipment `json:"shipments"`
}

type trackedShipment struct {
	Status shipmentStatus  `json:"status"`
	Events []shipmentEvent `json:"events"`
}

type shipmentStatus struct {
	Timestamp   string   `json:"timestamp"`
	Location    location `json:"location"`
	StatusCode  string   `json:"statusCode"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	NextSteps   string   `json:"nextSteps"`
}

type shipmentEvent struct {
	Timestamp   string   `json:"timestamp"`
	Location    location `json:"location"`
	Description string   `json:"description"`
}

type location struct {
	Address struct {
		AddressLocality string `json:"addressLocality"`
	} `json:"address"`
}

func normalize(sh trackedShipment) domain.Snapshot {
	st := sh.Status
	description := st.Description
	if description == "" {
		description = st.Status
	}

	code := strings.ToLower(st.StatusCode)
	delivered := code == "delivered" || code == "ok" ||
		strings.Contains(strings.ToLower(description), "delivered")

	status := domain.ParseStatus(st.StatusCode, description)
	if delivered {
		status = domain.StatusDelivered
	}

	snap := domain.Snapshot{
		Status:      status,
		Timestamp:   parseTime(st.Timestamp),
		Description: description,
		Delivered:   delivered,
	}
	if !delivered {
		snap.NextSteps = st.NextSteps
	}
	for _, ev := range sh.Events {
		snap.Events = append(snap.Events, domain.TrackingEvent{
			Time:        parseTime(ev.Timestamp),
			Location:    ev.Location.Address.AddressLocality,
			Description: ev.Description,
		})
	}
	return snap
}

// parseTime accepts the carrier's timestamp variants: RFC3339 and the
// zone-less form some DHL services emit.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
