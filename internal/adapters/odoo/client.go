// Package odoo implements ports.RecordStore against an Odoo instance's
// external XML-RPC API (stock.picking model).
package odoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

const pickingModel = "stock.picking"

// Config holds the connection and query parameters for one Odoo instance.
type Config struct {
	URL      string
	Database string
	Username string
	Password string

	// CarrierName filters pickings to one carrier (ilike match).
	CarrierName string

	// Lookback bounds the active listing to recently shipped pickings.
	Lookback time.Duration

	// Limit caps the number of records per listing.
	Limit int
}

// Client is an Odoo XML-RPC record store. Authentication is lazy and the
// session is re-established after transport failures.
type Client struct {
	cfg    Config
	logger ports.Logger

	mu     sync.Mutex
	uid    int64
	object *xmlrpc.Client
}

// NewClient creates an Odoo record store client.
func NewClient(cfg Config, logger ports.Logger) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{cfg: cfg, logger: logger}
}

// connect authenticates against the common endpoint and prepares the
// object endpoint. Safe to call repeatedly; the session is cached.
func (c *Client) connect() (*xmlrpc.Client, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.object != nil && c.uid != 0 {
		return c.object, c.uid, nil
	}

	common, err := xmlrpc.NewClient(c.cfg.URL+"/xmlrpc/2/common", nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer common.Close()

	var reply interface{}
	args := []interface{}{c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]interface{}{}}
	if err := common.Call("authenticate", args, &reply); err != nil {
		return nil, 0, mapRPCError(err)
	}
	uid, ok := reply.(int64)
	if !ok || uid == 0 {
		// Odoo answers false instead of a uid on bad credentials.
		return nil, 0, fmt.Errorf("%w: odoo rejected credentials for %s", domain.ErrAuthFailure, c.cfg.Username)
	}

	object, err := xmlrpc.NewClient(c.cfg.URL+"/xmlrpc/2/object", nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	c.uid = uid
	c.object = object
	c.logger.Debug("odoo session established", ports.Int64("uid", uid))
	return object, uid, nil
}

// reset drops the cached session so the next call re-authenticates.
func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.object != nil {
		c.object.Close()
	}
	c.object = nil
	c.uid = 0
}

func (c *Client) executeKw(ctx context.Context, model, method string, args []interface{}, kw map[string]interface{}, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	object, uid, err := c.connect()
	if err != nil {
		return err
	}

	params := []interface{}{c.cfg.Database, uid, c.cfg.Password, model, method, args}
	if kw != nil {
		params = append(params, kw)
	}
	if err := object.Call("execute_kw", params, reply); err != nil {
		mapped := mapRPCError(err)
		if errors.Is(mapped, domain.ErrStoreUnavailable) || errors.Is(mapped, domain.ErrAuthFailure) {
			c.reset()
		}
		return mapped
	}
	return nil
}

// ListActiveShipments returns the non-delivered pickings for the
// configured carrier shipped within the lookback window.
func (c *Client) ListActiveShipments(ctx context.Context) ([]domain.Shipment, error) {
	cutoff := time.Now().Add(-c.cfg.Lookback).Format("2006-01-02 15:04:05")
	filter := []interface{}{
		[]interface{}{"carrier_tracking_ref", "!=", false},
		[]interface{}{"carrier_id.name", "ilike", c.cfg.CarrierName},
		[]interface{}{"state", "=", "done"},
		[]interface{}{"x_studio_delivered_", "=", false},
		[]interface{}{"date_done", ">=", cutoff},
	}

	var reply interface{}
	err := c.executeKw(ctx, pickingModel, "search_read",
		[]interface{}{filter},
		map[string]interface{}{
			"fields": []string{"carrier_tracking_ref", "partner_id", "name", "date_done", "x_studio_last_status"},
			"limit":  c.cfg.Limit,
			"order":  "date_done desc",
		},
		&reply,
	)
	if err != nil {
		return nil, fmt.Errorf("list active shipments: %w", err)
	}

	records, ok := reply.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected search_read reply %T", domain.ErrValidation, reply)
	}

	shipments := make([]domain.Shipment, 0, len(records))
	for _, rec := range records {
		fields, ok := rec.(map[string]interface{})
		if !ok {
			continue
		}
		sh, ok := decodeShipment(fields)
		if !ok {
			c.logger.Warn("skipping malformed picking record", ports.Any("record", fields["id"]))
			continue
		}
		shipments = append(shipments, sh)
	}
	return shipments, nil
}

// UpdateStatus writes a status update to one picking. Delivered updates
// set the delivered flag and clear the status text; everything else
// rewrites the status text. Writing identical values is a no-op in Odoo,
// which gives the required idempotence.
func (c *Client) UpdateStatus(ctx context.Context, recordID int64, update domain.StatusUpdate) error {
	values := map[string]interface{}{}
	if update.Status == domain.StatusDelivered {
		values["x_studio_delivered_"] = true
		values["x_studio_last_status"] = ""
	} else {
		values["x_studio_last_status"] = statusText(update)
	}

	var reply interface{}
	err := c.executeKw(ctx, pickingModel, "write",
		[]interface{}{[]int64{recordID}, values}, nil, &reply)
	if err != nil {
		return fmt.Errorf("update status of record %d: %w", recordID, err)
	}
	if ok, isBool := reply.(bool); isBool && !ok {
		return fmt.Errorf("%w: record %d", domain.ErrNotFound, recordID)
	}
	return nil
}

// mapRPCError translates XML-RPC faults and transport errors into the
// domain taxonomy.
func mapRPCError(err error) error {
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		msg := fault.String
		switch {
		case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "AccessError"):
			return fmt.Errorf("%w: %s", domain.ErrAuthFailure, firstLine(msg))
		case strings.Contains(msg, "does not exist"), strings.Contains(msg, "Missing record"):
			return fmt.Errorf("%w: %s", domain.ErrNotFound, firstLine(msg))
		default:
			return fmt.Errorf("%w: %s", domain.ErrValidation, firstLine(msg))
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
