// Package toitdaemon implements the tlsp daemon's JSON-RPC handlers.
package toitdaemon

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	controller "github.com/toitware/tlsp/src/tlsp/controller/toit-daemon"
	"github.com/toitware/tlsp/src/tlsp/internal/jsonrpcfx"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
)

// Handler accepts editor connections and routes their requests to the controller.
type Handler interface {
	jsonrpcfx.ConnectionManager
}

type jsonRPCConnectionManager struct {
	ctrl  controller.Controller
	stats tally.Scope
}

// New constructs a new Handler and registers it with the JSON-RPC module.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope) (Handler, error) {
	c := &jsonRPCConnectionManager{
		ctrl:  ctrl,
		stats: stats.SubScope("json_rpc"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}
	c.stats.Counter("connections").Inc(1)

	r := jsonRPCRouter{
		toitdaemon: c.ctrl,
		uuid:       id,
		stats:      c.stats,
	}

	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	// Ensure the connection is removed even if no exit notification has been received.
	ctx = mapper.ConnectionUUIDToContext(ctx, id)
	if err := c.ctrl.EndConnection(ctx, id); err != nil {
		c.stats.Counter("end_connection_errors").Inc(1)
	}
}
