package toitdaemon

import (
	"context"

	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/jsonrpc2"
)

// Initialize extracts protocol.InitializeParams from the request and sets up the language server sessions of a new editor connection.
func (r *jsonRPCRouter) Initialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToInitializeParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.toitdaemon.Initialize(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}

	return reply(ctx, result, nil)
}

// Initialized locates the Toit executables and starts serving documents.
// Locating them may prompt the user, whose answer arrives on this connection's read loop.
func (r *jsonRPCRouter) Initialized(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToInitializedParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	detach(ctx, func(ctx context.Context) {
		reply(ctx, nil, r.toitdaemon.Initialized(ctx, params))
	})
	return nil
}

// Shutdown stops the language servers of this connection but keeps it open.
func (r *jsonRPCRouter) Shutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	detach(ctx, func(ctx context.Context) {
		reply(ctx, nil, r.toitdaemon.Shutdown(ctx))
	})
	return nil
}

// Exit ends the connection.
func (r *jsonRPCRouter) Exit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	// Reply first to ensure that a reply is sent before the controller tears the connection down.
	reply(ctx, nil, nil)
	return r.toitdaemon.Exit(ctx)
}
