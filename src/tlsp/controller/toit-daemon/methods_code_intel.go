package toitdaemon

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

func (c *controller) Forward(ctx context.Context, docURI protocol.DocumentURI, method string, params json.RawMessage, reply jsonrpc2.Replier) error {
	m, err := c.manager(ctx)
	if err != nil {
		return reply(ctx, nil, err)
	}

	server, ok := m.Server(ctx, docURI)
	if !ok {
		c.logger.Debugw("no language server for request", "method", method, "uri", docURI)
		return reply(ctx, nil, nil)
	}
	server.Request(ctx, method, params, reply)
	return nil
}

// editorHandler forwards requests and notifications from the language servers to the editor of the connection in ctx.
func (c *controller) editorHandler(ctx context.Context) jsonrpc2.Handler {
	ctx = context.WithoutCancel(ctx)
	return func(_ context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if _, isCall := req.(*jsonrpc2.Call); !isCall {
			if err := c.forwardNotification(ctx, req.Method(), req.Params()); err != nil {
				c.logger.Warnw("forwarding notification to editor", "method", req.Method(), "error", err)
			}
			return nil
		}

		// The connection to the language server is blocked until the handler returns.
		go func() {
			result, err := c.forwardCall(ctx, req.Method(), req.Params())
			if err := reply(ctx, result, err); err != nil {
				c.logger.Warnw("replying to language server", "method", req.Method(), "error", err)
			}
		}()
		return nil
	}
}

// forwardNotification uses the typed client method where the gateway has one.
func (c *controller) forwardNotification(ctx context.Context, method string, raw json.RawMessage) error {
	switch method {
	case protocol.MethodTextDocumentPublishDiagnostics:
		return decodeParams(raw, func(p *protocol.PublishDiagnosticsParams) error { return c.ideGateway.PublishDiagnostics(ctx, p) })
	case protocol.MethodWindowLogMessage:
		return decodeParams(raw, func(p *protocol.LogMessageParams) error { return c.ideGateway.LogMessage(ctx, p) })
	case protocol.MethodProgress:
		return decodeParams(raw, func(p *protocol.ProgressParams) error { return c.ideGateway.Progress(ctx, p) })
	}
	return c.ideGateway.Notify(ctx, method, raw)
}

func (c *controller) forwardCall(ctx context.Context, method string, raw json.RawMessage) (interface{}, error) {
	if method == protocol.MethodWorkDoneProgressCreate {
		return nil, decodeParams(raw, func(p *protocol.WorkDoneProgressCreateParams) error { return c.ideGateway.WorkDoneProgressCreate(ctx, p) })
	}
	return c.ideGateway.Call(ctx, method, raw)
}

func decodeParams[T any](raw json.RawMessage, send func(*T) error) error {
	var params T
	if err := json.Unmarshal(raw, &params); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	return send(&params)
}
