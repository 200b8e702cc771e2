package toitdaemon

import (
	"context"

	"go.lsp.dev/protocol"
)

func (c *controller) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return m.DidOpen(ctx, params)
}

func (c *controller) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return c.notifyOpenDocument(ctx, params.TextDocument.URI, protocol.MethodTextDocumentDidChange, params)
}

func (c *controller) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	return c.notifyOpenDocument(ctx, params.TextDocument.URI, protocol.MethodTextDocumentDidSave, params)
}

func (c *controller) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return m.DidClose(ctx, params)
}

func (c *controller) notifyOpenDocument(ctx context.Context, docURI protocol.DocumentURI, method string, params interface{}) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	if !m.Notify(ctx, docURI, method, params) {
		c.logger.Debugw("dropping notification for document without session", "method", method, "uri", docURI)
	}
	return nil
}
