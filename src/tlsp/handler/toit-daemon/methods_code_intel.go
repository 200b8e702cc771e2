package toitdaemon

import (
	"context"

	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/jsonrpc2"
)

// Forward hands a text document request to the language server of its document.
func (r *jsonRPCRouter) Forward(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	docURI, err := mapper.RequestToTextDocumentURI(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	return r.toitdaemon.Forward(ctx, docURI, req.Method(), req.Params(), reply)
}
