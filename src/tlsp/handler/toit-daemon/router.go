package toitdaemon

import (
	"context"

	"github.com/gofrs/uuid"
	controller "github.com/toitware/tlsp/src/tlsp/controller/toit-daemon"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

type jsonRPCRouter struct {
	toitdaemon controller.Controller
	uuid       uuid.UUID
	stats      tally.Scope
}

// HandleReq handles routing for a single request.
// It runs on the connection's read loop, so anything that may wait for the editor is moved to its own goroutine.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = mapper.ConnectionUUIDToContext(ctx, r.uuid)
	reply = wireErrors(reply)
	if r.stats != nil {
		r.stats.Tagged(map[string]string{"method": req.Method()}).Counter("requests").Inc(1)
	}

	switch req.Method() {
	// Lifecycle related methods.
	case protocol.MethodInitialize:
		return r.Initialize(ctx, reply, req)

	case protocol.MethodInitialized:
		return r.Initialized(ctx, reply, req)

	case protocol.MethodShutdown:
		return r.Shutdown(ctx, reply, req)

	case protocol.MethodExit:
		return r.Exit(ctx, reply, req)

	case protocol.MethodCancelRequest:
		// Forwarded requests are answered by the language server, which does not support cancellation either.
		return reply(ctx, nil, nil)

	// Document related methods.
	case protocol.MethodTextDocumentDidOpen:
		return r.DidOpen(ctx, reply, req)

	case protocol.MethodTextDocumentDidChange:
		return r.DidChange(ctx, reply, req)

	case protocol.MethodTextDocumentDidSave:
		return r.DidSave(ctx, reply, req)

	case protocol.MethodTextDocumentDidClose:
		return r.DidClose(ctx, reply, req)

	// Workspace related methods.
	case protocol.MethodWorkspaceDidChangeWorkspaceFolders:
		return r.DidChangeWorkspaceFolders(ctx, reply, req)

	case protocol.MethodWorkspaceDidChangeConfiguration:
		return r.DidChangeConfiguration(ctx, reply, req)

	case protocol.MethodWorkspaceExecuteCommand:
		return r.ExecuteCommand(ctx, reply, req)

	// Code intelligence is answered by the language server owning the document.
	case protocol.MethodTextDocumentCompletion,
		protocol.MethodTextDocumentHover,
		protocol.MethodTextDocumentDefinition,
		protocol.MethodTextDocumentReferences,
		protocol.MethodTextDocumentDocumentSymbol,
		protocol.MethodTextDocumentFormatting,
		protocol.MethodTextDocumentSignatureHelp,
		protocol.MethodSemanticTokensFull:
		return r.Forward(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

// UUID returns the id of the connection served by this router.
func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}

// wireErrors gives domain errors their JSON-RPC code before they reach the editor.
func wireErrors(reply jsonrpc2.Replier) jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		return reply(ctx, result, mapper.ErrorToWireError(err))
	}
}

// detach runs f after the read loop moves on. The context keeps its values but not its cancellation.
func detach(ctx context.Context, f func(ctx context.Context)) {
	go f(context.WithoutCancel(ctx))
}
