package toitdaemon

import (
	"context"

	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/jsonrpc2"
)

func (r *jsonRPCRouter) DidChangeWorkspaceFolders(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidChangeWorkspaceFoldersParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.toitdaemon.DidChangeWorkspaceFolders(ctx, params)
	return reply(ctx, nil, err)
}

// DidChangeConfiguration may locate the executables again, which can prompt the user.
func (r *jsonRPCRouter) DidChangeConfiguration(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidChangeConfigurationParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	detach(ctx, func(ctx context.Context) {
		reply(ctx, nil, r.toitdaemon.DidChangeConfiguration(ctx, params))
	})
	return nil
}

// ExecuteCommand runs in the background since commands talk to devices and to the user.
func (r *jsonRPCRouter) ExecuteCommand(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToExecuteCommandParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	detach(ctx, func(ctx context.Context) {
		result, err := r.toitdaemon.ExecuteCommand(ctx, params)
		reply(ctx, result, err)
	})
	return nil
}
