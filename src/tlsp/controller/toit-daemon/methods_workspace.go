package toitdaemon

import (
	"context"
	"fmt"
	"slices"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// DidChangeWorkspaceFolders registers added folders and stops the sessions of removed ones.
func (c *controller) DidChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting connection from context: %w", err)
	}

	conn.WorkspaceFolders = updateFolders(conn.WorkspaceFolders, params.Event.Added, params.Event.Removed)
	if err := c.connections.Set(ctx, conn); err != nil {
		return fmt.Errorf("setting updated connection state: %w", err)
	}

	m.RemoveWorkspaceFolders(ctx, params.Event.Removed)
	m.SetWorkspaceFolders(conn.WorkspaceFolders)
	return nil
}

// DidChangeConfiguration resolves the executables again if the settings that select them changed.
// Running sessions keep their command, new sessions use the new one.
func (c *controller) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	if params.Settings == nil {
		return nil
	}
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting connection from context: %w", err)
	}

	raw := c.rawSettings(params.Settings)
	if settings, err := mapper.RawSettingsToSettings(raw); err == nil && sameSettings(settings, conn.Settings) {
		return nil
	}
	return c.resolve(ctx, raw)
}

func (c *controller) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	switch params.Command {
	case CommandJagScan:
		jag, err := c.jagExecutable(ctx)
		if err != nil {
			return nil, err
		}
		return c.jag.Scan(ctx, jag)

	case CommandJagRun:
		jag, err := c.jagExecutable(ctx)
		if err != nil {
			return nil, err
		}
		cfg, err := c.commandDocument(ctx, params)
		if err != nil {
			return nil, err
		}
		output, err := c.ideGateway.GetLogMessageWriter(ctx, entity.ToolJag)
		if err != nil {
			return nil, err
		}
		result := c.jag.Run(ctx, jag, cfg.file, c.ideGateway, output)
		switch {
		case result.IsCancelled():
			return nil, nil
		case result.IsFailed():
			return nil, result.Reason
		}
		return result.Value, nil

	case CommandPackages:
		cfg, err := c.commandDocument(ctx, params)
		if err != nil {
			return nil, err
		}
		return c.packages.List(ctx, cfg.WorkingDir)

	case CommandSessions:
		m, err := c.manager(ctx)
		if err != nil {
			return nil, err
		}
		return m.Sessions(), nil

	case CommandDevices, CommandDevRun, CommandDevDeploy, CommandUninstallApp, CommandStartSimulator, CommandStopSimulator:
		return c.executeDeviceCommand(ctx, params)
	}
	return nil, fmt.Errorf("%q: %w", params.Command, jsonrpc2.ErrMethodNotFound)
}

func (c *controller) jagExecutable(ctx context.Context) (string, error) {
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("getting connection from context: %w", err)
	}
	if conn.Executables.Jag == "" {
		return "", jsonrpc2.NewError(jsonrpc2.InvalidRequest, "the 'jag' executable is not available")
	}
	return conn.Executables.Jag, nil
}

type documentConfiguration struct {
	entity.ClientConfiguration
	file string
}

// commandDocument returns the configuration of the file named by the command's first argument.
func (c *controller) commandDocument(ctx context.Context, params *protocol.ExecuteCommandParams) (documentConfiguration, error) {
	docURI, err := mapper.CommandArgumentToDocumentURI(params)
	if err != nil {
		return documentConfiguration{}, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return documentConfiguration{}, fmt.Errorf("getting connection from context: %w", err)
	}

	cfg, err := c.workspaceUtils.ComputeClientConfiguration(docURI, conn.WorkspaceFolders)
	if err != nil {
		return documentConfiguration{}, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	if cfg.Scheme != entity.FileScheme {
		return documentConfiguration{}, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "command %q requires a file on disk, got %q", params.Command, docURI)
	}
	return documentConfiguration{ClientConfiguration: cfg, file: docURI.Filename()}, nil
}

// updateFolders applies a workspace folder change. Folders are identified by uri.
func updateFolders(current, added, removed []protocol.WorkspaceFolder) []protocol.WorkspaceFolder {
	result := make([]protocol.WorkspaceFolder, 0, len(current)+len(added))
	isRemoved := func(f protocol.WorkspaceFolder) bool {
		return slices.ContainsFunc(removed, func(r protocol.WorkspaceFolder) bool { return r.URI == f.URI })
	}
	for _, f := range current {
		if !isRemoved(f) {
			result = append(result, f)
		}
	}
	for _, f := range added {
		if !slices.ContainsFunc(result, func(r protocol.WorkspaceFolder) bool { return r.URI == f.URI }) {
			result = append(result, f)
		}
	}
	return result
}

func sameSettings(a, b entity.Settings) bool {
	return a.ToitPath == b.ToitPath &&
		a.JagPath == b.JagPath &&
		a.DebugClientToServer == b.DebugClientToServer &&
		slices.Equal(a.LSPCommand, b.LSPCommand)
}
