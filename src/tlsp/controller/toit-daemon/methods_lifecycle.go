package toitdaemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid"
	lspsessions "github.com/toitware/tlsp/src/tlsp/controller/lsp-sessions"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Initialize stores the parameters of a new connection and prepares its language server sessions.
// The executables are resolved once the editor is initialized, since resolution may prompt the user.
func (c *controller) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting connection from context: %w", err)
	}

	conn.InitializeParams = params
	conn.WorkspaceFolders = initialWorkspaceFolders(params)
	if conn.Settings, err = mapper.RawSettingsToSettings(c.rawSettings(params.InitializationOptions)); err != nil {
		// Reported to the user during resolution.
		c.logger.Warnw("invalid initialization options", "error", err)
	}
	if err := c.connections.Set(ctx, conn); err != nil {
		return nil, fmt.Errorf("setting updated connection state: %w", err)
	}

	var stderr io.Writer
	if w, err := c.ideGateway.GetLogMessageWriter(context.WithoutCancel(ctx), entity.ToolToitLSP); err != nil {
		c.logger.Warnw("language server output will not reach the editor", "error", err)
	} else {
		stderr = w
	}

	m := c.sessions.New(ctx, lspsessions.Options{
		Prompter:         c.ideGateway,
		InitializeParams: params,
		Handler:          c.editorHandler(ctx),
		Stderr:           stderr,
	})
	m.SetWorkspaceFolders(conn.WorkspaceFolders)

	c.managersMu.Lock()
	previous := c.managers[conn.UUID]
	c.managers[conn.UUID] = m
	c.managersMu.Unlock()
	if previous != nil {
		c.logger.Warnw("connection initialized twice", zap.Stringer("uuid", conn.UUID))
		if err := previous.Deactivate(ctx); err != nil {
			c.logger.Warnw("stopping previous sessions", "error", err)
		}
	}

	return &protocol.InitializeResult{
		Capabilities: serverCapabilities(),
		ServerInfo: &protocol.ServerInfo{
			Name: _serverName,
		},
	}, nil
}

// Initialized resolves the executables and starts handling toit documents.
func (c *controller) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting connection from context: %w", err)
	}

	var options interface{}
	if conn.InitializeParams != nil {
		options = conn.InitializeParams.InitializationOptions
	}
	return c.resolve(ctx, c.rawSettings(options))
}

// Shutdown stops every language server of the connection.
func (c *controller) Shutdown(ctx context.Context) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return m.Deactivate(ctx)
}

// Exit cleans up the connection. The transport decides whether the process exits.
func (c *controller) Exit(ctx context.Context) error {
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("error during connection exit: %w", err)
	}
	return c.EndConnection(ctx, conn.UUID)
}

// InitConnection creates a new empty connection and returns its UUID.
func (c *controller) InitConnection(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error) {
	defer c.refreshIdleTimer(ctx)

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	if err := c.ideGateway.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}
	if err := c.connections.Set(ctx, mapper.UUIDToConnection(id)); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// EndConnection stops the language servers of the connection and forgets about it.
// Safe to call more than once.
func (c *controller) EndConnection(ctx context.Context, id uuid.UUID) error {
	defer c.refreshIdleTimer(ctx)

	ctx = mapper.ConnectionUUIDToContext(ctx, id)

	c.managersMu.Lock()
	m := c.managers[id]
	delete(c.managers, id)
	c.managersMu.Unlock()

	if m != nil {
		if err := m.Deactivate(ctx); err != nil {
			c.logger.Warnw("stopping language servers", zap.Stringer("uuid", id), "error", err)
		}
	}
	c.jag.Forget(ctx)

	if err := c.ideGateway.DeregisterClient(ctx, id); err != nil {
		c.logger.Error(err)
	}
	return c.connections.Delete(ctx, id)
}

// resolve resolves the executables from raw settings, stores them and activates the sessions.
func (c *controller) resolve(ctx context.Context, raw map[string]interface{}) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}

	executables := c.resolver.Resolve(ctx, raw, c.ideGateway)
	settings, _ := mapper.RawSettingsToSettings(raw)

	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting connection from context: %w", err)
	}
	conn.Settings = settings
	conn.Executables = executables
	if err := c.connections.Set(ctx, conn); err != nil {
		return fmt.Errorf("setting updated connection state: %w", err)
	}

	c.logger.Infow("resolved executables",
		"cli", executables.CLI,
		"jag", executables.Jag,
		"lspCommand", executables.LSPCommand,
	)
	if len(executables.LSPCommand) == 0 {
		c.logger.Warn("no language server command, toit documents are not analyzed")
		return nil
	}
	m.Activate(ctx, executables.LSPCommand, settings.DebugClientToServer)
	return nil
}

// rawSettings overlays the settings sent by the editor on the configured defaults.
func (c *controller) rawSettings(options interface{}) map[string]interface{} {
	return mapper.MergeRawSettings(c.defaultSettings, mapper.RawToSettingsMap(options))
}

// refreshIdleTimer shuts the daemon down after a period without connections.
// A zero timeout disables it. The daemon stays up if the connections cannot be counted.
func (c *controller) refreshIdleTimer(ctx context.Context) {
	if c.idleTimeout <= 0 {
		return
	}

	c.idleTimerMu.Lock()
	defer c.idleTimerMu.Unlock()

	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}

	count, err := c.connections.ConnectionCount(ctx)
	if err != nil {
		c.logger.Warnw("resetting idle timeout", "error", err)
		return
	}
	if count > 0 {
		return
	}

	c.idleTimer = c.clock.AfterFunc(c.idleTimeout, func() {
		c.logger.Info("Shutdown signal received.")
		if err := c.shutdowner.Shutdown(); err != nil {
			os.Exit(1)
		}
	})
}

// initialWorkspaceFolders falls back to the root uri for editors without workspace folder support.
func initialWorkspaceFolders(params *protocol.InitializeParams) []protocol.WorkspaceFolder {
	if len(params.WorkspaceFolders) > 0 {
		return append([]protocol.WorkspaceFolder(nil), params.WorkspaceFolders...)
	}
	if params.RootURI != "" {
		return []protocol.WorkspaceFolder{{
			URI:  string(params.RootURI),
			Name: filepath.Base(params.RootURI.Filename()),
		}}
	}
	if params.RootPath != "" {
		return []protocol.WorkspaceFolder{{
			URI:  string(uri.File(params.RootPath)),
			Name: filepath.Base(params.RootPath),
		}}
	}
	return nil
}

func serverCapabilities() protocol.ServerCapabilities {
	return protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindFull,
			Save: &protocol.SaveOptions{
				IncludeText: false,
			},
		},
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{".", "$", "-"},
		},
		HoverProvider:              true,
		DefinitionProvider:         true,
		ReferencesProvider:         true,
		DocumentSymbolProvider:     true,
		DocumentFormattingProvider: true,
		SignatureHelpProvider: &protocol.SignatureHelpOptions{
			TriggerCharacters: []string{" ", "("},
		},
		SemanticTokensProvider: map[string]interface{}{
			"legend": entity.SemanticTokensLegend,
			"full":   true,
		},
		ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
			Commands: []string{
				CommandJagScan, CommandJagRun, CommandPackages, CommandSessions,
				CommandDevices, CommandDevRun, CommandDevDeploy, CommandUninstallApp, CommandStartSimulator, CommandStopSimulator,
			},
		},
		Workspace: &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.ServerCapabilitiesWorkspaceFolders{
				Supported:           true,
				ChangeNotifications: true,
			},
		},
	}
}
