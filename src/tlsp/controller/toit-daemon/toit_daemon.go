// Package toitdaemon implements the tlsp daemon business logic.
package toitdaemon

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/toitware/tlsp/src/tlsp/controller/jag"
	lspsessions "github.com/toitware/tlsp/src/tlsp/controller/lsp-sessions"
	"github.com/toitware/tlsp/src/tlsp/controller/packages"
	"github.com/toitware/tlsp/src/tlsp/controller/resolver"
	toitcli "github.com/toitware/tlsp/src/tlsp/controller/toit-cli"
	ideclient "github.com/toitware/tlsp/src/tlsp/gateway/ide-client"
	"github.com/toitware/tlsp/src/tlsp/internal/clock"
	workspaceutils "github.com/toitware/tlsp/src/tlsp/internal/workspace-utils"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"github.com/toitware/tlsp/src/tlsp/repository/connection"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Configuration keys
	_configKeySettings    = "settings"
	_configKeyIdleTimeout = "idleTimeout"

	_serverName = "Toit Language Server"

	_errNoManager = "no language server sessions for connection %s"
)

// Commands handled by ExecuteCommand.
const (
	CommandJagScan  = "toit.jag.scan"
	CommandJagRun   = "toit.jag.run"
	CommandPackages = "toit.packages"
	CommandSessions = "toit.sessions"

	CommandDevices        = "toit.devices"
	CommandDevRun         = "toit.devRun"
	CommandDevDeploy      = "toit.devDeploy"
	CommandUninstallApp   = "toit.uninstallApp"
	CommandStartSimulator = "toit.startSimulator"
	CommandStopSimulator  = "toit.stopSimulator"
)

// Module provides the daemon controller to fx.
var Module = fx.Provide(New)

// Controller orchestrates the business logic for each request.
type Controller interface {
	// LSP Methods defined per protocol.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error

	// Document related methods.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error

	// Workspace related methods.
	DidChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error
	DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error
	ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error)

	// Forward sends a request about docURI to the language server owning it and replies with its answer.
	// Requests for documents without a session are answered with null.
	Forward(ctx context.Context, docURI protocol.DocumentURI, method string, params json.RawMessage, reply jsonrpc2.Replier) error

	// Custom methods for use within this service.
	InitConnection(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error)
	EndConnection(ctx context.Context, id uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Shutdowner     fx.Shutdowner
	Config         config.Provider
	Logger         *zap.SugaredLogger
	Connections    connection.Repository
	IdeGateway     ideclient.Gateway
	Clock          clock.Clock
	WorkspaceUtils workspaceutils.WorkspaceUtils

	Resolver resolver.Controller
	Sessions lspsessions.Factory
	Jag      jag.Controller
	Packages packages.Controller
	ToitCLI  toitcli.Controller
}

type controller struct {
	shutdowner     fx.Shutdowner
	logger         *zap.SugaredLogger
	connections    connection.Repository
	ideGateway     ideclient.Gateway
	clock          clock.Clock
	workspaceUtils workspaceutils.WorkspaceUtils

	resolver resolver.Controller
	sessions lspsessions.Factory
	jag      jag.Controller
	packages packages.Controller
	toitCLI  toitcli.Controller

	defaultSettings map[string]interface{}

	managersMu sync.Mutex
	managers   map[uuid.UUID]lspsessions.Manager

	idleTimeout time.Duration
	idleTimerMu sync.Mutex
	idleTimer   clock.Timer
}

// New constructs a new top-level controller for the service.
func New(p Params) (Controller, error) {
	var rawDefaults interface{}
	if err := p.Config.Get(_configKeySettings).Populate(&rawDefaults); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeySettings, err)
	}
	var idleTimeout time.Duration
	if err := p.Config.Get(_configKeyIdleTimeout).Populate(&idleTimeout); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyIdleTimeout, err)
	}

	c := &controller{
		shutdowner:      p.Shutdowner,
		logger:          p.Logger,
		connections:     p.Connections,
		ideGateway:      p.IdeGateway,
		clock:           p.Clock,
		workspaceUtils:  p.WorkspaceUtils,
		resolver:        p.Resolver,
		sessions:        p.Sessions,
		jag:             p.Jag,
		packages:        p.Packages,
		toitCLI:         p.ToitCLI,
		defaultSettings: mapper.RawToSettingsMap(rawDefaults),
		managers:        make(map[uuid.UUID]lspsessions.Manager),
		idleTimeout:     idleTimeout,
	}
	c.refreshIdleTimer(context.Background())
	return c, nil
}

// manager returns the session manager of the connection in ctx.
func (c *controller) manager(ctx context.Context) (lspsessions.Manager, error) {
	id, err := mapper.ContextToConnectionUUID(ctx)
	if err != nil {
		return nil, err
	}

	c.managersMu.Lock()
	defer c.managersMu.Unlock()
	m, ok := c.managers[id]
	if !ok {
		return nil, fmt.Errorf(_errNoManager, id)
	}
	return m, nil
}
