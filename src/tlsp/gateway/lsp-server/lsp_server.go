package lspserver

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"github.com/toitware/tlsp/src/tlsp/internal/fs"
	"github.com/toitware/tlsp/src/tlsp/internal/logfilewriter"
	"github.com/toitware/tlsp/src/tlsp/internal/serverinfofile"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_stopGracePeriod = 2 * time.Second
	_debugOutputName = "toit-lsp-client-server"
)

// Module provides the language server gateway to an Fx application.
var Module = fx.Provide(New)

// Gateway starts language server processes and connects to them over their standard streams.
type Gateway interface {
	// Launch starts the language server in the background. The returned handle is Starting until the
	// server answers initialize.
	Launch(ctx context.Context, opts LaunchOptions) entity.ServerHandle
	// SupportsDebugTee reports whether client to server traffic can be copied to a log file on this platform.
	SupportsDebugTee() bool
}

// LaunchOptions describe a single language server process.
type LaunchOptions struct {
	Command    entity.LSPCommand
	WorkingDir string
	// InitializeParams are sent as is in the initialize request.
	InitializeParams *protocol.InitializeParams
	// DebugClientToServer copies every message sent to the server into a log file.
	DebugClientToServer bool
	// Handler receives requests and notifications sent by the server.
	Handler jsonrpc2.Handler
	// Stderr receives the standard error of the server. Discarded if nil.
	Stderr io.Writer
}

// Params are the dependencies of the Gateway.
type Params struct {
	fx.In

	Logger         *zap.SugaredLogger
	Executor       executor.Executor
	FS             fs.FS
	ServerInfoFile serverinfofile.ServerInfoFile
}

type gateway struct {
	logger       *zap.SugaredLogger
	executor     executor.Executor
	outputParams logfilewriter.Params
	goos         string
	spawn        spawnFunc
	gracePeriod  time.Duration
}

// New returns a Gateway that starts language servers as child processes.
func New(p Params) Gateway {
	g := &gateway{
		logger:   p.Logger,
		executor: p.Executor,
		outputParams: logfilewriter.Params{
			FS:             p.FS,
			ServerInfoFile: p.ServerInfoFile,
		},
		goos:        runtime.GOOS,
		gracePeriod: _stopGracePeriod,
	}
	g.spawn = g.spawnProcess
	return g
}

func (g *gateway) SupportsDebugTee() bool {
	return g.goos == "linux"
}

func (g *gateway) Launch(ctx context.Context, opts LaunchOptions) entity.ServerHandle {
	s := newServer(ctx, g.logger.With("command", opts.Command, "workingDir", opts.WorkingDir), opts, g.gracePeriod)

	var debug logfilewriter.OutputWriter
	if opts.DebugClientToServer && g.SupportsDebugTee() {
		w, err := logfilewriter.SetupOutputWriter(g.outputParams, _debugOutputName)
		if err != nil {
			s.logger.Warnw("unable to create client to server log, continuing without it", "error", err)
		} else {
			s.logger.Infow("copying client to server traffic", "path", w.Path())
			debug = w
		}
	}

	go s.start(g.spawn, debug)
	go s.run()
	return s
}
