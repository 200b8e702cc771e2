package jsonrpcfx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/gofrs/uuid"
	"github.com/toitware/tlsp/src/tlsp/internal/serverinfofile"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyMode    = "jsonrpc.mode"
	_configKeyAddress = "jsonrpc.address"
	_outputKey        = "lsp-address"
)

// Transport modes.
const (
	// ModeStdio serves a single editor over stdin and stdout. The daemon exits when the stream closes.
	ModeStdio = "stdio"
	// ModeTCP accepts any number of editors on the configured address.
	ModeTCP = "tcp"
)

// Module is an fx module to handle JSON-RPC requests.
var Module = fx.Provide(New)

// JSONRPCModule represents a module to manage JSON-RPC requests.
type JSONRPCModule interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	ServeStream(ctx context.Context, conn jsonrpc2.Conn) error
	RegisterConnectionManager(connectionManager ConnectionManager) error
}

// Router serves as the interface through which handling of requests will be implemented.
type Router interface {
	HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error
	UUID() uuid.UUID
}

// ConnectionManager will manage each active connection and its corresponding Router throughout the lifecycle of a connection.
type ConnectionManager interface {
	NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router Router, err error)
	RemoveConnection(ctx context.Context, id uuid.UUID)
}

type module struct {
	Mode    string `yaml:"mode"`
	Address string `yaml:"address"`

	connectionMgr  ConnectionManager
	ln             *net.TCPListener
	stdio          io.ReadWriteCloser
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile
	shutdowner     fx.Shutdowner
}

// Params define values to be used by JsonRpcHandler.
type Params struct {
	fx.In

	Config         config.Provider
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
	Shutdowner     fx.Shutdowner
}

// New creates a new server to handle JSON-RPC requests, either on stdio or on the configured TCP address.
func New(p Params) (JSONRPCModule, error) {
	if p.Lifecycle == nil || p.Config == nil {
		return nil, errors.New("required parameters are missing")
	}

	m := module{
		logger:         p.Logger,
		serverInfoFile: p.ServerInfoFile,
		shutdowner:     p.Shutdowner,
		stdio:          stdioPipe{Reader: os.Stdin, Writer: os.Stdout},
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})

	return &m, nil
}

// OnStart begins handling incoming connections.
func (m *module) OnStart(ctx context.Context) error {
	if m.Mode == ModeStdio {
		go m.serveStdio()
		return nil
	}

	if err := m.setup(); err != nil {
		return err
	}

	go m.start()
	return nil
}

// OnStop closes the listener. Connections that are still open end when their editor disconnects.
func (m *module) OnStop(ctx context.Context) error {
	if m.ln == nil {
		return nil
	}
	if err := m.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// ServeStream is called when a new connection is initiated. Requests received via the connection will be routed to the handler, and answered via the connection's replier.
func (m *module) ServeStream(ctx context.Context, conn jsonrpc2.Conn) error {
	if m.connectionMgr == nil {
		m.logger.Errorf("cannot serve connection, no connection manager set")
		return errors.New("cannot serve connection, no connection manager set")
	}

	// Start handling the connection.
	handler, err := m.connectionMgr.NewConnection(ctx, &conn)
	if err != nil {
		return err
	}
	m.logger.Infow("client connected", zap.Stringer("uuid", handler.UUID()))
	conn.Go(ctx, handler.HandleReq)

	// Block until the connection is closed.
	<-conn.Done()

	// Cleanup after connection.
	m.connectionMgr.RemoveConnection(ctx, handler.UUID())
	m.logger.Infow("client disconnected", zap.Stringer("uuid", handler.UUID()))

	return conn.Err()
}

// RegisterConnectionManager sets the connection manager, which keeps track of current active connections and provides a Router implementation.
func (m *module) RegisterConnectionManager(connectionMgr ConnectionManager) error {
	if m.connectionMgr != nil {
		return errors.New("cannot register a duplicate connection manager")
	}
	m.connectionMgr = connectionMgr
	return nil
}

// serveStdio serves the editor that started the process and shuts the app down once it goes away.
func (m *module) serveStdio() {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(m.stdio))
	if err := m.ServeStream(context.Background(), conn); err != nil && !errors.Is(err, io.EOF) {
		m.logger.Warnw("stdio connection ended", zap.Error(err))
	}

	if m.shutdowner == nil {
		return
	}
	if err := m.shutdowner.Shutdown(); err != nil {
		m.logger.Errorw("shutting down after stdio connection ended", zap.Error(err))
	}
}

// setup should be called after creation of a new handler to set initial values.
func (m *module) setup() error {
	if m.Address == "" {
		return errors.New("setup called before address is set")
	}

	addr, err := net.ResolveTCPAddr("tcp", m.Address)
	if err != nil {
		return err
	}

	m.ln, err = net.ListenTCP("tcp", addr)
	return err
}

// start will begin serving connections until the listener is closed.
func (m *module) start() {
	address := m.ln.Addr().String()
	if err := m.serverInfoFile.UpdateField(_outputKey, address); err != nil {
		m.logger.Errorw("writing address to server info file", zap.Error(err))
	}

	m.logger.Infow("started JSON-RPC inbound", zap.String("address", address))
	if err := jsonrpc2.Serve(context.Background(), m.ln, m, 0); err != nil && !errors.Is(err, net.ErrClosed) {
		m.logger.Errorw("JSON-RPC inbound stopped", zap.Error(err))
	}
}

// processConfig will parse the configuration for any values required by this module.
func (m *module) processConfig(cfg config.Provider) error {
	if err := cfg.Get(_configKeyMode).Populate(&m.Mode); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyMode, err)
	}
	if m.Mode == "" {
		m.Mode = ModeStdio
	}

	switch m.Mode {
	case ModeStdio:
		return nil
	case ModeTCP:
	default:
		return fmt.Errorf("unsupported value %q for %q, expected %q or %q", m.Mode, _configKeyMode, ModeStdio, ModeTCP)
	}

	val := cfg.Get(_configKeyAddress)
	if err := val.Populate(&m.Address); err != nil {
		// incorrectly formatted config
		return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}

	if m.Address == "" {
		// yaml is missing either the key or value
		return fmt.Errorf("missing field %q in config", _configKeyAddress)
	}

	return nil
}

// stdioPipe joins stdin and stdout into a single stream.
type stdioPipe struct {
	io.Reader
	io.Writer
}

func (stdioPipe) Close() error {
	return nil
}
