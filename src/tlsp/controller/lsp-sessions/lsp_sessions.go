// Package lspsessions multiplexes language server sessions for the documents of one editor connection.
package lspsessions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/toitware/tlsp/src/tlsp/entity"
	lspserver "github.com/toitware/tlsp/src/tlsp/gateway/lsp-server"
	"github.com/toitware/tlsp/src/tlsp/internal/clock"
	"github.com/toitware/tlsp/src/tlsp/internal/filewatch"
	workspaceutils "github.com/toitware/tlsp/src/tlsp/internal/workspace-utils"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyStartTimeout = "sessionStartTimeout"

	_defaultStartTimeout = 3 * time.Second
	_stopTimeout         = 5 * time.Second

	_messageNotResponding = "The Language Server is not responding. Consult the documentation."
	_messageDebugLinux    = "Client-Server debugging is only available on Linux"
)

// Module provides the session manager factory to fx.
var Module = fx.Provide(New)

// Factory creates a Manager per editor connection.
type Factory interface {
	New(ctx context.Context, opts Options) Manager
}

// Options configure the sessions of one editor connection.
type Options struct {
	// Prompter reports session failures to the user.
	Prompter entity.Prompter
	// InitializeParams are the parameters received from the editor. They are the base for the
	// initialize request sent to every language server.
	InitializeParams *protocol.InitializeParams
	// Handler receives requests and notifications sent by the language servers.
	Handler jsonrpc2.Handler
	// Stderr receives the standard error of the language servers.
	Stderr io.Writer
}

// Manager owns the language server sessions of a single editor connection.
type Manager interface {
	// Activate enables document handling. Sessions are started with cmd.
	// Documents opened before are handled as if they were opened now.
	Activate(ctx context.Context, cmd entity.LSPCommand, debugClientToServer bool)
	// Active reports whether Activate has been called and Deactivate has not.
	Active() bool
	// SetWorkspaceFolders replaces the registered workspace folders.
	SetWorkspaceFolders(folders []protocol.WorkspaceFolder)
	// RemoveWorkspaceFolders unregisters folders and stops their sessions regardless of open documents.
	RemoveWorkspaceFolders(ctx context.Context, folders []protocol.WorkspaceFolder)

	// DidOpen starts or reuses the session of the document and forwards the notification.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	// DidClose forwards the notification and releases the document's session.
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	// Notify forwards a notification about an open document to its session.
	// Before Activate, notifications are queued behind the document's open and replayed with it.
	// It reports false if the document is not open.
	Notify(ctx context.Context, docURI protocol.DocumentURI, method string, params interface{}) bool
	// Server returns the language server owning the document.
	Server(ctx context.Context, docURI protocol.DocumentURI) (entity.ServerHandle, bool)
	// Session returns a snapshot of the session owning the document.
	Session(ctx context.Context, docURI protocol.DocumentURI) (entity.Session, bool)
	// Sessions returns a snapshot of all sessions ordered by key.
	Sessions() []entity.Session

	// Deactivate stops every session and waits for all of them.
	Deactivate(ctx context.Context) error
}

// Params are inbound parameters to initialize a new Factory.
type Params struct {
	fx.In

	Config         config.Provider
	Logger         *zap.SugaredLogger
	Stats          tally.Scope
	Servers        lspserver.Gateway
	Watchers       filewatch.Factory
	WorkspaceUtils workspaceutils.WorkspaceUtils
	Clock          clock.Clock
}

type factory struct {
	logger         *zap.SugaredLogger
	stats          tally.Scope
	servers        lspserver.Gateway
	watchers       filewatch.Factory
	workspaceUtils workspaceutils.WorkspaceUtils
	clock          clock.Clock
	startTimeout   time.Duration
}

// New creates a Factory.
func New(p Params) (Factory, error) {
	f := &factory{
		logger:         p.Logger,
		stats:          p.Stats,
		servers:        p.Servers,
		watchers:       p.Watchers,
		workspaceUtils: p.WorkspaceUtils,
		clock:          p.Clock,
		startTimeout:   _defaultStartTimeout,
	}

	var timeout time.Duration
	if err := p.Config.Get(_configKeyStartTimeout).Populate(&timeout); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyStartTimeout, err)
	}
	if timeout > 0 {
		f.startTimeout = timeout
	}
	return f, nil
}

func (f *factory) New(ctx context.Context, opts Options) Manager {
	return &manager{
		factory: f,
		ctx:     context.WithoutCancel(ctx),
		opts:    opts,
		docs:    make(map[protocol.DocumentURI]entity.SessionKey),
		keyed:   make(map[entity.SessionKey]*session),
	}
}

type manager struct {
	*factory

	// ctx carries the connection of the editor and outlives individual requests.
	ctx  context.Context
	opts Options

	mu      sync.Mutex
	active  bool
	command entity.LSPCommand
	debug   bool
	folders []protocol.WorkspaceFolder
	// pending holds documents opened before Activate, in order.
	pending []*pendingDocument
	// docs maps open toit documents to the key of their session.
	docs    map[protocol.DocumentURI]entity.SessionKey
	keyed   map[entity.SessionKey]*session
	nonFile *session

	// stopping tracks sessions stopped in the background.
	stopping sync.WaitGroup
}

func (m *manager) Activate(ctx context.Context, cmd entity.LSPCommand, debugClientToServer bool) {
	if debugClientToServer && !m.servers.SupportsDebugTee() {
		debugClientToServer = false
		m.opts.Prompter.Prompt(ctx, protocol.MessageTypeInfo, _messageDebugLinux)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = true
	m.command = append(entity.LSPCommand(nil), cmd...)
	m.debug = debugClientToServer
	m.logger.Infow("activated language server sessions", "command", cmd, "debugClientToServer", debugClientToServer, "pending", len(m.pending))

	pending := m.pending
	m.pending = nil
	for _, doc := range pending {
		docURI := doc.open.TextDocument.URI
		if err := m.open(ctx, doc.open); err != nil {
			m.logger.Warnw("unable to open pending document", "uri", docURI, "error", err)
			continue
		}
		for _, n := range doc.notifications {
			m.notify(ctx, docURI, n.method, n.params)
		}
	}
}

func (m *manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *manager) SetWorkspaceFolders(folders []protocol.WorkspaceFolder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders = append([]protocol.WorkspaceFolder(nil), folders...)
}

func (m *manager) RemoveWorkspaceFolders(ctx context.Context, folders []protocol.WorkspaceFolder) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, removed := range folders {
		m.folders = removeFolder(m.folders, removed)

		path, err := m.workspaceUtils.FolderPath(removed)
		if err != nil {
			m.logger.Debugw("ignoring removed workspace folder", "uri", removed.URI, "error", err)
			continue
		}
		key := entity.SessionKey(path)
		s, ok := m.keyed[key]
		if !ok {
			continue
		}
		delete(m.keyed, key)
		for doc, docKey := range m.docs {
			if docKey == key {
				delete(m.docs, doc)
			}
		}
		m.logger.Infow("workspace folder removed, stopping session", "key", key, "refCount", s.refCount)
		m.stopInBackground(s)
	}
	m.updateGauge()
}

func (m *manager) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	if params.TextDocument.LanguageID != entity.ToitLanguageID {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		// Opened before the executables were resolved. Replayed by Activate.
		m.pending = append(removePending(m.pending, params.TextDocument.URI), &pendingDocument{open: params})
		return nil
	}
	return m.open(ctx, params)
}

// open must be called with m.mu held.
func (m *manager) open(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	docURI := params.TextDocument.URI
	if _, open := m.docs[docURI]; open {
		m.logger.Warnw("document opened twice", "uri", docURI)
		return nil
	}

	cfg, err := m.workspaceUtils.ComputeClientConfiguration(docURI, m.folders)
	if err != nil {
		return fmt.Errorf("compute client configuration: %w", err)
	}

	var s *session
	key := cfg.Key()
	if key == entity.NonFileSessionKey {
		if m.nonFile == nil {
			m.nonFile = m.startSession(cfg)
		}
		s = m.nonFile
	} else if existing, ok := m.keyed[key]; ok {
		s = existing
		s.refCount++
	} else {
		s = m.startSession(cfg)
		s.refCount = 1
		m.keyed[key] = s
	}
	m.docs[docURI] = key
	m.updateGauge()

	// Queued while holding the lock to keep the order of open and close notifications.
	s.server.Notify(ctx, protocol.MethodTextDocumentDidOpen, params)
	return nil
}

func (m *manager) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docURI := params.TextDocument.URI
	if !m.active {
		m.pending = removePending(m.pending, docURI)
		return nil
	}
	key, open := m.docs[docURI]
	if !open {
		return nil
	}
	delete(m.docs, docURI)

	if key == entity.NonFileSessionKey {
		if m.nonFile != nil {
			m.nonFile.server.Notify(ctx, protocol.MethodTextDocumentDidClose, params)
		}
		return nil
	}

	s, ok := m.keyed[key]
	if !ok {
		return nil
	}
	s.server.Notify(ctx, protocol.MethodTextDocumentDidClose, params)

	s.refCount--
	if s.refCount > 0 {
		return nil
	}
	delete(m.keyed, key)
	m.updateGauge()
	m.logger.Infow("last document closed, stopping session", "key", key)
	m.stopInBackground(s)
	return nil
}

func (m *manager) Notify(ctx context.Context, docURI protocol.DocumentURI, method string, params interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		for _, doc := range m.pending {
			if doc.open.TextDocument.URI == docURI {
				doc.notifications = append(doc.notifications, pendingNotification{method: method, params: params})
				return true
			}
		}
		return false
	}
	return m.notify(ctx, docURI, method, params)
}

// notify must be called with m.mu held.
func (m *manager) notify(ctx context.Context, docURI protocol.DocumentURI, method string, params interface{}) bool {
	key, open := m.docs[docURI]
	if !open {
		return false
	}
	s := m.nonFile
	if key != entity.NonFileSessionKey {
		s = m.keyed[key]
	}
	if s == nil {
		return false
	}
	s.server.Notify(ctx, method, params)
	return true
}

func (m *manager) Server(ctx context.Context, docURI protocol.DocumentURI) (entity.ServerHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(docURI)
	if !ok {
		return nil, false
	}
	return s.server, true
}

func (m *manager) Session(ctx context.Context, docURI protocol.DocumentURI) (entity.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(docURI)
	if !ok {
		return entity.Session{}, false
	}
	return s.snapshot(), true
}

func (m *manager) Sessions() []entity.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]entity.Session, 0, len(m.keyed)+1)
	if m.nonFile != nil {
		result = append(result, m.nonFile.snapshot())
	}
	for _, s := range m.keyed {
		result = append(result, s.snapshot())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

func (m *manager) Deactivate(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.keyed)+1)
	if m.nonFile != nil {
		sessions = append(sessions, m.nonFile)
	}
	for _, s := range m.keyed {
		sessions = append(sessions, s)
	}
	m.active = false
	m.pending = nil
	m.nonFile = nil
	m.keyed = make(map[entity.SessionKey]*session)
	m.docs = make(map[protocol.DocumentURI]entity.SessionKey)
	m.updateGauge()
	m.mu.Unlock()

	errs := make([]error, len(sessions))
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *session) {
			defer wg.Done()
			if err := s.stop(ctx); err != nil {
				errs[i] = fmt.Errorf("stopping session %q: %w", s.key, err)
			}
		}(i, s)
	}
	wg.Wait()
	m.stopping.Wait()

	return multierr.Combine(errs...)
}

// lookup finds the session of an open document, or of the session a closed document would belong to.
// Must be called with m.mu held.
func (m *manager) lookup(docURI protocol.DocumentURI) (*session, bool) {
	key, open := m.docs[docURI]
	if !open {
		cfg, err := m.workspaceUtils.ComputeClientConfiguration(docURI, m.folders)
		if err != nil {
			return nil, false
		}
		key = cfg.Key()
	}

	if key == entity.NonFileSessionKey {
		return m.nonFile, m.nonFile != nil
	}
	s, ok := m.keyed[key]
	return s, ok
}

// startSession launches the language server for cfg. Must be called with m.mu held.
func (m *manager) startSession(cfg entity.ClientConfiguration) *session {
	key := cfg.Key()
	s := &session{
		key:    key,
		config: cfg,
		logger: m.logger.With("key", key),
	}

	s.server = m.servers.Launch(m.ctx, lspserver.LaunchOptions{
		Command:             m.command,
		WorkingDir:          cfg.WorkingDir,
		InitializeParams:    m.initializeParams(cfg),
		DebugClientToServer: m.debug,
		Handler:             m.opts.Handler,
		Stderr:              m.opts.Stderr,
	})

	if cfg.Pattern != nil {
		w, err := m.watchers.Watch(*cfg.Pattern, func(changes []*protocol.FileEvent) {
			s.server.Notify(m.ctx, protocol.MethodWorkspaceDidChangeWatchedFiles, &protocol.DidChangeWatchedFilesParams{Changes: changes})
		})
		if err != nil {
			s.logger.Warnw("unable to watch files", "pattern", cfg.Pattern, "error", err)
		} else {
			s.watcher = w
		}
	}

	s.timer = m.clock.AfterFunc(m.startTimeout, func() {
		if s.server.State() != entity.SessionStarting {
			return
		}
		s.logger.Warnw("language server did not start in time", "timeout", m.startTimeout)
		m.stats.Counter("session_start_timeout").Inc(1)
		m.opts.Prompter.Prompt(m.ctx, protocol.MessageTypeError, _messageNotResponding)
	})

	s.watchDone = make(chan struct{})
	go m.awaitReady(s)
	return s
}

// awaitReady reports the outcome of a session start.
func (m *manager) awaitReady(s *session) {
	defer close(s.watchDone)
	<-s.server.Ready()
	s.timer.Stop()

	if err := s.server.Err(); err != nil {
		if s.stopped.Load() || s.server.State() == entity.SessionStopped {
			return
		}
		s.logger.Errorw("language server failed to start", "error", err)
		m.stats.Counter("session_start_failed").Inc(1)
		m.opts.Prompter.Prompt(m.ctx, protocol.MessageTypeError, fmt.Sprintf("The Language Server failed to start: %v", err))
		return
	}
	s.logger.Infow("language server ready")
	m.stats.Counter("session_started").Inc(1)
}

func (m *manager) stopInBackground(s *session) {
	m.stopping.Add(1)
	go func() {
		defer m.stopping.Done()
		ctx, cancel := context.WithTimeout(m.ctx, _stopTimeout)
		defer cancel()
		if err := s.stop(ctx); err != nil {
			s.logger.Warnw("stopping session", "error", err)
		}
	}()
}

// initializeParams derives the initialize request of a session from the editor's parameters.
func (m *manager) initializeParams(cfg entity.ClientConfiguration) *protocol.InitializeParams {
	params := &protocol.InitializeParams{ProcessID: int32(os.Getpid())}
	if base := m.opts.InitializeParams; base != nil {
		params.ClientInfo = base.ClientInfo
		params.Locale = base.Locale
		params.Capabilities = base.Capabilities
		params.InitializationOptions = base.InitializationOptions
		params.Trace = base.Trace
	}
	if cfg.WorkingDir == "" {
		return params
	}

	params.RootURI = uri.File(cfg.WorkingDir)
	params.RootPath = cfg.WorkingDir
	if cfg.WorkspaceFolder != nil {
		params.WorkspaceFolders = []protocol.WorkspaceFolder{*cfg.WorkspaceFolder}
	} else {
		params.WorkspaceFolders = []protocol.WorkspaceFolder{{URI: string(params.RootURI), Name: filepath.Base(cfg.WorkingDir)}}
	}
	return params
}

// updateGauge must be called with m.mu held.
func (m *manager) updateGauge() {
	n := len(m.keyed)
	if m.nonFile != nil {
		n++
	}
	m.stats.Gauge("active_sessions").Update(float64(n))
}

func removeFolder(folders []protocol.WorkspaceFolder, removed protocol.WorkspaceFolder) []protocol.WorkspaceFolder {
	result := folders[:0]
	for _, f := range folders {
		if f.URI != removed.URI {
			result = append(result, f)
		}
	}
	return result
}

// pendingDocument is a document opened before Activate with the notifications received for it since.
type pendingDocument struct {
	open          *protocol.DidOpenTextDocumentParams
	notifications []pendingNotification
}

type pendingNotification struct {
	method string
	params interface{}
}

func removePending(pending []*pendingDocument, docURI protocol.DocumentURI) []*pendingDocument {
	result := pending[:0]
	for _, p := range pending {
		if p.open.TextDocument.URI != docURI {
			result = append(result, p)
		}
	}
	return result
}
