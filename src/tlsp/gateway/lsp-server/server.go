package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// message is a notification, or a request when reply is set.
type message struct {
	ctx    context.Context
	method string
	params interface{}
	reply  jsonrpc2.Replier
}

func (m *message) abort(logger *zap.SugaredLogger, err error) {
	if m.reply == nil {
		logger.Debugw("dropping notification", "method", m.method, "reason", err)
		return
	}
	if rErr := m.reply(m.ctx, nil, jsonrpc2.NewError(jsonrpc2.InternalError, err.Error())); rErr != nil {
		logger.Warnw("replying to aborted request", "method", m.method, "error", rErr)
	}
}

// queue is an unbounded FIFO of messages. Pushing never blocks.
type queue struct {
	mu     sync.Mutex
	items  []*message
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

func (q *queue) push(m *message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, m)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// pop blocks until a message is available. It returns false once the queue is closed and empty.
func (q *queue) pop(ctx context.Context) (*message, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			m := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return m, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// close stops accepting messages and returns the ones not yet delivered.
func (q *queue) close() []*message {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	items := q.items
	q.items = nil
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return items
}

type server struct {
	logger      *zap.SugaredLogger
	opts        LaunchOptions
	gracePeriod time.Duration

	// ctx lives until the server is stopped or its process exits. It carries the values of the launch context.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state entity.SessionState
	err   error
	conn  jsonrpc2.Conn
	proc  child
	debug io.Closer

	ready      chan struct{}
	readyOnce  sync.Once
	exited     chan struct{}
	workerDone chan struct{}
	queue      *queue

	stopOnce sync.Once
	stopErr  error
}

func newServer(ctx context.Context, logger *zap.SugaredLogger, opts LaunchOptions, gracePeriod time.Duration) *server {
	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &server{
		logger:      logger,
		opts:        opts,
		gracePeriod: gracePeriod,
		ctx:         lifetime,
		cancel:      cancel,
		state:       entity.SessionStarting,
		ready:       make(chan struct{}),
		exited:      make(chan struct{}),
		workerDone:  make(chan struct{}),
		queue:       newQueue(),
	}
}

func (s *server) State() entity.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *server) Ready() <-chan struct{} {
	return s.ready
}

func (s *server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *server) Notify(ctx context.Context, method string, params interface{}) {
	m := &message{ctx: ctx, method: method, params: params}
	if !s.queue.push(m) {
		m.abort(s.logger, errors.ErrSessionStopped)
	}
}

func (s *server) Request(ctx context.Context, method string, params interface{}, reply jsonrpc2.Replier) {
	m := &message{ctx: ctx, method: method, params: params, reply: reply}
	if !s.queue.push(m) {
		m.abort(s.logger, errors.ErrSessionStopped)
	}
}

// start spawns the process and performs the initialize handshake.
func (s *server) start(spawn spawnFunc, debug io.WriteCloser) {
	stderr := s.opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	proc, err := spawn(s.opts.Command, s.opts.WorkingDir, stderr)
	if err != nil {
		if debug != nil {
			debug.Close()
		}
		close(s.exited)
		s.fail(fmt.Errorf("starting language server %q: %w", s.opts.Command.Program(), err))
		return
	}

	stream := &tracingStream{Stream: jsonrpc2.NewStream(proc)}
	if debug != nil {
		stream.debug = debug
	}
	conn := jsonrpc2.NewConn(stream)

	s.mu.Lock()
	s.proc = proc
	s.conn = conn
	if debug != nil {
		s.debug = debug
	}
	s.mu.Unlock()

	go func() {
		err := proc.Wait()
		close(s.exited)
		s.mu.Lock()
		if s.state == entity.SessionReady {
			s.state = entity.SessionStopped
			s.logger.Warnw("language server exited", "error", err)
		}
		s.mu.Unlock()
		s.cancel()
	}()

	handler := s.opts.Handler
	if handler == nil {
		handler = jsonrpc2.MethodNotFoundHandler
	}
	conn.Go(s.ctx, handler)

	var result protocol.InitializeResult
	if _, err := conn.Call(s.ctx, protocol.MethodInitialize, s.opts.InitializeParams, &result); err != nil {
		s.fail(fmt.Errorf("initializing language server %q: %w", s.opts.Command.Program(), err))
		return
	}
	if err := conn.Notify(s.ctx, protocol.MethodInitialized, &protocol.InitializedParams{}); err != nil {
		s.fail(fmt.Errorf("initializing language server %q: %w", s.opts.Command.Program(), err))
		return
	}

	s.mu.Lock()
	if s.state == entity.SessionStarting {
		s.state = entity.SessionReady
	}
	s.mu.Unlock()
	if !sameLegend(result.Capabilities.SemanticTokensProvider) {
		s.logger.Warnw("language server uses a different semantic token legend, highlighting will be wrong",
			"provider", result.Capabilities.SemanticTokensProvider)
	}
	s.logger.Infow("language server ready", "serverInfo", result.ServerInfo)
	s.readyOnce.Do(func() { close(s.ready) })
}

// sameLegend reports whether a server's semantic token provider uses the legend advertised to the editor.
// Servers without a provider or legend are not checked.
func sameLegend(provider interface{}) bool {
	if provider == nil {
		return true
	}
	data, err := json.Marshal(provider)
	if err != nil {
		return true
	}
	var options struct {
		Legend *protocol.SemanticTokensLegend `json:"legend"`
	}
	if err := json.Unmarshal(data, &options); err != nil || options.Legend == nil {
		return true
	}
	return slices.Equal(options.Legend.TokenTypes, entity.SemanticTokensLegend.TokenTypes) &&
		slices.Equal(options.Legend.TokenModifiers, entity.SemanticTokensLegend.TokenModifiers)
}

func (s *server) fail(err error) {
	s.mu.Lock()
	if s.state == entity.SessionStarting {
		s.state = entity.SessionFailed
		s.err = err
	}
	s.mu.Unlock()
	s.logger.Errorw("language server failed to start", "error", err)
	s.readyOnce.Do(func() { close(s.ready) })
}

// run delivers queued messages in order once the server is ready.
func (s *server) run() {
	defer close(s.workerDone)

	select {
	case <-s.ready:
	case <-s.ctx.Done():
	}

	for {
		m, ok := s.queue.pop(s.ctx)
		if !ok {
			break
		}
		if s.State() != entity.SessionReady {
			m.abort(s.logger, s.stoppedErr())
			continue
		}
		s.deliver(m)
	}

	for _, m := range s.queue.close() {
		m.abort(s.logger, s.stoppedErr())
	}
}

func (s *server) stoppedErr() error {
	if err := s.Err(); err != nil {
		return err
	}
	return errors.ErrSessionStopped
}

// deliver writes m to the server. Requests are answered in the background, but the next message is
// only written once the request is on the wire.
func (s *server) deliver(m *message) {
	if m.reply == nil {
		if err := s.conn.Notify(s.ctx, m.method, m.params); err != nil {
			s.logger.Warnw("forwarding notification", "method", m.method, "error", err)
		}
		return
	}

	written := newWriteSignal()
	done := make(chan struct{})
	go func() {
		defer close(done)
		var result json.RawMessage
		_, err := s.conn.Call(withWriteSignal(s.ctx, written), m.method, m.params, &result)
		if err != nil && s.ctx.Err() != nil {
			err = errors.ErrSessionStopped
		}
		if rErr := m.reply(m.ctx, result, err); rErr != nil {
			s.logger.Warnw("replying to forwarded request", "method", m.method, "error", rErr)
		}
	}()

	select {
	case <-written.ch:
	case <-done:
	}
}

// Stop shuts the server down: shutdown request, exit notification, then a kill once the grace period has passed.
// A start still in progress is awaited first, bounded by ctx.
func (s *server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopErr = s.stop(ctx)
	})
	return s.stopErr
}

func (s *server) stop(ctx context.Context) error {
	select {
	case <-s.ready:
	case <-ctx.Done():
		s.logger.Warnw("language server did not finish starting before stop", "error", ctx.Err())
		s.cancel()
		<-s.ready
	}

	s.mu.Lock()
	wasReady := s.state == entity.SessionReady
	s.state = entity.SessionStopped
	conn, proc, debug := s.conn, s.proc, s.debug
	s.mu.Unlock()

	var err error
	if wasReady {
		shutdownCtx, cancel := context.WithTimeout(s.ctx, s.gracePeriod)
		if _, sErr := conn.Call(shutdownCtx, protocol.MethodShutdown, nil, nil); sErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutting down language server: %w", sErr))
		} else if nErr := conn.Notify(shutdownCtx, protocol.MethodExit, nil); nErr != nil {
			err = multierr.Append(err, fmt.Errorf("sending exit to language server: %w", nErr))
		}
		cancel()
	}

	if proc != nil {
		grace := s.gracePeriod
		if !wasReady {
			grace = 0
		}
		select {
		case <-s.exited:
		case <-time.After(grace):
			s.logger.Warnw("killing language server", "ready", wasReady)
			if kErr := proc.Kill(); kErr != nil {
				s.logger.Warnw("killing language server", "error", kErr)
			}
		}
	}
	if conn != nil {
		conn.Close()
		<-conn.Done()
	}
	<-s.exited

	s.cancel()
	for _, m := range s.queue.close() {
		m.abort(s.logger, errors.ErrSessionStopped)
	}
	<-s.workerDone

	if debug != nil {
		err = multierr.Append(err, debug.Close())
	}
	return err
}
