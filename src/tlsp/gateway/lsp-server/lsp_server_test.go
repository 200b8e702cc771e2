package lspserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"github.com/toitware/tlsp/src/tlsp/internal/fs/fsmock"
	"github.com/toitware/tlsp/src/tlsp/internal/serverinfofile/serverinfofilemock"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const _envFakeServer = "TLSP_TEST_FAKE_LANGUAGE_SERVER"

type fakeChild struct {
	net.Conn
	exited chan struct{}
	once   sync.Once
	killed atomic.Bool
}

func (c *fakeChild) Wait() error {
	<-c.exited
	return nil
}

func (c *fakeChild) Kill() error {
	c.killed.Store(true)
	c.exit()
	return nil
}

func (c *fakeChild) exit() {
	c.once.Do(func() { close(c.exited) })
}

// fakeServer is the language server side of a fakeChild.
type fakeServer struct {
	conn  jsonrpc2.Conn
	child *fakeChild

	// blockInitialize delays the initialize answer until closed.
	blockInitialize chan struct{}
	failInitialize  bool
	ignoreExit      bool
	semanticTokens  interface{}

	mu      sync.Mutex
	methods []string
	dir     string
}

func (f *fakeServer) spawn(command entity.LSPCommand, dir string, stderr io.Writer) (child, error) {
	clientSide, serverSide := net.Pipe()
	f.child = &fakeChild{Conn: clientSide, exited: make(chan struct{})}
	f.dir = dir
	f.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(serverSide))
	f.conn.Go(context.Background(), f.handle)
	return f.child, nil
}

func (f *fakeServer) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	f.mu.Lock()
	f.methods = append(f.methods, req.Method())
	f.mu.Unlock()

	switch req.Method() {
	case protocol.MethodInitialize:
		if f.failInitialize {
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InternalError, "broken"))
		}
		go func() {
			if f.blockInitialize != nil {
				select {
				case <-f.blockInitialize:
				case <-f.conn.Done():
					return
				}
			}
			reply(ctx, &protocol.InitializeResult{
				ServerInfo:   &protocol.ServerInfo{Name: "fake"},
				Capabilities: protocol.ServerCapabilities{SemanticTokensProvider: f.semanticTokens},
			}, nil)
		}()
		return nil
	case protocol.MethodInitialized:
		return f.conn.Notify(ctx, protocol.MethodWindowLogMessage, &protocol.LogMessageParams{Type: protocol.MessageTypeLog, Message: "hello"})
	case protocol.MethodExit:
		if !f.ignoreExit {
			f.child.exit()
		}
		return nil
	case protocol.MethodTextDocumentHover:
		return reply(ctx, map[string]string{"contents": "hover"}, nil)
	}
	return reply(ctx, nil, nil)
}

func (f *fakeServer) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

type replyResult struct {
	result interface{}
	err    error
}

func replier(ch chan<- replyResult) jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		ch <- replyResult{result: result, err: err}
		return nil
	}
}

func newTestGateway(spawn spawnFunc) *gateway {
	return &gateway{
		logger:      zap.NewNop().Sugar(),
		goos:        "linux",
		spawn:       spawn,
		gracePeriod: 100 * time.Millisecond,
	}
}

func testOptions() LaunchOptions {
	return LaunchOptions{
		Command:          entity.LSPCommand{"toit", "tool", "lsp"},
		WorkingDir:       "/proj",
		InitializeParams: &protocol.InitializeParams{RootURI: uri.File("/proj")},
	}
}

func TestLaunchForwardsInOrder(t *testing.T) {
	f := &fakeServer{blockInitialize: make(chan struct{})}
	g := newTestGateway(f.spawn)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "connection")
	logs := make(chan string, 1)
	opts := testOptions()
	opts.Handler = func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		assert.Equal(t, "connection", ctx.Value(ctxKey{}))
		logs <- req.Method()
		return nil
	}

	s := g.Launch(ctx, opts)
	assert.Equal(t, entity.SessionStarting, s.State())

	replies := make(chan replyResult, 1)
	s.Notify(ctx, protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{})
	s.Request(ctx, protocol.MethodTextDocumentHover, &protocol.HoverParams{}, replier(replies))
	close(f.blockInitialize)

	<-s.Ready()
	assert.Equal(t, entity.SessionReady, s.State())
	assert.NoError(t, s.Err())
	assert.Equal(t, "/proj", f.dir)

	r := <-replies
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"contents":"hover"}`, string(r.result.(json.RawMessage)))
	assert.Equal(t, protocol.MethodWindowLogMessage, <-logs)

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, entity.SessionStopped, s.State())
	assert.False(t, f.child.killed.Load())
	assert.Equal(t, []string{
		protocol.MethodInitialize,
		protocol.MethodInitialized,
		protocol.MethodTextDocumentDidOpen,
		protocol.MethodTextDocumentHover,
		protocol.MethodShutdown,
		protocol.MethodExit,
	}, f.received())

	// Stop is idempotent.
	assert.NoError(t, s.Stop(context.Background()))
}

func TestLaunchReportsDifferentLegend(t *testing.T) {
	tests := []struct {
		name     string
		provider interface{}
		wantWarn bool
	}{
		{name: "no provider"},
		{
			name:     "same legend",
			provider: map[string]interface{}{"legend": entity.SemanticTokensLegend, "full": true},
		},
		{
			name: "reordered types",
			provider: map[string]interface{}{
				"legend": protocol.SemanticTokensLegend{
					TokenTypes:     []protocol.SemanticTokenTypes{protocol.SemanticTokenClass, protocol.SemanticTokenNamespace},
					TokenModifiers: entity.SemanticTokensLegend.TokenModifiers,
				},
				"full": true,
			},
			wantWarn: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			f := &fakeServer{semanticTokens: tt.provider}
			g := newTestGateway(f.spawn)
			g.logger = zap.New(core).Sugar()

			s := g.Launch(context.Background(), testOptions())
			<-s.Ready()
			require.Equal(t, entity.SessionReady, s.State())
			require.NoError(t, s.Stop(context.Background()))

			warned := logs.FilterMessageSnippet("semantic token legend").Len() > 0
			assert.Equal(t, tt.wantWarn, warned)
		})
	}
}

func TestSameLegend(t *testing.T) {
	assert.True(t, sameLegend(nil))
	assert.True(t, sameLegend(true))
	assert.True(t, sameLegend(map[string]interface{}{"full": true}))
	assert.True(t, sameLegend(map[string]interface{}{"legend": entity.SemanticTokensLegend}))
	assert.False(t, sameLegend(map[string]interface{}{
		"legend": map[string]interface{}{"tokenTypes": []string{"namespace"}, "tokenModifiers": []string{}},
	}))
}

func TestRequestAfterStop(t *testing.T) {
	f := &fakeServer{}
	s := newTestGateway(f.spawn).Launch(context.Background(), testOptions())
	<-s.Ready()
	require.NoError(t, s.Stop(context.Background()))

	replies := make(chan replyResult, 1)
	s.Request(context.Background(), protocol.MethodTextDocumentHover, &protocol.HoverParams{}, replier(replies))
	r := <-replies
	assert.ErrorContains(t, r.err, "session stopped")

	s.Notify(context.Background(), protocol.MethodTextDocumentDidClose, &protocol.DidCloseTextDocumentParams{})
	assert.NotContains(t, f.received(), protocol.MethodTextDocumentDidClose)
}

func TestSpawnFailure(t *testing.T) {
	g := newTestGateway(func(entity.LSPCommand, string, io.Writer) (child, error) {
		return nil, errors.New("exec: \"toit\": executable file not found in $PATH")
	})

	s := g.Launch(context.Background(), testOptions())
	replies := make(chan replyResult, 1)
	s.Request(context.Background(), protocol.MethodTextDocumentHover, &protocol.HoverParams{}, replier(replies))

	<-s.Ready()
	assert.Equal(t, entity.SessionFailed, s.State())
	assert.ErrorContains(t, s.Err(), "starting language server \"toit\"")

	r := <-replies
	assert.ErrorContains(t, r.err, "starting language server")

	assert.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, entity.SessionStopped, s.State())
}

func TestInitializeFailure(t *testing.T) {
	f := &fakeServer{failInitialize: true}
	s := newTestGateway(f.spawn).Launch(context.Background(), testOptions())

	<-s.Ready()
	assert.Equal(t, entity.SessionFailed, s.State())
	assert.ErrorContains(t, s.Err(), "broken")

	assert.NoError(t, s.Stop(context.Background()))
	assert.True(t, f.child.killed.Load())
	assert.NotContains(t, f.received(), protocol.MethodShutdown)
}

func TestStopWhileStarting(t *testing.T) {
	f := &fakeServer{blockInitialize: make(chan struct{})}
	defer close(f.blockInitialize)
	s := newTestGateway(f.spawn).Launch(context.Background(), testOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.Equal(t, entity.SessionStopped, s.State())
	assert.True(t, f.child.killed.Load())
}

func TestStopKillsUnresponsiveServer(t *testing.T) {
	f := &fakeServer{ignoreExit: true}
	s := newTestGateway(f.spawn).Launch(context.Background(), testOptions())
	<-s.Ready()

	assert.NoError(t, s.Stop(context.Background()))
	assert.True(t, f.child.killed.Load())
	assert.Contains(t, f.received(), protocol.MethodExit)
}

func TestSupportsDebugTee(t *testing.T) {
	assert.True(t, (&gateway{goos: "linux"}).SupportsDebugTee())
	assert.False(t, (&gateway{goos: "darwin"}).SupportsDebugTee())
	assert.False(t, (&gateway{goos: "windows"}).SupportsDebugTee())
}

func TestDebugTee(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockFS(ctrl)
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)

	logFile, err := os.CreateTemp(t.TempDir(), "debug")
	require.NoError(t, err)
	fsMock.EXPECT().MkdirAll(gomock.Any()).Return(nil)
	fsMock.EXPECT().TempFile(gomock.Any(), "").Return(logFile, nil)
	infoFile.EXPECT().UpdateField("output:"+_debugOutputName, logFile.Name()).Return(nil)

	f := &fakeServer{}
	g := newTestGateway(f.spawn)
	g.outputParams.FS = fsMock
	g.outputParams.ServerInfoFile = infoFile

	opts := testOptions()
	opts.DebugClientToServer = true
	s := g.Launch(context.Background(), opts)
	<-s.Ready()
	require.NoError(t, s.Stop(context.Background()))

	data, err := os.ReadFile(logFile.Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method":"initialize"`)
	assert.Contains(t, string(data), `"method":"shutdown"`)
}

func TestDebugTeeIgnoredOffLinux(t *testing.T) {
	f := &fakeServer{}
	g := newTestGateway(f.spawn)
	g.goos = "darwin"

	opts := testOptions()
	opts.DebugClientToServer = true
	s := g.Launch(context.Background(), opts)
	<-s.Ready()
	assert.NoError(t, s.Stop(context.Background()))
}

func TestQueue(t *testing.T) {
	q := newQueue()
	for _, method := range []string{"a", "b", "c"} {
		assert.True(t, q.push(&message{method: method}))
	}

	m, ok := q.pop(context.Background())
	require.True(t, ok)
	assert.Equal(t, "a", m.method)

	rest := q.close()
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].method)
	assert.False(t, q.push(&message{method: "d"}))

	_, ok = q.pop(context.Background())
	assert.False(t, ok)
}

func TestQueuePopHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := newQueue().pop(ctx)
	assert.False(t, ok)
}

// TestLaunchProcess starts this test binary as a language server.
func TestLaunchProcess(t *testing.T) {
	t.Setenv(_envFakeServer, "1")
	dir := t.TempDir()

	g := New(Params{
		Logger: zap.NewNop().Sugar(),
		Executor: executor.NewExecutor(executor.WithApplication(executor.ApplicationConfig{
			Name:    "Toit-tlsp",
			Version: "test",
		})),
	})

	opts := testOptions()
	opts.Command = entity.LSPCommand{os.Args[0], "-test.run=^$"}
	opts.WorkingDir = dir
	opts.InitializeParams = &protocol.InitializeParams{ProcessID: int32(os.Getpid()), RootURI: uri.File(dir)}
	s := g.Launch(context.Background(), opts)

	replies := make(chan replyResult, 1)
	s.Request(context.Background(), protocol.MethodTextDocumentHover, &protocol.HoverParams{}, replier(replies))
	<-s.Ready()
	require.Equal(t, entity.SessionReady, s.State(), "start error: %v", s.Err())

	r := <-replies
	require.NoError(t, r.err)
	var got struct {
		Dir    string `json:"dir"`
		Marker string `json:"marker"`
	}
	require.NoError(t, json.Unmarshal(r.result.(json.RawMessage), &got))
	wantDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(got.Dir)
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
	assert.Equal(t, "Toit-tlsp/test", got.Marker)

	assert.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, entity.SessionStopped, s.State())
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }

// runFakeServer serves a minimal language server over the standard streams.
func runFakeServer() {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(stdio{}))
	conn.Go(context.Background(), func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodInitialize:
			return reply(ctx, &protocol.InitializeResult{ServerInfo: &protocol.ServerInfo{Name: "fake"}}, nil)
		case protocol.MethodTextDocumentHover:
			dir, _ := os.Getwd()
			return reply(ctx, map[string]string{
				"dir":    dir,
				"marker": os.Getenv(executor.EnvExternalApplication),
			}, nil)
		case protocol.MethodExit:
			os.Exit(0)
		}
		return reply(ctx, nil, nil)
	})
	<-conn.Done()
	os.Exit(0)
}

func TestMain(m *testing.M) {
	if os.Getenv(_envFakeServer) == "1" {
		runFakeServer()
	}
	goleak.VerifyTestMain(m)
}
