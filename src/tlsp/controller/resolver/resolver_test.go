package resolver

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/gateway/ide-client/ideclientmock"
	"github.com/toitware/tlsp/src/tlsp/internal/executor/executormock"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const _testConfig = `
minimumToitVersion: 1.8.0
links:
  install: https://example.com/install
  settings: https://example.com/settings
`

func newProvider(t *testing.T, yaml string) config.Provider {
	provider, err := config.NewYAML(config.Source(strings.NewReader(yaml)))
	require.NoError(t, err)
	return provider
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
		wantMin string
	}{
		{
			name:    "configured minimum",
			config:  _testConfig,
			wantMin: "1.8.0",
		},
		{
			name:    "default minimum",
			config:  "links: {}",
			wantMin: _defaultMinimumVersion,
		},
		{
			name:    "invalid minimum",
			config:  "minimumToitVersion: latest",
			wantErr: "invalid \"minimumToitVersion\"",
		},
		{
			name:    "invalid links",
			config:  "links: [a, b]",
			wantErr: "getting config field \"links\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Params{Config: newProvider(t, tt.config), Logger: zap.NewNop().Sugar()})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, c.(*controller).minimumVersion)
		})
	}
}

var (
	notFound = entity.ProbeResult{ExecutableExists: false, Err: exec.ErrNotFound}
	failed   = entity.ProbeResult{ExecutableExists: true, Err: errors.New("exit status 1")}
)

func found(output string) entity.ProbeResult {
	return entity.ProbeResult{ExecutableExists: true, Output: output}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		raw       map[string]interface{}
		lookPath  func(string) (string, error)
		mockSetup func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway)
		want      entity.ResolvedExecutables
	}{
		{
			name: "toit on search path",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("v1.9.0"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
			},
			want: entity.ResolvedExecutables{
				CLI:        "toit",
				LSPCommand: entity.LSPCommand{"toit", "tool", "lsp"},
			},
		},
		{
			name: "configured path does not exist",
			raw:  map[string]interface{}{"toit": map[string]interface{}{"path": "/bad/path"}},
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "/bad/path", "version", "-o", "short").Return(notFound)
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeError, "Could not find executable at '/bad/path'", ActionOpenSettings).
					Return(entity.Cancelled[string]())
			},
			want: entity.ResolvedExecutables{},
		},
		{
			name: "configured path fails",
			raw:  map[string]interface{}{"toit.path": "/opt/toit/bin/toit"},
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "/opt/toit/bin/toit", "version", "-o", "short").Return(failed)
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeError, "Executable at '/opt/toit/bin/toit' failed: exit status 1", ActionOpenSettings).
					Return(entity.Ok(ActionOpenSettings))
				prompter.EXPECT().OpenExternal(gomock.Any(), "https://example.com/settings").Return(nil)
			},
			want: entity.ResolvedExecutables{},
		},
		{
			name: "version too old keeps configured language server",
			raw: map[string]interface{}{
				"toitLanguageServer": map[string]interface{}{"command": []interface{}{"my-lsp", "--stdio"}},
			},
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("1.7.2"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeWarning, "toit version 1.7.2 is too old; version 1.8.0 or newer is required", ActionUpdate).
					Return(entity.Ok(ActionUpdate))
				e.EXPECT().Probe(gomock.Any(), "toit", "update").Return(found(""))
			},
			want: entity.ResolvedExecutables{
				LSPCommand: entity.LSPCommand{"my-lsp", "--stdio"},
			},
		},
		{
			name: "version too old keeps cli language server",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("v1.7.0"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeWarning, gomock.Any(), ActionUpdate).
					Return(entity.Cancelled[string]())
			},
			want: entity.ResolvedExecutables{
				LSPCommand: entity.LSPCommand{"toit", "tool", "lsp"},
			},
		},
		{
			name: "failed update is reported",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("v1.7.0"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeWarning, gomock.Any(), ActionUpdate).
					Return(entity.Ok(ActionUpdate))
				e.EXPECT().Probe(gomock.Any(), "toit", "update").Return(failed)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeError, "Executable at 'toit' failed: exit status 1").
					Return(entity.Cancelled[string]())
			},
			want: entity.ResolvedExecutables{
				LSPCommand: entity.LSPCommand{"toit", "tool", "lsp"},
			},
		},
		{
			name: "jag mediates the language server",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("v2.0.0-alpha.120"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").
					Return(found("Version:\t v1.20.0\nSDK version:\t v2.0.0-alpha.120"))
				e.EXPECT().Probe(gomock.Any(), "jag", "setup", "--check").Return(found(""))
			},
			want: entity.ResolvedExecutables{
				CLI:        "toit",
				Jag:        "jag",
				LSPCommand: entity.LSPCommand{"jag", "toit", "lsp", "--"},
			},
		},
		{
			name: "old jag without analytics flag runs setup",
			raw:  map[string]interface{}{"jag": map[string]interface{}{"path": "/home/me/jag"}},
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(notFound)
				gomock.InOrder(
					e.EXPECT().Probe(gomock.Any(), "/home/me/jag", "version", "--no-analytics").Return(failed),
					e.EXPECT().Probe(gomock.Any(), "/home/me/jag", "version").Return(found("Version:\t v1.4.0")),
					e.EXPECT().Probe(gomock.Any(), "/home/me/jag", "setup", "--check").Return(failed),
					prompter.EXPECT().
						Prompt(gomock.Any(), protocol.MessageTypeWarning, _messageJagSetup, ActionRunJagSetup).
						Return(entity.Ok(ActionRunJagSetup)),
					e.EXPECT().Probe(gomock.Any(), "/home/me/jag", "setup").Return(found("")),
					e.EXPECT().Probe(gomock.Any(), "/home/me/jag", "setup", "--check").Return(found("")),
				)
			},
			want: entity.ResolvedExecutables{
				Jag:        "/home/me/jag",
				LSPCommand: entity.LSPCommand{"/home/me/jag", "toit", "lsp", "--"},
			},
		},
		{
			name: "declined jag setup falls back to cli",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("1.9.0"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(found("Version: v1.20.0"))
				e.EXPECT().Probe(gomock.Any(), "jag", "setup", "--check").Return(failed)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeWarning, _messageJagSetup, ActionRunJagSetup).
					Return(entity.Cancelled[string]())
			},
			want: entity.ResolvedExecutables{
				CLI:        "toit",
				LSPCommand: entity.LSPCommand{"toit", "tool", "lsp"},
			},
		},
		{
			name: "unparseable version",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(found("development build"))
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeError, gomock.Any(), ActionInstall).
					DoAndReturn(func(_ context.Context, _ protocol.MessageType, message string, _ ...string) entity.Result[string] {
						assert.Contains(t, message, "unexpected version output")
						return entity.Cancelled[string]()
					})
			},
			lookPath: func(file string) (string, error) {
				assert.Equal(t, entity.ToolToitLSP, file)
				return "/usr/local/bin/toit.lsp", nil
			},
			want: entity.ResolvedExecutables{
				LSPCommand: entity.LSPCommand{"/usr/local/bin/toit.lsp"},
			},
		},
		{
			name: "nothing found",
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				e.EXPECT().Probe(gomock.Any(), "toit", "version", "-o", "short").Return(notFound)
				e.EXPECT().Probe(gomock.Any(), "jag", "version", "--no-analytics").Return(notFound)
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeError, _messageNothingFound, ActionInstall).
					Return(entity.Ok(ActionInstall))
				prompter.EXPECT().OpenExternal(gomock.Any(), "https://example.com/install").Return(errors.New("no client"))
			},
			want: entity.ResolvedExecutables{},
		},
		{
			name: "configuration error aborts resolution",
			raw:  map[string]interface{}{"toit": map[string]interface{}{"path": 5}},
			mockSetup: func(e *executormock.MockExecutor, prompter *ideclientmock.MockGateway) {
				prompter.EXPECT().
					Prompt(gomock.Any(), protocol.MessageTypeError, "Invalid setting 'toit.path': expected a string", ActionOpenSettings).
					Return(entity.Ok(ActionOpenSettings))
				prompter.EXPECT().OpenExternal(gomock.Any(), "https://example.com/settings").Return(nil)
			},
			want: entity.ResolvedExecutables{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			executorMock := executormock.NewMockExecutor(ctrl)
			prompterMock := ideclientmock.NewMockGateway(ctrl)
			tt.mockSetup(executorMock, prompterMock)

			c, err := New(Params{
				Config:   newProvider(t, _testConfig),
				Logger:   zap.NewNop().Sugar(),
				Executor: executorMock,
			})
			require.NoError(t, err)

			lookPath := tt.lookPath
			if lookPath == nil {
				lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
			}
			c.(*controller).lookPath = lookPath

			raw := tt.raw
			if raw == nil {
				raw = map[string]interface{}{}
			}
			got := c.Resolve(context.Background(), raw, prompterMock)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToCandidate(t *testing.T) {
	c := toCandidate(entity.ToolToit, "toit", false, found("v1.9.0\n"))
	assert.True(t, c.Usable())
	assert.Equal(t, "v1.9.0", c.Version)

	c = toCandidate(entity.ToolToit, "/x/toit", true, notFound)
	assert.False(t, c.Usable())
	assert.EqualError(t, c.Err, "Could not find executable at '/x/toit'")

	c = toCandidate(entity.ToolJag, "jag", false, notFound)
	assert.EqualError(t, c.Err, "Could not find 'jag' on the search path")

	c = toCandidate(entity.ToolToit, "toit", false, found(""))
	assert.False(t, c.Usable())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
