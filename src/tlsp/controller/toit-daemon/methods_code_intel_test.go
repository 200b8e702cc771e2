package toitdaemon

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/factory"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/mock/gomock"
)

// recordingServer records the requests it receives and answers them immediately.
type recordingServer struct {
	entity.ServerHandle

	methods []string
	params  []interface{}
	result  interface{}
}

func (s *recordingServer) Request(ctx context.Context, method string, params interface{}, reply jsonrpc2.Replier) {
	s.methods = append(s.methods, method)
	s.params = append(s.params, params)
	reply(ctx, s.result, nil)
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

func TestForward(t *testing.T) {
	docURI := factory.ToitDocument("/work/proj/main.toit").URI
	params := json.RawMessage(`{"textDocument":{"uri":"file:///work/proj/main.toit"},"position":{"line":1,"character":2}}`)

	t.Run("no connection", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)

		replies := make(chan replyResult, 1)
		require.NoError(t, c.Forward(env.ctx, docURI, protocol.MethodTextDocumentHover, params, replier(replies)))
		assert.Error(t, (<-replies).err)
	})

	t.Run("no session", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		env.withManager(c)
		env.manager.EXPECT().Server(gomock.Any(), docURI).Return(nil, false)

		replies := make(chan replyResult, 1)
		require.NoError(t, c.Forward(env.ctx, docURI, protocol.MethodTextDocumentHover, params, replier(replies)))
		r := <-replies
		assert.NoError(t, r.err)
		assert.Nil(t, r.result)
	})

	t.Run("forwarded to session", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		env.withManager(c)

		server := &recordingServer{result: json.RawMessage(`{"contents":"main"}`)}
		env.manager.EXPECT().Server(gomock.Any(), docURI).Return(server, true)

		replies := make(chan replyResult, 1)
		require.NoError(t, c.Forward(env.ctx, docURI, protocol.MethodTextDocumentHover, params, replier(replies)))
		r := <-replies
		assert.NoError(t, r.err)
		assert.Equal(t, json.RawMessage(`{"contents":"main"}`), r.result)
		assert.Equal(t, []string{protocol.MethodTextDocumentHover}, server.methods)
		assert.Equal(t, []interface{}{params}, server.params)
	})
}

func TestEditorHandler(t *testing.T) {
	t.Run("diagnostics", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		params := &protocol.PublishDiagnosticsParams{
			URI:         "file:///work/proj/main.toit",
			Diagnostics: []protocol.Diagnostic{{Message: "unresolved identifier: 'prnt'", Severity: protocol.DiagnosticSeverityError}},
		}
		env.ide.EXPECT().PublishDiagnostics(gomock.Any(), params).Return(nil)

		require.NoError(t, handler(context.Background(), replier(nil), factory.JSONRPCNotification(protocol.MethodTextDocumentPublishDiagnostics, params)))
	})

	t.Run("progress", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		env.ide.EXPECT().Progress(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *protocol.ProgressParams) error {
			assert.Equal(t, "analyzing", p.Token.String())
			return nil
		})

		req := factory.JSONRPCNotification(protocol.MethodProgress, &protocol.ProgressParams{
			Token: *protocol.NewProgressToken("analyzing"),
			Value: &protocol.WorkDoneProgressEnd{Kind: protocol.WorkDoneProgressKindEnd},
		})
		require.NoError(t, handler(context.Background(), replier(nil), req))
	})

	t.Run("other notification", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		req := factory.JSONRPCNotification(protocol.MethodWindowShowMessage, &protocol.ShowMessageParams{Message: "hi"})
		env.ide.EXPECT().Notify(gomock.Any(), protocol.MethodWindowShowMessage, req.Params()).Return(nil)

		require.NoError(t, handler(context.Background(), replier(nil), req))
	})

	t.Run("failed notification is dropped", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		req := factory.JSONRPCNotification(protocol.MethodWindowLogMessage, &protocol.LogMessageParams{Message: "hi"})
		env.ide.EXPECT().LogMessage(gomock.Any(), &protocol.LogMessageParams{Message: "hi"}).Return(assert.AnError)

		require.NoError(t, handler(context.Background(), replier(nil), req))
	})

	t.Run("malformed notification is dropped", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		req := factory.JSONRPCNotification(protocol.MethodWindowLogMessage, []string{"not", "an", "object"})
		require.NoError(t, handler(context.Background(), replier(nil), req))
	})

	t.Run("progress create", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		env.ide.EXPECT().WorkDoneProgressCreate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *protocol.WorkDoneProgressCreateParams) error {
			assert.Equal(t, "analyzing", p.Token.String())
			return nil
		})

		replies := make(chan replyResult, 1)
		req := factory.JSONRPCRequest(protocol.MethodWorkDoneProgressCreate, &protocol.WorkDoneProgressCreateParams{Token: *protocol.NewProgressToken("analyzing")})
		require.NoError(t, handler(context.Background(), replier(replies), req))

		select {
		case r := <-replies:
			assert.NoError(t, r.err)
			assert.Nil(t, r.result)
		case <-time.After(5 * time.Second):
			t.Fatal("no reply")
		}
	})

	t.Run("request", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.controller(t)
		handler := c.editorHandler(env.ctx)

		req := factory.JSONRPCRequest(protocol.MethodWorkspaceConfiguration, &protocol.ConfigurationParams{
			Items: []protocol.ConfigurationItem{{Section: "toitLanguageServer"}},
		})
		env.ide.EXPECT().Call(gomock.Any(), protocol.MethodWorkspaceConfiguration, req.Params()).DoAndReturn(
			func(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
				// Routed to the editor of the connection, not the language server's context.
				id, err := mapper.ContextToConnectionUUID(ctx)
				assert.NoError(t, err)
				assert.Equal(t, env.id, id)
				return json.RawMessage(`[{"debug":false}]`), nil
			})

		replies := make(chan replyResult, 1)
		require.NoError(t, handler(context.Background(), replier(replies), req))

		select {
		case r := <-replies:
			assert.NoError(t, r.err)
			assert.Equal(t, json.RawMessage(`[{"debug":false}]`), r.result)
		case <-time.After(5 * time.Second):
			t.Fatal("no reply")
		}
	})
}
