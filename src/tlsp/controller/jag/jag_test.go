package jag

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/gateway/ide-client/ideclientmock"
	"github.com/toitware/tlsp/src/tlsp/internal/executor/executormock"
	"go.lsp.dev/protocol"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const _scanOutput = `{"devices":[
  {"id":"11111111-aaaa","name":"kitchen","address":"http://192.168.1.10:9000","wordSize":4},
  {"id":"22222222-bbbb","name":"garage","address":"http://192.168.1.11:9000","wordSize":4}
]}`

func newController(t *testing.T) (*controller, *executormock.MockExecutor, *ideclientmock.MockGateway) {
	ctrl := gomock.NewController(t)
	executorMock := executormock.NewMockExecutor(ctrl)
	executorMock.EXPECT().Environ().Return([]string{"TOIT_EXTERNAL_APPLICATION=Toit-tlsp/test"}).AnyTimes()
	c := New(Params{Logger: zap.NewNop().Sugar(), Executor: executorMock}).(*controller)
	return c, executorMock, ideclientmock.NewMockGateway(ctrl)
}

func connectionContext(t *testing.T) context.Context {
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return context.WithValue(context.Background(), entity.ConnectionContextKey, id)
}

func expectScan(e *executormock.MockExecutor, stdout string, err error) {
	e.EXPECT().Run(gomock.Any()).DoAndReturn(func(cmd *exec.Cmd) (string, string, int, error) {
		if cmd.Args[1] != "scan" {
			return "", "", 2, errors.New("unexpected command")
		}
		return stdout, "", 0, err
	})
}

func TestScan(t *testing.T) {
	t.Run("devices", func(t *testing.T) {
		c, e, _ := newController(t)
		e.EXPECT().Run(gomock.Any()).DoAndReturn(func(cmd *exec.Cmd) (string, string, int, error) {
			assert.Equal(t, []string{"jag", "scan", "--list", "-o", "json"}, cmd.Args)
			assert.Contains(t, cmd.Env, "TOIT_EXTERNAL_APPLICATION=Toit-tlsp/test")
			return _scanOutput, "", 0, nil
		})

		devices, err := c.Scan(context.Background(), "jag")
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, entity.Device{ID: "11111111-aaaa", Name: "kitchen", Address: "http://192.168.1.10:9000", WordSize: 4}, devices[0])
	})

	t.Run("command fails", func(t *testing.T) {
		c, e, _ := newController(t)
		e.EXPECT().Run(gomock.Any()).Return("", "no network\n", 1, errors.New("exit status 1"))

		_, err := c.Scan(context.Background(), "jag")
		assert.EqualError(t, err, "Executable at 'jag' failed: exit status 1: no network")
	})

	t.Run("bad output", func(t *testing.T) {
		c, e, _ := newController(t)
		expectScan(e, "not json", nil)

		_, err := c.Scan(context.Background(), "jag")
		assert.ErrorContains(t, err, "parsing scan output")
	})
}

func TestSelectDevicePrefersLastPicked(t *testing.T) {
	c, e, prompter := newController(t)
	ctx := connectionContext(t)

	expectScan(e, _scanOutput, nil)
	prompter.EXPECT().
		Prompt(gomock.Any(), protocol.MessageTypeInfo, _messagePickDevice, "kitchen", "garage").
		Return(entity.Ok("garage"))
	res := c.SelectDevice(ctx, "jag", prompter)
	require.True(t, res.IsOK())
	assert.Equal(t, "22222222-bbbb", res.Value.ID)

	expectScan(e, _scanOutput, nil)
	prompter.EXPECT().
		Prompt(gomock.Any(), protocol.MessageTypeInfo, _messagePickDevice, "garage", "kitchen").
		Return(entity.Cancelled[string]())
	res = c.SelectDevice(ctx, "jag", prompter)
	assert.True(t, res.IsCancelled())

	// Other connections keep their own order.
	expectScan(e, _scanOutput, nil)
	prompter.EXPECT().
		Prompt(gomock.Any(), protocol.MessageTypeInfo, _messagePickDevice, "kitchen", "garage").
		Return(entity.Cancelled[string]())
	c.SelectDevice(connectionContext(t), "jag", prompter)

	c.Forget(ctx)
	assert.Empty(t, c.lastDevice)
}

func TestSelectDeviceNoDevices(t *testing.T) {
	c, e, prompter := newController(t)
	expectScan(e, `{"devices":[]}`, nil)
	prompter.EXPECT().Prompt(gomock.Any(), protocol.MessageTypeWarning, _messageNoDevices).Return(entity.Cancelled[string]())

	res := c.SelectDevice(context.Background(), "jag", prompter)
	assert.True(t, res.IsCancelled())
}

func TestSelectDeviceScanFailure(t *testing.T) {
	c, e, prompter := newController(t)
	expectScan(e, "", errors.New("boom"))

	res := c.SelectDevice(context.Background(), "jag", prompter)
	assert.True(t, res.IsFailed())
	assert.ErrorContains(t, res.Reason, "boom")
}

func TestRun(t *testing.T) {
	t.Run("runs on picked device", func(t *testing.T) {
		c, e, prompter := newController(t)
		var out bytes.Buffer

		expectScan(e, _scanOutput, nil)
		prompter.EXPECT().Prompt(gomock.Any(), protocol.MessageTypeInfo, _messagePickDevice, "kitchen", "garage").Return(entity.Ok("kitchen"))
		e.EXPECT().RunCommand(gomock.Any(), gomock.Any()).DoAndReturn(func(cmd *exec.Cmd, env []string) error {
			assert.Equal(t, []string{"jag", "run", "/proj/main.toit", "--device", "11111111-aaaa"}, cmd.Args)
			assert.Equal(t, []string{"TOIT_EXTERNAL_APPLICATION=Toit-tlsp/test"}, env)
			_, err := cmd.Stdout.Write([]byte("Success: Sent 42KB code to 'kitchen'\n"))
			return err
		})

		res := c.Run(connectionContext(t), "jag", "/proj/main.toit", prompter, &out)
		require.True(t, res.IsOK())
		assert.Equal(t, "kitchen", res.Value.Name)
		assert.Contains(t, out.String(), "Sent 42KB")
	})

	t.Run("dismissed picker", func(t *testing.T) {
		c, e, prompter := newController(t)
		expectScan(e, _scanOutput, nil)
		prompter.EXPECT().Prompt(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(entity.Cancelled[string]())

		res := c.Run(context.Background(), "jag", "/proj/main.toit", prompter, &bytes.Buffer{})
		assert.True(t, res.IsCancelled())
	})

	t.Run("run fails", func(t *testing.T) {
		c, e, prompter := newController(t)
		expectScan(e, _scanOutput, nil)
		prompter.EXPECT().Prompt(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(entity.Ok("garage"))
		e.EXPECT().RunCommand(gomock.Any(), gomock.Any()).Return(errors.New("exit status 1"))

		res := c.Run(context.Background(), "jag", "/proj/main.toit", prompter, &bytes.Buffer{})
		assert.True(t, res.IsFailed())
		assert.EqualError(t, res.Reason, "Executable at 'jag' failed: exit status 1")
	})
}

func TestDeviceLabels(t *testing.T) {
	labels := deviceLabels([]entity.Device{
		{ID: "1", Name: "esp"},
		{ID: "2", Name: "esp"},
		{ID: "3", Name: "host"},
		{ID: "4"},
	})
	assert.Equal(t, []string{"esp (1)", "esp (2)", "host", " (4)"}, labels)
}

func TestPreferElement(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{name: "middle", items: []string{"a", "b", "c", "d"}, want: []string{"c", "a", "b", "d"}},
		{name: "first", items: []string{"c", "a"}, want: []string{"c", "a"}},
		{name: "last", items: []string{"a", "b", "c"}, want: []string{"c", "a", "b"}},
		{name: "missing", items: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "empty", items: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			PreferElement(tt.items, func(s string) bool { return s == "c" })
			assert.Equal(t, tt.want, tt.items)
		})
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
