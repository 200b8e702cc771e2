package mapper

import (
	stderr "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitware/tlsp/src/tlsp/factory"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"go.lsp.dev/jsonrpc2"
)

func TestErrorToWireError(t *testing.T) {
	id := factory.UUID()
	plain := stderr.New("sample")
	wire := jsonrpc2.NewError(jsonrpc2.InvalidParams, "already on the wire")

	tests := []struct {
		name     string
		err      error
		wantCode jsonrpc2.Code
		wantSame bool
	}{
		{
			name:     "plain error is unchanged",
			err:      plain,
			wantSame: true,
		},
		{
			name:     "wire error is unchanged",
			err:      wire,
			wantSame: true,
		},
		{
			name:     "missing connection in context",
			err:      fmt.Errorf("handling request: %w", errors.ErrNoConnectionInContext),
			wantCode: jsonrpc2.InvalidRequest,
		},
		{
			name:     "unknown connection",
			err:      &errors.UUIDNotFoundError{UUID: id},
			wantCode: jsonrpc2.ServerNotInitialized,
		},
		{
			name:     "invalid setting",
			err:      &errors.ConfigurationError{Setting: "toit.path", Expected: "a string"},
			wantCode: jsonrpc2.InvalidParams,
		},
		{
			name:     "missing executable",
			err:      &errors.NotFoundError{Tool: "toit", Path: "/bad/path", Configured: true},
			wantCode: jsonrpc2.InternalError,
		},
		{
			name:     "old executable",
			err:      &errors.VersionTooOldError{Tool: "toit", Version: "1.7.0", Minimum: "1.8.0"},
			wantCode: jsonrpc2.InternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorToWireError(tt.err)
			if tt.wantSame {
				assert.Equal(t, tt.err, got)
				return
			}

			var wireErr *jsonrpc2.Error
			require.True(t, stderr.As(got, &wireErr))
			assert.Equal(t, tt.wantCode, wireErr.Code)
		})
	}

	assert.NoError(t, ErrorToWireError(nil))
}
