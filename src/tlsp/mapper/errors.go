package mapper

import (
	stderr "errors"

	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"go.lsp.dev/jsonrpc2"
)

// ErrorToWireError translates service domain errors into JSON-RPC errors carrying a matching code.
// Errors that already are wire errors, and errors without a domain meaning, are returned unchanged.
func ErrorToWireError(e error) error {
	if e == nil {
		return nil
	}

	var wire *jsonrpc2.Error
	if stderr.As(e, &wire) {
		return e
	}

	if errors.IsBadRequest(e) {
		return jsonrpc2.NewError(jsonrpc2.InvalidRequest, e.Error())
	}

	if id, ok := errors.NotFoundUUID(e); ok {
		// The connection was never initialized, or has already ended.
		return jsonrpc2.Errorf(jsonrpc2.ServerNotInitialized, "connection %s is not initialized", id)
	}

	if _, ok := errors.ConfigurationSetting(e); ok {
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, e.Error())
	}

	if errors.IsNotFound(e) || errors.IsVersionTooOld(e) {
		return jsonrpc2.NewError(jsonrpc2.InternalError, e.Error())
	}

	return e
}
