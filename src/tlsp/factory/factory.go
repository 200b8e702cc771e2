package factory

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification is a user-defined factory for a JSON-RPC notification.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	n, _ := jsonrpc2.NewNotification(method, params)
	return n
}

// WorkspaceFolder returns a workspace folder for a local path.
func WorkspaceFolder(path string) protocol.WorkspaceFolder {
	u := uri.File(path)
	return protocol.WorkspaceFolder{URI: string(u), Name: u.Filename()}
}

// ToitDocument returns a Toit text document at the given local path.
func ToitDocument(path string) protocol.TextDocumentItem {
	return protocol.TextDocumentItem{
		URI:        uri.File(path),
		LanguageID: "toit",
		Version:    1,
		Text:       "main:\n  print \"hello\"\n",
	}
}
