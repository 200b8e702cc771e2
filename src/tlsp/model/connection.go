package model

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

// Connection is the repository layer model for a single editor connection.
type Connection struct {
	UUID                uuid.UUID
	InitializeParams    *protocol.InitializeParams
	ToitPath            string
	LSPCommandSetting   []string
	JagPath             string
	DebugClientToServer bool
	CLI                 string
	LSPCommand          []string
	Jag                 string
	WorkspaceFolders    []protocol.WorkspaceFolder
}
