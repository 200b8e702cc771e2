package entity

import (
	"context"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// SessionKey identifies a language server session.
// File sessions use the normalized working directory.
type SessionKey string

// NonFileSessionKey is the key of the shared session for documents without a file scheme.
const NonFileSessionKey SessionKey = "<non-file>"

// WatchPattern is a glob relative to Base.
type WatchPattern struct {
	Base string `json:"base"`
	Glob string `json:"glob"`
}

// Recursive reports whether the pattern reaches below the first directory level.
func (p WatchPattern) Recursive() bool {
	return p.Glob == GlobRecursive
}

const (
	// GlobRecursive matches every file under the base.
	GlobRecursive = "**/*"
	// GlobOneLevel matches files directly inside the base.
	GlobOneLevel = "*"
)

// ClientConfiguration describes the language server session a document belongs to.
type ClientConfiguration struct {
	WorkingDir      string                    `json:"workingDir,omitempty"`
	WorkspaceFolder *protocol.WorkspaceFolder `json:"workspaceFolder,omitempty"`
	Scheme          string                    `json:"scheme"`
	Pattern         *WatchPattern             `json:"pattern,omitempty"`
}

// Key returns the session key for this configuration.
func (c ClientConfiguration) Key() SessionKey {
	if c.Scheme != FileScheme {
		return NonFileSessionKey
	}
	return SessionKey(c.WorkingDir)
}

// SessionState is the lifecycle state of a language server session.
type SessionState int

const (
	SessionStarting SessionState = iota
	SessionReady
	SessionStopped
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionStarting:
		return "starting"
	case SessionReady:
		return "ready"
	case SessionStopped:
		return "stopped"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ServerHandle is a language server owned by a Session.
// Work submitted to a handle is executed in submission order once the server is ready.
type ServerHandle interface {
	State() SessionState
	// Ready is closed once the server has answered initialize or failed to start.
	Ready() <-chan struct{}
	// Err returns the start failure, if any.
	Err() error
	Notify(ctx context.Context, method string, params interface{})
	Request(ctx context.Context, method string, params interface{}, reply jsonrpc2.Replier)
	Stop(ctx context.Context) error
}

// Session is a language server shared by every open document with the same key.
type Session struct {
	Key      SessionKey          `json:"key" zap:"key"`
	Config   ClientConfiguration `json:"config" zap:"config"`
	RefCount int                 `json:"refCount" zap:"refCount"`
	Server   ServerHandle        `json:"-" zap:"-"`
}
