// Package entity contains the domain types for the tlsp daemon.
package entity

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

type keyType string

// ConnectionContextKey identifies the editor connection UUID in the context.
const ConnectionContextKey keyType = "ConnectionUUID"

// ToitLanguageID is the only language whose documents are routed to a language server.
const ToitLanguageID protocol.LanguageIdentifier = "toit"

// FileScheme is the URI scheme of documents backed by the local file system.
const FileScheme = "file"

// SemanticTokensLegend is advertised to editors on behalf of every language server.
// Servers encode tokens as indexes into their own legend, so this has to match the one of the toit language server.
var SemanticTokensLegend = protocol.SemanticTokensLegend{
	TokenTypes: []protocol.SemanticTokenTypes{
		protocol.SemanticTokenNamespace,
		protocol.SemanticTokenClass,
		protocol.SemanticTokenInterface,
		protocol.SemanticTokenParameter,
		protocol.SemanticTokenVariable,
	},
	TokenModifiers: []protocol.SemanticTokenModifiers{
		protocol.SemanticTokenModifierDefinition,
		protocol.SemanticTokenModifierReadonly,
		protocol.SemanticTokenModifierStatic,
		protocol.SemanticTokenModifierAbstract,
		protocol.SemanticTokenModifierDefaultLibrary,
	},
}

// Tool names as probed on the search path.
const (
	ToolToit    = "toit"
	ToolJag     = "jag"
	ToolToitLSP = "toit.lsp"
)

// Connection is a single editor connected to the daemon.
type Connection struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	InitializeParams *protocol.InitializeParams `json:"-" zap:"-"`
	Settings         Settings                   `json:"settings" zap:"settings"`
	Executables      ResolvedExecutables        `json:"executables" zap:"executables"`
	WorkspaceFolders []protocol.WorkspaceFolder `json:"workspaceFolders" zap:"workspaceFolders"`
}

// Settings are the user facing configuration values consumed by the resolver.
// An empty string or nil slice means the value is unset.
type Settings struct {
	ToitPath            string   `json:"toitPath" yaml:"toitPath"`
	LSPCommand          []string `json:"lspCommand" yaml:"lspCommand"`
	JagPath             string   `json:"jagPath" yaml:"jagPath"`
	DebugClientToServer bool     `json:"debugClientToServer" yaml:"debugClientToServer"`
}

// HasExplicitExecutables reports whether any executable was configured by the user.
func (s Settings) HasExplicitExecutables() bool {
	return s.ToitPath != "" || len(s.LSPCommand) > 0 || s.JagPath != ""
}

// ExecutableCandidate is the outcome of probing a single tool.
type ExecutableCandidate struct {
	Tool    string
	Path    string
	Version string
	Err     error
}

// Usable reports whether the candidate resolved without error.
func (c ExecutableCandidate) Usable() bool {
	return c.Path != "" && c.Err == nil
}

// LSPCommand is a program followed by its arguments.
type LSPCommand []string

// Program returns the executable of the command.
func (c LSPCommand) Program() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Args returns the arguments of the command.
func (c LSPCommand) Args() []string {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// ResolvedExecutables is the immutable result of executable resolution.
// Unresolved tools are left empty.
type ResolvedExecutables struct {
	CLI        string     `json:"cli"`
	LSPCommand LSPCommand `json:"lspCommand"`
	Jag        string     `json:"jag"`
}

// ProbeResult is the outcome of running an executable once.
type ProbeResult struct {
	// ExecutableExists is false only if the OS could not find the executable.
	ExecutableExists bool
	Err              error
	// Output is the trimmed standard output, only set when Err is nil.
	Output string
}

// Device is a Jaguar device found by a scan.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	WordSize int    `json:"wordSize"`
}

// ConsoleDevice is a device registered with the Toit console, as listed by the toit CLI.
type ConsoleDevice struct {
	ID                string `json:"device_id"`
	Name              string `json:"name"`
	IsSimulator       bool   `json:"is_simulator"`
	ConfigureFirmware string `json:"configure_firmware,omitempty"`
	RunningFirmware   string `json:"running_firmware,omitempty"`
	LastSeen          string `json:"last_seen,omitempty"`
}

// Package is a resolved package dependency of a Toit project.
type Package struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version"`
}
