package mapper

import (
	"context"
	"slices"

	"github.com/gofrs/uuid"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"github.com/toitware/tlsp/src/tlsp/model"
)

// ConnectionToModel maps a Connection entity to its model equivalent.
func ConnectionToModel(c *entity.Connection) *model.Connection {
	return &model.Connection{
		UUID:                c.UUID,
		InitializeParams:    c.InitializeParams,
		ToitPath:            c.Settings.ToitPath,
		LSPCommandSetting:   slices.Clone(c.Settings.LSPCommand),
		JagPath:             c.Settings.JagPath,
		DebugClientToServer: c.Settings.DebugClientToServer,
		CLI:                 c.Executables.CLI,
		LSPCommand:          slices.Clone([]string(c.Executables.LSPCommand)),
		Jag:                 c.Executables.Jag,
		WorkspaceFolders:    slices.Clone(c.WorkspaceFolders),
	}
}

// ModelToConnection maps a model Connection to its entity equivalent.
func ModelToConnection(m *model.Connection) (*entity.Connection, error) {
	return &entity.Connection{
		UUID:             m.UUID,
		InitializeParams: m.InitializeParams,
		Settings: entity.Settings{
			ToitPath:            m.ToitPath,
			LSPCommand:          slices.Clone(m.LSPCommandSetting),
			JagPath:             m.JagPath,
			DebugClientToServer: m.DebugClientToServer,
		},
		Executables: entity.ResolvedExecutables{
			CLI:        m.CLI,
			LSPCommand: slices.Clone(entity.LSPCommand(m.LSPCommand)),
			Jag:        m.Jag,
		},
		WorkspaceFolders: slices.Clone(m.WorkspaceFolders),
	}, nil
}

// UUIDToConnection initializes a new Connection entity with the assigned uuid.
func UUIDToConnection(u uuid.UUID) *entity.Connection {
	return &entity.Connection{UUID: u}
}

// ContextToConnectionUUID extracts the editor connection UUID from a context.
func ContextToConnectionUUID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(entity.ConnectionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.ErrNoConnectionInContext
	}
	return id, nil
}

// ConnectionUUIDToContext returns a context carrying the editor connection UUID.
func ConnectionUUIDToContext(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, entity.ConnectionContextKey, id)
}
