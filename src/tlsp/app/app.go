package app

import (
	"context"
	"time"

	"github.com/toitware/tlsp/src/tlsp/gateway"
	"github.com/toitware/tlsp/src/tlsp/handler"
	"github.com/toitware/tlsp/src/tlsp/internal/clock"
	"github.com/toitware/tlsp/src/tlsp/internal/core"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"github.com/toitware/tlsp/src/tlsp/internal/filewatch"
	"github.com/toitware/tlsp/src/tlsp/internal/fs"
	"github.com/toitware/tlsp/src/tlsp/internal/jsonrpcfx"
	"github.com/toitware/tlsp/src/tlsp/internal/serverinfofile"
	workspaceutils "github.com/toitware/tlsp/src/tlsp/internal/workspace-utils"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
)

// Module defines the toit-daemon application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	executor.Module,
	filewatch.Module,
	serverinfofile.Module,
	workspaceutils.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(clock.New),
	fx.Provide(newRootScope),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)

func newRootScope(lc fx.Lifecycle) tally.Scope {
	rs, closer := tally.NewRootScope(tally.ScopeOptions{
		Tags: map[string]string{
			"service": "toit-daemon",
		},
	}, 1*time.Second)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return rs
}
