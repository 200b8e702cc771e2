package handler

import (
	controller "github.com/toitware/tlsp/src/tlsp/controller"
	toitdaemon "github.com/toitware/tlsp/src/tlsp/controller/toit-daemon"
	handler "github.com/toitware/tlsp/src/tlsp/handler/toit-daemon"
	"github.com/toitware/tlsp/src/tlsp/repository/connection"
	"go.uber.org/fx"
)

// Module provides the toit-daemon server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(connection.New),
	fx.Provide(handler.New),
	fx.Invoke(outputConnectionInfo),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m toitdaemon.Controller) {}),
)
