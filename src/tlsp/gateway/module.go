package gateway

import (
	ideclient "github.com/toitware/tlsp/src/tlsp/gateway/ide-client"
	lspserver "github.com/toitware/tlsp/src/tlsp/gateway/lsp-server"
	"go.uber.org/fx"
)

// Module provides the outbound gateways: the editors and the Toit language servers.
var Module = fx.Options(
	fx.Provide(ideclient.New),
	lspserver.Module,
)
