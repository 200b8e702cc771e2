package controller

import (
	"github.com/toitware/tlsp/src/tlsp/controller/jag"
	lspsessions "github.com/toitware/tlsp/src/tlsp/controller/lsp-sessions"
	"github.com/toitware/tlsp/src/tlsp/controller/packages"
	"github.com/toitware/tlsp/src/tlsp/controller/resolver"
	toitcli "github.com/toitware/tlsp/src/tlsp/controller/toit-cli"
	toitdaemon "github.com/toitware/tlsp/src/tlsp/controller/toit-daemon"
	"go.uber.org/fx"
)

var Module = fx.Options(
	toitdaemon.Module,
	resolver.Module,
	lspsessions.Module,
	jag.Module,
	packages.Module,
	toitcli.Module,
)
