package handler

import (
	"fmt"

	"github.com/toitware/tlsp/src/tlsp/internal/serverinfofile"
	"go.uber.org/config"
)

const (
	_configKeyJSONRPC = "jsonrpc"
	_infoFileKeyMode  = "jsonrpc-mode"
)

type jsonRPCConfig struct {
	Mode string `yaml:"mode"`
}

// Output the transport the daemon serves editors on.
// The tcp address itself is added by the JSON-RPC module once it is listening.
func outputConnectionInfo(cfg config.Provider, infofile serverinfofile.ServerInfoFile) error {
	var c jsonRPCConfig
	if err := cfg.Get(_configKeyJSONRPC).Populate(&c); err != nil {
		return fmt.Errorf("loading jsonrpc config: %v", err)
	}
	if c.Mode == "" {
		return fmt.Errorf("type error or missing field for key %q", _configKeyJSONRPC+".mode")
	}

	if err := infofile.UpdateField(_infoFileKeyMode, c.Mode); err != nil {
		return fmt.Errorf("outputting %q to info file: %w", _infoFileKeyMode, err)
	}
	return nil
}
