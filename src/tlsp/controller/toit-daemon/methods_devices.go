package toitdaemon

import (
	"context"
	"fmt"
	"strings"

	toitcli "github.com/toitware/tlsp/src/tlsp/controller/toit-cli"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// executeDeviceCommand runs the toit CLI commands that manage console devices and simulators.
func (c *controller) executeDeviceCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	toit, err := c.cliExecutable(ctx)
	if err != nil {
		return nil, err
	}

	switch params.Command {
	case CommandDevices:
		return c.toitCLI.Devices(ctx, toit, false)

	case CommandDevRun, CommandDevDeploy:
		return c.devCommand(ctx, toit, params)

	case CommandUninstallApp:
		deviceID, app := stringArgument(params, 0), stringArgument(params, 1)
		if deviceID == "" || app == "" {
			return nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "command %q requires a device id and an app name", params.Command)
		}
		output, err := c.ideGateway.GetLogMessageWriter(ctx, entity.ToolToit)
		if err != nil {
			return nil, err
		}
		return nil, c.toitCLI.UninstallApp(ctx, toit, deviceID, app, output)

	case CommandStartSimulator:
		output, err := c.ideGateway.GetLogMessageWriter(ctx, entity.ToolToit)
		if err != nil {
			return nil, err
		}
		return nil, c.toitCLI.StartSimulator(ctx, toit, stringArgument(params, 0), output)

	case CommandStopSimulator:
		device := c.consoleDevice(ctx, toit, params, 0, toitcli.DeviceFilter{SimulatorOnly: true})
		switch {
		case device.IsCancelled():
			return nil, nil
		case device.IsFailed():
			return nil, device.Reason
		}
		output, err := c.ideGateway.GetLogMessageWriter(ctx, entity.ToolToit)
		if err != nil {
			return nil, err
		}
		if err := c.toitCLI.StopSimulator(ctx, toit, device.Value.ID, output); err != nil {
			return nil, err
		}
		return device.Value, nil
	}
	return nil, fmt.Errorf("%q: %w", params.Command, jsonrpc2.ErrMethodNotFound)
}

// devCommand runs or deploys the file named by the first argument. The optional second argument names the device.
func (c *controller) devCommand(ctx context.Context, toit string, params *protocol.ExecuteCommandParams) (interface{}, error) {
	cfg, err := c.commandDocument(ctx, params)
	if err != nil {
		return nil, err
	}

	suffix, filter, run := ".toit", toitcli.DeviceFilter{ActiveOnly: true}, c.toitCLI.DevRun
	if params.Command == CommandDevDeploy {
		suffix, filter, run = ".yaml", toitcli.DeviceFilter{}, c.toitCLI.DevDeploy
	}
	if !strings.HasSuffix(cfg.file, suffix) {
		return nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "command %q requires a '%s' file, got %q", params.Command, suffix, cfg.file)
	}

	device := c.consoleDevice(ctx, toit, params, 1, filter)
	switch {
	case device.IsCancelled():
		return nil, nil
	case device.IsFailed():
		return nil, device.Reason
	}

	output, err := c.ideGateway.GetLogMessageWriter(ctx, entity.ToolToit)
	if err != nil {
		return nil, err
	}
	if err := run(ctx, toit, device.Value.ID, cfg.file, output); err != nil {
		return nil, err
	}
	return device.Value, nil
}

// consoleDevice uses the device id at argument index i, or asks the user to pick one.
func (c *controller) consoleDevice(ctx context.Context, toit string, params *protocol.ExecuteCommandParams, i int, filter toitcli.DeviceFilter) entity.Result[entity.ConsoleDevice] {
	if id := stringArgument(params, i); id != "" {
		return entity.Ok(entity.ConsoleDevice{ID: id})
	}
	return c.toitCLI.SelectDevice(ctx, toit, filter, c.ideGateway)
}

func (c *controller) cliExecutable(ctx context.Context) (string, error) {
	conn, err := c.connections.GetFromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("getting connection from context: %w", err)
	}
	if conn.Executables.CLI == "" {
		return "", jsonrpc2.NewError(jsonrpc2.InvalidRequest, "the 'toit' executable is not available")
	}
	return conn.Executables.CLI, nil
}

func stringArgument(params *protocol.ExecuteCommandParams, i int) string {
	if i >= len(params.Arguments) {
		return ""
	}
	s, _ := params.Arguments[i].(string)
	return s
}
