// Package toitcli runs toit CLI device and simulator commands on behalf of the editor.
package toitcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_messagePickDevice    = "Pick a device"
	_messagePickSimulator = "Pick a simulator"
	_messageNoDevices     = "No devices found. Check that you are logged in with 'toit auth login'."
	_messageNoSimulators  = "No simulators are running."
)

// Module provides the toit CLI controller to fx.
var Module = fx.Provide(New)

// DeviceFilter restricts the devices offered by SelectDevice.
type DeviceFilter struct {
	ActiveOnly    bool
	SimulatorOnly bool
}

// Controller runs toit CLI commands.
type Controller interface {
	// Devices lists the devices of the logged in organization.
	Devices(ctx context.Context, toit string, activeOnly bool) ([]entity.ConsoleDevice, error)
	// SelectDevice lets the user pick one of the devices matching filter.
	SelectDevice(ctx context.Context, toit string, filter DeviceFilter, prompter entity.Prompter) entity.Result[entity.ConsoleDevice]
	// DevRun runs a .toit file once on the device.
	DevRun(ctx context.Context, toit string, deviceID string, file string, output io.Writer) error
	// DevDeploy installs the app described by a .yaml file on the device.
	DevDeploy(ctx context.Context, toit string, deviceID string, file string, output io.Writer) error
	// UninstallApp removes an installed app from the device.
	UninstallApp(ctx context.Context, toit string, deviceID string, app string, output io.Writer) error
	// StartSimulator starts a new simulator. An empty alias lets the CLI pick a name.
	StartSimulator(ctx context.Context, toit string, alias string, output io.Writer) error
	// StopSimulator stops a running simulator.
	StopSimulator(ctx context.Context, toit string, deviceID string, output io.Writer) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Logger   *zap.SugaredLogger
	Executor executor.Executor
}

type controller struct {
	logger   *zap.SugaredLogger
	executor executor.Executor
}

// New creates a new toit CLI controller.
func New(p Params) Controller {
	return &controller{
		logger:   p.Logger,
		executor: p.Executor,
	}
}

func (c *controller) Devices(ctx context.Context, toit string, activeOnly bool) ([]entity.ConsoleDevice, error) {
	args := []string{"devices", "-o", "json"}
	if activeOnly {
		args = append(args, "--active")
	}
	cmd := exec.CommandContext(ctx, toit, args...)
	cmd.Env = c.executor.Environ()

	stdout, stderr, _, err := c.executor.Run(cmd)
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &errors.ExecutionError{Tool: entity.ToolToit, Path: toit, Cause: err}
	}

	devices, err := parseDevices(stdout)
	if err != nil {
		return nil, &errors.ExecutionError{Tool: entity.ToolToit, Path: toit, Cause: fmt.Errorf("parsing device list: %w", err)}
	}
	return devices, nil
}

func (c *controller) SelectDevice(ctx context.Context, toit string, filter DeviceFilter, prompter entity.Prompter) entity.Result[entity.ConsoleDevice] {
	all, err := c.Devices(ctx, toit, filter.ActiveOnly)
	if err != nil {
		return entity.Failed[entity.ConsoleDevice](err)
	}

	devices := all[:0:0]
	for _, d := range all {
		if !filter.SimulatorOnly || d.IsSimulator {
			devices = append(devices, d)
		}
	}

	message, empty := _messagePickDevice, _messageNoDevices
	if filter.SimulatorOnly {
		message, empty = _messagePickSimulator, _messageNoSimulators
	}
	if len(devices) == 0 {
		prompter.Prompt(ctx, protocol.MessageTypeWarning, empty)
		return entity.Cancelled[entity.ConsoleDevice]()
	}

	labels := deviceLabels(devices)
	choice := prompter.Prompt(ctx, protocol.MessageTypeInfo, message, labels...)
	if !choice.IsOK() {
		return entity.Result[entity.ConsoleDevice]{Outcome: choice.Outcome, Reason: choice.Reason}
	}
	for i, label := range labels {
		if label == choice.Value {
			return entity.Ok(devices[i])
		}
	}
	return entity.Failed[entity.ConsoleDevice](fmt.Errorf("unknown device %q", choice.Value))
}

func (c *controller) DevRun(ctx context.Context, toit string, deviceID string, file string, output io.Writer) error {
	return c.stream(ctx, toit, output, "dev", "-d", deviceID, "run", file)
}

func (c *controller) DevDeploy(ctx context.Context, toit string, deviceID string, file string, output io.Writer) error {
	return c.stream(ctx, toit, output, "dev", "-d", deviceID, "deploy", file)
}

func (c *controller) UninstallApp(ctx context.Context, toit string, deviceID string, app string, output io.Writer) error {
	return c.stream(ctx, toit, output, "dev", "-d", deviceID, "uninstall", app)
}

func (c *controller) StartSimulator(ctx context.Context, toit string, alias string, output io.Writer) error {
	args := []string{"simulator", "start"}
	if alias != "" {
		args = append(args, "--alias", alias)
	}
	return c.stream(ctx, toit, output, args...)
}

func (c *controller) StopSimulator(ctx context.Context, toit string, deviceID string, output io.Writer) error {
	return c.stream(ctx, toit, output, "simulator", "stop", deviceID)
}

// stream runs toit with args, copying its output to output.
func (c *controller) stream(ctx context.Context, toit string, output io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, toit, args...)
	cmd.Stdout = output
	cmd.Stderr = output
	c.logger.Debugw("running toit command", "args", args)
	if err := c.executor.RunCommand(cmd, c.executor.Environ()); err != nil {
		return &errors.ExecutionError{Tool: entity.ToolToit, Path: toit, Cause: err}
	}
	return nil
}

// parseDevices accepts a JSON array as well as one JSON object per line.
func parseDevices(out string) ([]entity.ConsoleDevice, error) {
	var devices []entity.ConsoleDevice
	dec := json.NewDecoder(bytes.NewBufferString(out))
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			var list []entity.ConsoleDevice
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, err
			}
			devices = append(devices, list...)
			continue
		}
		var d entity.ConsoleDevice
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func deviceLabels(devices []entity.ConsoleDevice) []string {
	seen := make(map[string]int, len(devices))
	for _, d := range devices {
		seen[d.Name]++
	}
	labels := make([]string, len(devices))
	for i, d := range devices {
		labels[i] = d.Name
		if seen[d.Name] > 1 || d.Name == "" {
			labels[i] = fmt.Sprintf("%s (%s)", d.Name, d.ID)
		}
	}
	return labels
}
