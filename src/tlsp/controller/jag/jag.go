// Package jag runs Jaguar device commands on behalf of the editor.
package jag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_messagePickDevice = "Pick a device"
	_messageNoDevices  = "No Jaguar devices found. Make sure the device is on the same network."
)

// Module provides the jag controller to fx.
var Module = fx.Provide(New)

// Controller runs jag commands.
type Controller interface {
	// Scan lists the devices reachable on the network.
	Scan(ctx context.Context, jag string) ([]entity.Device, error)
	// SelectDevice lets the user pick a device. The device picked last on the same connection is offered first.
	SelectDevice(ctx context.Context, jag string, prompter entity.Prompter) entity.Result[entity.Device]
	// Run picks a device and runs file on it. Output of jag is written to output.
	Run(ctx context.Context, jag string, file string, prompter entity.Prompter, output io.Writer) entity.Result[entity.Device]
	// Forget drops the remembered device of the connection in ctx.
	Forget(ctx context.Context)
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

	mu         sync.Mutex
	lastDevice map[uuid.UUID]string
}

type scanResult struct {
	Devices []entity.Device `json:"devices"`
}

// New creates a new jag controller.
func New(p Params) Controller {
	return &controller{
		logger:     p.Logger,
		executor:   p.Executor,
		lastDevice: make(map[uuid.UUID]string),
	}
}

func (c *controller) Scan(ctx context.Context, jag string) ([]entity.Device, error) {
	cmd := exec.CommandContext(ctx, jag, "scan", "--list", "-o", "json")
	cmd.Env = c.executor.Environ()

	stdout, stderr, _, err := c.executor.Run(cmd)
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &errors.ExecutionError{Tool: entity.ToolJag, Path: jag, Cause: err}
	}

	var result scanResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		return nil, &errors.ExecutionError{Tool: entity.ToolJag, Path: jag, Cause: fmt.Errorf("parsing scan output: %w", err)}
	}
	return result.Devices, nil
}

func (c *controller) SelectDevice(ctx context.Context, jag string, prompter entity.Prompter) entity.Result[entity.Device] {
	devices, err := c.Scan(ctx, jag)
	if err != nil {
		return entity.Failed[entity.Device](err)
	}
	if len(devices) == 0 {
		prompter.Prompt(ctx, protocol.MessageTypeWarning, _messageNoDevices)
		return entity.Cancelled[entity.Device]()
	}

	id, _ := mapper.ContextToConnectionUUID(ctx)
	c.mu.Lock()
	last, ok := c.lastDevice[id]
	c.mu.Unlock()
	if ok {
		PreferElement(devices, func(d entity.Device) bool { return d.ID == last })
	}

	labels := deviceLabels(devices)
	choice := prompter.Prompt(ctx, protocol.MessageTypeInfo, _messagePickDevice, labels...)
	if !choice.IsOK() {
		return entity.Result[entity.Device]{Outcome: choice.Outcome, Reason: choice.Reason}
	}

	for i, label := range labels {
		if label != choice.Value {
			continue
		}
		c.mu.Lock()
		c.lastDevice[id] = devices[i].ID
		c.mu.Unlock()
		return entity.Ok(devices[i])
	}
	return entity.Failed[entity.Device](fmt.Errorf("unknown device %q", choice.Value))
}

func (c *controller) Run(ctx context.Context, jag string, file string, prompter entity.Prompter, output io.Writer) entity.Result[entity.Device] {
	selected := c.SelectDevice(ctx, jag, prompter)
	if !selected.IsOK() {
		return selected
	}

	cmd := exec.CommandContext(ctx, jag, "run", file, "--device", selected.Value.ID)
	cmd.Stdout = output
	cmd.Stderr = output
	if err := c.executor.RunCommand(cmd, c.executor.Environ()); err != nil {
		return entity.Failed[entity.Device](&errors.ExecutionError{Tool: entity.ToolJag, Path: jag, Cause: err})
	}
	return selected
}

func (c *controller) Forget(ctx context.Context) {
	id, err := mapper.ContextToConnectionUUID(ctx)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastDevice, id)
}

// deviceLabels returns the device names, adding the id where names are ambiguous.
func deviceLabels(devices []entity.Device) []string {
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

// PreferElement moves the first element matching match to the front, keeping the order of the others.
func PreferElement[T any](items []T, match func(T) bool) {
	for i, item := range items {
		if !match(item) {
			continue
		}
		copy(items[1:i+1], items[:i])
		items[0] = item
		return
	}
}
