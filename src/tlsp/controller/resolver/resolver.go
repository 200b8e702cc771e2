// Package resolver determines which toit and jag executables and which language server command to use.
package resolver

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/errors"
	"github.com/toitware/tlsp/src/tlsp/internal/executor"
	"github.com/toitware/tlsp/src/tlsp/internal/version"
	"github.com/toitware/tlsp/src/tlsp/mapper"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	_configKeyMinimumVersion = "minimumToitVersion"
	_configKeyLinks          = "links"

	_defaultMinimumVersion = "1.8.0"
)

// Actions offered by the resolver prompts.
const (
	ActionOpenSettings = "Open Settings"
	ActionInstall      = "Install"
	ActionUpdate       = "Update"
	ActionRunJagSetup  = "Run jag setup"
)

const (
	_messageNothingFound = "Could not find the 'toit' or 'jag' executables. Install Toit or configure 'toit.path' and 'jag.path'."
	_messageJagSetup     = "Jaguar has not been set up yet. Run 'jag setup' to download the Toit SDK?"
)

// Module provides the resolver to fx.
var Module = fx.Provide(New)

// Controller resolves the executables used by the daemon.
type Controller interface {
	// Resolve validates the raw settings and probes the configured or default executables.
	// Every failure is reported through prompter and results in an empty field; Resolve never fails.
	Resolve(ctx context.Context, raw map[string]interface{}, prompter entity.Prompter) entity.ResolvedExecutables
}

// Links are the documentation pages offered in prompts.
type Links struct {
	Install       string `yaml:"install"`
	Settings      string `yaml:"settings"`
	Documentation string `yaml:"documentation"`
}

// Params are inbound parameters to initialize a new resolver.
type Params struct {
	fx.In

	Config   config.Provider
	Logger   *zap.SugaredLogger
	Executor executor.Executor
}

type controller struct {
	logger         *zap.SugaredLogger
	executor       executor.Executor
	minimumVersion string
	links          Links
	lookPath       func(file string) (string, error)
}

// New creates a new resolver.
func New(p Params) (Controller, error) {
	c := &controller{
		logger:         p.Logger,
		executor:       p.Executor,
		minimumVersion: _defaultMinimumVersion,
		lookPath:       exec.LookPath,
	}

	var minimum string
	if err := p.Config.Get(_configKeyMinimumVersion).Populate(&minimum); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyMinimumVersion, err)
	}
	if minimum != "" {
		if _, ok := version.Clean(minimum); !ok {
			return nil, fmt.Errorf("invalid %q in config: %q", _configKeyMinimumVersion, minimum)
		}
		c.minimumVersion = minimum
	}

	if err := p.Config.Get(_configKeyLinks).Populate(&c.links); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyLinks, err)
	}
	return c, nil
}

func (c *controller) Resolve(ctx context.Context, raw map[string]interface{}, prompter entity.Prompter) entity.ResolvedExecutables {
	settings, err := mapper.RawSettingsToSettings(raw)
	if err != nil {
		c.logger.Warnw("invalid settings", "error", err)
		c.promptSettings(ctx, prompter, protocol.MessageTypeError, err.Error())
		return entity.ResolvedExecutables{}
	}

	var cli, jag entity.ExecutableCandidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cli = c.probeCLI(gctx, settings.ToitPath)
		return nil
	})
	g.Go(func() error {
		jag = c.probeJag(gctx, settings.JagPath)
		return nil
	})
	_ = g.Wait()

	c.logger.Debugw("probed executables", "cli", cli, "jag", jag)

	c.reportCandidate(ctx, prompter, cli, settings.ToitPath != "")
	c.reportCandidate(ctx, prompter, jag, settings.JagPath != "")

	if jag.Usable() && !c.ensureJagSetup(ctx, prompter, jag.Path) {
		jag.Err = &errors.ExecutionError{Tool: entity.ToolJag, Path: jag.Path, Cause: fmt.Errorf("jag setup is incomplete")}
	}

	var result entity.ResolvedExecutables
	if jag.Usable() {
		result.Jag = jag.Path
	}

	switch {
	case len(settings.LSPCommand) > 0:
		result.LSPCommand = settings.LSPCommand
	case jag.Usable():
		result.LSPCommand = entity.LSPCommand{jag.Path, "toit", "lsp", "--"}
	case cli.Usable():
		result.LSPCommand = entity.LSPCommand{cli.Path, "tool", "lsp"}
	default:
		if path, err := c.lookPath(entity.ToolToitLSP); err == nil {
			result.LSPCommand = entity.LSPCommand{path}
		}
	}

	if cli.Usable() {
		if c.checkMinimumVersion(ctx, prompter, cli) {
			result.CLI = cli.Path
		}
	}

	if result.CLI == "" && result.Jag == "" && len(result.LSPCommand) == 0 && !settings.HasExplicitExecutables() {
		if res := prompter.Prompt(ctx, protocol.MessageTypeError, _messageNothingFound, ActionInstall); res.IsOK() {
			c.openExternal(ctx, prompter, c.links.Install)
		}
	}

	c.logger.Infow("resolved executables", "cli", result.CLI, "jag", result.Jag, "lspCommand", result.LSPCommand)
	return result
}

func (c *controller) probeCLI(ctx context.Context, configured string) entity.ExecutableCandidate {
	path := configured
	if path == "" {
		path = entity.ToolToit
	}
	res := c.executor.Probe(ctx, path, "version", "-o", "short")
	return toCandidate(entity.ToolToit, path, configured != "", res)
}

func (c *controller) probeJag(ctx context.Context, configured string) entity.ExecutableCandidate {
	path := configured
	if path == "" {
		path = entity.ToolJag
	}
	res := version.NoAnalytics.Probe(ctx, c.executor.Probe, path, "version")
	return toCandidate(entity.ToolJag, path, configured != "", res)
}

func toCandidate(tool, path string, configured bool, res entity.ProbeResult) entity.ExecutableCandidate {
	candidate := entity.ExecutableCandidate{Tool: tool, Path: path}
	switch {
	case !res.ExecutableExists:
		candidate.Err = &errors.NotFoundError{Tool: tool, Path: path, Configured: configured}
	case res.Err != nil:
		candidate.Err = &errors.ExecutionError{Tool: tool, Path: path, Cause: res.Err}
	default:
		raw := version.Extract(res.Output)
		if _, ok := version.Clean(raw); !ok {
			candidate.Err = &errors.ExecutionError{Tool: tool, Path: path, Cause: fmt.Errorf("unexpected version output %q", res.Output)}
			break
		}
		candidate.Version = raw
	}
	return candidate
}

// reportCandidate prompts for a candidate that could not be used.
// Missing default executables are not reported individually.
func (c *controller) reportCandidate(ctx context.Context, prompter entity.Prompter, candidate entity.ExecutableCandidate, configured bool) {
	if candidate.Err == nil {
		return
	}
	if errors.IsNotFound(candidate.Err) && !configured {
		c.logger.Debugw("executable not found on search path", "tool", candidate.Tool)
		return
	}

	c.logger.Warnw("executable unusable", "tool", candidate.Tool, "path", candidate.Path, "error", candidate.Err)
	if configured {
		c.promptSettings(ctx, prompter, protocol.MessageTypeError, candidate.Err.Error())
		return
	}
	if res := prompter.Prompt(ctx, protocol.MessageTypeError, candidate.Err.Error(), ActionInstall); res.IsOK() {
		c.openExternal(ctx, prompter, c.links.Install)
	}
}

// ensureJagSetup reports whether jag has downloaded its SDK, offering to run the setup if it has not.
func (c *controller) ensureJagSetup(ctx context.Context, prompter entity.Prompter, jag string) bool {
	if res := c.executor.Probe(ctx, jag, "setup", "--check"); res.Err == nil {
		return true
	}

	res := prompter.Prompt(ctx, protocol.MessageTypeWarning, _messageJagSetup, ActionRunJagSetup)
	if !res.IsOK() {
		return false
	}

	if setup := c.executor.Probe(ctx, jag, "setup"); setup.Err != nil {
		err := &errors.ExecutionError{Tool: entity.ToolJag, Path: jag, Cause: setup.Err}
		prompter.Prompt(ctx, protocol.MessageTypeError, err.Error())
		return false
	}
	return c.executor.Probe(ctx, jag, "setup", "--check").Err == nil
}

// checkMinimumVersion reports whether the CLI is recent enough, offering an update if it is not.
func (c *controller) checkMinimumVersion(ctx context.Context, prompter entity.Prompter, cli entity.ExecutableCandidate) bool {
	ok, err := version.AtLeast(cli.Version, c.minimumVersion)
	if err != nil {
		execErr := &errors.ExecutionError{Tool: cli.Tool, Path: cli.Path, Cause: err}
		prompter.Prompt(ctx, protocol.MessageTypeError, execErr.Error())
		return false
	}
	if ok {
		return true
	}

	tooOld := &errors.VersionTooOldError{Tool: cli.Tool, Version: cli.Version, Minimum: c.minimumVersion}
	c.logger.Warnw("executable too old", "path", cli.Path, "error", tooOld)
	if res := prompter.Prompt(ctx, protocol.MessageTypeWarning, tooOld.Error(), ActionUpdate); res.IsOK() {
		if update := c.executor.Probe(ctx, cli.Path, "update"); update.Err != nil {
			err := &errors.ExecutionError{Tool: cli.Tool, Path: cli.Path, Cause: update.Err}
			prompter.Prompt(ctx, protocol.MessageTypeError, err.Error())
		}
	}
	return false
}

func (c *controller) promptSettings(ctx context.Context, prompter entity.Prompter, kind protocol.MessageType, message string) {
	if res := prompter.Prompt(ctx, kind, message, ActionOpenSettings); res.IsOK() {
		c.openExternal(ctx, prompter, c.links.Settings)
	}
}

func (c *controller) openExternal(ctx context.Context, prompter entity.Prompter, target string) {
	if target == "" {
		return
	}
	if err := prompter.OpenExternal(ctx, target); err != nil {
		c.logger.Warnw("unable to open link", "target", target, "error", err)
	}
}
