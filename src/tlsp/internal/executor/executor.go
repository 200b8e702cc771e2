package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyApplication = "externalApplication"

	// EnvExternalApplication identifies the daemon to the toit and jag tools.
	EnvExternalApplication = "TOIT_EXTERNAL_APPLICATION"
)

// Module provides a module to inject using fx.
var Module = fx.Provide(New)

// Executor wraps the execution of "os/exec".Cmd's to allow adding logs/metrics to
// each exec and makes it easier to test.
type Executor interface {
	// RunCommand - logs and and executes the Cmd specified
	RunCommand(cmd *exec.Cmd, env []string) error
	// Run - logs and and executes the Cmd specified overriding its Stdout/Stderr to return their content
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
	// Start - logs and starts the Cmd specified without waiting for it to exit
	Start(cmd *exec.Cmd) error
	// Probe runs path with args once and classifies the outcome.
	Probe(ctx context.Context, path string, args ...string) entity.ProbeResult
	// Environ returns the environment handed to every external tool.
	Environ() []string
}

// ApplicationConfig names the daemon towards external tools.
type ApplicationConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Marker returns the value of the TOIT_EXTERNAL_APPLICATION variable.
func (c ApplicationConfig) Marker() string {
	if c.Version == "" {
		return c.Name
	}
	return c.Name + "/" + c.Version
}

// executorImp implements Executor
type executorImp struct {
	Logger *zap.SugaredLogger
	// ExecFunc may be nil to use executorImp in tests.
	ExecFunc    func(e *exec.Cmd) error
	StartFunc   func(e *exec.Cmd) error
	Application ApplicationConfig
}

// Option defines options to customize executorImp's behavior
type Option func(*executorImp)

// WithLogger overrides the default noop logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(executor *executorImp) {
		executor.Logger = logger
	}
}

// WithExecFunc provides customized exec behavior for executorImp
func WithExecFunc(execFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.ExecFunc = execFunc
	}
}

// WithApplication sets the external application marker added to the environment.
func WithApplication(app ApplicationConfig) Option {
	return func(executor *executorImp) {
		executor.Application = app
	}
}

// Params are the dependencies of the fx provided Executor.
type Params struct {
	fx.In

	Config config.Provider
	Logger *zap.SugaredLogger
}

// New creates an Executor configured from the config provider.
func New(p Params) (Executor, error) {
	var app ApplicationConfig
	if err := p.Config.Get(_configKeyApplication).Populate(&app); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyApplication, err)
	}
	if app.Name == "" {
		return nil, fmt.Errorf("missing field %q in config", _configKeyApplication+".name")
	}
	return NewExecutor(WithLogger(p.Logger), WithApplication(app)), nil
}

// NewExecutor - creates a new executorImp with logger at the level specified and a default executor function
func NewExecutor(opts ...Option) Executor {
	executor := &executorImp{
		Logger:    zap.NewNop().Sugar(),
		ExecFunc:  func(cmd *exec.Cmd) error { return cmd.Run() },
		StartFunc: func(cmd *exec.Cmd) error { return cmd.Start() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// RunCommand - logs the Path/Args and calls ExecFunc if it is set.
func (l *executorImp) RunCommand(cmd *exec.Cmd, env []string) error {
	if err := l.logCommand(cmd); err != nil {
		return err
	}

	if l.ExecFunc == nil {
		l.Logger.Warn("missing ExecFunc - skipped execution")
		return nil
	}

	cmd.Env = env
	return l.ExecFunc(cmd)
}

// Run - logs the Path/Args and calls ExecFunc if it is set.
func (l *executorImp) Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error) {
	if err := l.logCommand(cmd); err != nil {
		return "", "", -1, err
	}

	if l.ExecFunc == nil {
		l.Logger.Warn("missing ExecFunc - skipped execution")
		return "", "", 0, nil
	}

	var stdoutB, stderrB bytes.Buffer
	cmd.Stdout = &stdoutB
	cmd.Stderr = &stderrB
	err = l.ExecFunc(cmd)

	return stdoutB.String(), stderrB.String(), cmd.ProcessState.ExitCode(), err
}

// Start - logs the Path/Args and starts the process with the external tool environment unless one is set.
func (l *executorImp) Start(cmd *exec.Cmd) error {
	if err := l.logCommand(cmd); err != nil {
		return err
	}

	if cmd.Env == nil {
		cmd.Env = l.Environ()
	}
	return l.StartFunc(cmd)
}

// Probe runs the executable once. ExecutableExists is only false if the OS reports it missing.
func (l *executorImp) Probe(ctx context.Context, path string, args ...string) entity.ProbeResult {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = l.Environ()

	stdout, stderr, _, err := l.Run(cmd)
	if err != nil {
		if IsNotExist(err) {
			return entity.ProbeResult{ExecutableExists: false, Err: err}
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return entity.ProbeResult{ExecutableExists: true, Err: err}
	}

	return entity.ProbeResult{ExecutableExists: true, Output: strings.TrimSpace(stdout)}
}

// Environ returns the inherited environment plus the external application marker.
func (l *executorImp) Environ() []string {
	env := os.Environ()
	if marker := l.Application.Marker(); marker != "" {
		env = append(env, EnvExternalApplication+"="+marker)
	}
	return env
}

// IsNotExist reports whether err means the executable could not be found.
func IsNotExist(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// Logs the command specified: Path, Dir, Args, Stdin (if available)
func (l *executorImp) logCommand(cmd *exec.Cmd) error {
	logKeysAndValues := []interface{}{
		"Path", cmd.Path,
		"Dir", cmd.Dir,
		"Args", cmd.Args[1:], // First arg is always the command itself
	}

	if cmd.Stdin != nil {
		if _, ok := cmd.Stdin.(*os.File); !ok {
			stdinBytes, err := io.ReadAll(cmd.Stdin)
			if err != nil {
				return err
			}
			logKeysAndValues = append(logKeysAndValues, "Stdin", string(stdinBytes))
			cmd.Stdin = bytes.NewReader(stdinBytes)
		}
	}

	l.Logger.Infow("Exec", logKeysAndValues...)
	return nil
}
