package lspserver

import (
	"io"
	"os/exec"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"go.uber.org/multierr"
)

// child is a running language server. Reads come from its stdout, writes go to its stdin.
type child interface {
	io.ReadWriteCloser
	// Wait blocks until the process has exited. It is called exactly once.
	Wait() error
	Kill() error
}

type spawnFunc func(command entity.LSPCommand, dir string, stderr io.Writer) (child, error)

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (g *gateway) spawnProcess(command entity.LSPCommand, dir string, stderr io.Writer) (child, error) {
	cmd := exec.Command(command.Program(), command.Args()...)
	cmd.Dir = dir
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	if err := g.executor.Start(cmd); err != nil {
		return nil, multierr.Combine(err, stdin.Close(), stdout.Close())
	}

	return &process{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (p *process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *process) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

func (p *process) Close() error {
	return multierr.Combine(p.stdin.Close(), p.stdout.Close())
}

func (p *process) Wait() error {
	return p.cmd.Wait()
}

func (p *process) Kill() error {
	return p.cmd.Process.Kill()
}
