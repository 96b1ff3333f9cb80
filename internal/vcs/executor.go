package vcs

import (
	"bytes"
	"os/exec"
)

// CommandExecutor runs a prepared command and returns its standard output
// and standard error. Tests substitute it to avoid spawning git.
type CommandExecutor interface {
	Run(cmd *exec.Cmd) (stdout, stderr string, err error)
}

// ExecExecutor runs commands through os/exec.
type ExecExecutor struct{}

// NewExecExecutor returns the default executor.
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// Run implements CommandExecutor.
func (ExecExecutor) Run(cmd *exec.Cmd) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
