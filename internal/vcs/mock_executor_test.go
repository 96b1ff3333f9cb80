package vcs

import (
	"fmt"
	"os/exec"
	"strings"
)

type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

// mockExecutor records commands and answers from a table keyed by the git
// subcommand line (without the -C prefix).
type mockExecutor struct {
	commands [][]string
	outputs  map[string]string
	errors   map[string]error
	stderr   map[string]string
	runFn    func(cmd *exec.Cmd) (string, string, error)
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		outputs: map[string]string{},
		errors:  map[string]error{},
		stderr:  map[string]string{},
	}
}

func (m *mockExecutor) Run(cmd *exec.Cmd) (string, string, error) {
	args := cmd.Args[3:]
	m.commands = append(m.commands, args)
	if m.runFn != nil {
		return m.runFn(cmd)
	}
	key := strings.Join(args, " ")
	return m.outputs[key], m.stderr[key], m.errors[key]
}
