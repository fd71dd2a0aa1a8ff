package convert

import (
	"bytes"
	"os/exec"
	"strings"
)

// RunResult holds the outcome of a single external-process invocation.
// Stderr is captured in full so failures can surface the tool's own
// diagnostic instead of a bare exit code.
type RunResult struct {
	Err    error
	Stderr string
}

func (r RunResult) OK() bool { return r.Err == nil }

// Runner abstracts external-process execution so tests can fake encoder
// outcomes without a cjxl binary on the machine.
type Runner interface {
	Run(name string, args ...string) RunResult
}

// ExecRunner invokes real processes. Child processes run to natural
// completion; there is no per-invocation timeout.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) RunResult {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return RunResult{Err: err, Stderr: stderr.String()}
}

// lastStderrLine extracts the most useful line of captured stderr: the last
// non-empty one. Returns fallback when there is none.
func lastStderrLine(stderr, fallback string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return fallback
}
