// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
)

// FakeResponse is the scripted outcome of a command matched by FakeRunner.
type FakeResponse struct {
	Result cmdutil.Result
	Err    error
}

// FakeRunner records every command it receives and replies with scripted responses.
// Responses are keyed by the rendered command line (see cmdutil.Command.String).
// Unscripted commands succeed with empty output.
type FakeRunner struct {
	Responses map[string]FakeResponse
	Calls     []cmdutil.Command
}

var _ cmdutil.Runner = (*FakeRunner)(nil)

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Responses: map[string]FakeResponse{}}
}

// On scripts stdout for the given command line.
func (f *FakeRunner) On(cmdline, stdout string) *FakeRunner {
	f.Responses[cmdline] = FakeResponse{Result: cmdutil.Result{Stdout: stdout}}
	return f
}

// Fail scripts a non-zero exit for the given command line.
func (f *FakeRunner) Fail(cmdline string, exitCode int, stderr string) *FakeRunner {
	f.Responses[cmdline] = FakeResponse{
		Result: cmdutil.Result{ExitCode: exitCode, Stderr: stderr},
		Err:    fmt.Errorf("%w: %s: exit code %d", cmdutil.ErrNonZeroExit, cmdline, exitCode),
	}
	return f
}

// Run implements cmdutil.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd cmdutil.Command) (cmdutil.Result, error) {
	f.Calls = append(f.Calls, cmd)
	resp, ok := f.Responses[cmd.String()]
	if !ok {
		return cmdutil.Result{}, nil
	}
	if cmd.Stdout != nil && resp.Result.Stdout != "" {
		_, _ = cmd.Stdout.Write([]byte(resp.Result.Stdout))
	}
	if cmd.Stderr != nil && resp.Result.Stderr != "" {
		_, _ = cmd.Stderr.Write([]byte(resp.Result.Stderr))
	}
	return resp.Result, resp.Err
}

// CommandLines returns the rendered command lines in call order.
func (f *FakeRunner) CommandLines() []string {
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}

// Ran reports whether a command line starting with prefix was executed.
func (f *FakeRunner) Ran(prefix string) bool {
	for _, line := range f.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
