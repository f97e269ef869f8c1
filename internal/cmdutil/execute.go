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

package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrNonZeroExit is returned when a process ran to completion with a non-zero exit code.
var ErrNonZeroExit = errors.New("command exited with non-zero status")

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes the command and waits for it to complete.
//
// Environment variables are merged with the following precedence (highest to lowest):
//  1. Inline env vars (cmd.Env)
//  2. Env file vars (cmd.EnvFile)
//  3. System environment
//
// A non-zero exit returns the populated Result together with an error wrapping ErrNonZeroExit.
func (ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}

	env, err := mergeEnv(os.Environ(), cmd.EnvFile, cmd.Env)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	c.Env = env

	var stdout, stderr bytes.Buffer
	c.Stdout = tee(&stdout, cmd.Stdout)
	c.Stderr = tee(&stderr, cmd.Stderr)

	runErr := c.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%w: %s: exit code %d", ErrNonZeroExit, cmd.String(), res.ExitCode)
	}

	res.ExitCode = -1
	return res, fmt.Errorf("running %s: %w", cmd.String(), runErr)
}

// String renders the command line for log and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func mergeEnv(base []string, envFile string, inline map[string]string) ([]string, error) {
	env := append([]string(nil), base...)

	if envFile != "" {
		fileVars, err := LoadEnvFile(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		for key, value := range fileVars {
			env = append(env, key+"="+value)
		}
	}

	for key, value := range inline {
		env = append(env, key+"="+value)
	}

	return env, nil
}
