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

// Package gradle runs gradle wrapper tasks for the release workflow.
package gradle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
)

// Config selects the wrapper and the tasks to run.
type Config struct {
	// Wrapper is the gradle executable, relative to the project root unless absolute.
	Wrapper string
	// TestTasks run the unit tests.
	TestTasks []string
	// AssembleTasks produce the installable package.
	AssembleTasks []string
	// Args are extra arguments appended to every invocation (e.g. --no-daemon).
	Args []string
	// EnvFile is merged into the gradle environment (optional), relative to the project root unless absolute.
	EnvFile string
}

// Gradle runs tasks through the gradle wrapper of a project.
type Gradle struct {
	runner cmdutil.Runner
	root   string
	cfg    Config

	stdout io.Writer
	stderr io.Writer
}

// New returns a Gradle for the project rooted at root.
func New(runner cmdutil.Runner, root string, cfg Config) *Gradle {
	return &Gradle{runner: runner, root: root, cfg: cfg}
}

// WithOutput returns a copy of g that streams task output to stdout and stderr.
func (g *Gradle) WithOutput(stdout, stderr io.Writer) *Gradle {
	cp := *g
	cp.stdout = stdout
	cp.stderr = stderr
	return &cp
}

// Test runs the configured unit test tasks.
func (g *Gradle) Test(ctx context.Context) (cmdutil.Result, error) {
	return g.run(ctx, g.cfg.TestTasks)
}

// Assemble runs the configured packaging tasks.
func (g *Gradle) Assemble(ctx context.Context) (cmdutil.Result, error) {
	return g.run(ctx, g.cfg.AssembleTasks)
}

// Wrapper returns the resolved path of the gradle executable.
func (g *Gradle) Wrapper() string {
	return g.resolve(g.cfg.Wrapper)
}

func (g *Gradle) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.root, path)
}

func (g *Gradle) run(ctx context.Context, tasks []string) (cmdutil.Result, error) {
	if len(tasks) == 0 {
		return cmdutil.Result{}, errors.New("no gradle task configured")
	}

	args := append(append([]string{}, tasks...), g.cfg.Args...)
	res, err := g.runner.Run(ctx, cmdutil.Command{
		Name:    g.Wrapper(),
		Args:    args,
		Dir:     g.root,
		EnvFile: g.resolve(g.cfg.EnvFile),
		Stdout:  g.stdout,
		Stderr:  g.stderr,
	})
	if err != nil {
		return res, fmt.Errorf("gradle %v: %w", tasks, err)
	}
	return res, nil
}
