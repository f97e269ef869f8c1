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

// Package gitutil drives the git CLI for the release workflow.
package gitutil

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
)

const gitBinary = "git"

// Git runs git subcommands through a cmdutil.Runner.
type Git struct {
	runner cmdutil.Runner
	dir    string

	// stdout and stderr receive the output of mutating subcommands (commit, tag, push, reset).
	stdout io.Writer
	stderr io.Writer
}

// New returns a Git working in dir. An empty dir means the current working directory.
func New(runner cmdutil.Runner, dir string) *Git {
	return &Git{runner: runner, dir: dir}
}

// WithOutput returns a copy of g that streams mutating subcommand output to stdout and stderr.
func (g *Git) WithOutput(stdout, stderr io.Writer) *Git {
	cp := *g
	cp.stdout = stdout
	cp.stderr = stderr
	return &cp
}

// Toplevel returns the absolute path of the repository root.
func (g *Git) Toplevel(ctx context.Context) (string, error) {
	out, err := g.query(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("empty repository root")
	}
	return out, nil
}

// CurrentBranch returns the abbreviated name of the checked-out branch.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.query(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("empty branch name")
	}
	return out, nil
}

// Status returns the porcelain status. An empty string means the working tree is clean.
func (g *Git) Status(ctx context.Context) (string, error) {
	return g.query(ctx, "status", "--porcelain")
}

// HeadSHA returns the full commit SHA of HEAD.
func (g *Git) HeadSHA(ctx context.Context) (string, error) {
	sha, err := g.query(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", fmt.Errorf("empty git commit SHA")
	}
	return sha, nil
}

// Add stages path.
func (g *Git) Add(ctx context.Context, path string) error {
	return g.exec(ctx, "add", path)
}

// Commit records staged changes with message.
func (g *Git) Commit(ctx context.Context, message string) error {
	return g.exec(ctx, "commit", "-m", message)
}

// Tag creates an annotated tag.
func (g *Git) Tag(ctx context.Context, name, message string) error {
	return g.exec(ctx, "tag", "-a", "-m", message, name)
}

// Push pushes the current branch to its upstream.
func (g *Git) Push(ctx context.Context) error {
	return g.exec(ctx, "push")
}

// PushTags pushes all local tags.
func (g *Git) PushTags(ctx context.Context) error {
	return g.exec(ctx, "push", "--tags")
}

// ResetHard discards every uncommitted change in the working tree.
func (g *Git) ResetHard(ctx context.Context) error {
	return g.exec(ctx, "reset", "--hard", "HEAD")
}

// query runs a read-only subcommand and returns its trimmed stdout.
func (g *Git) query(ctx context.Context, args ...string) (string, error) {
	res, err := g.runner.Run(ctx, cmdutil.Command{Name: gitBinary, Args: args, Dir: g.dir})
	if err != nil {
		return "", wrap(args, res, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (g *Git) exec(ctx context.Context, args ...string) error {
	res, err := g.runner.Run(ctx, cmdutil.Command{
		Name:   gitBinary,
		Args:   args,
		Dir:    g.dir,
		Stdout: g.stdout,
		Stderr: g.stderr,
	})
	if err != nil {
		return wrap(args, res, err)
	}
	return nil
}

func wrap(args []string, res cmdutil.Result, err error) error {
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		return fmt.Errorf("git %s: %w (stderr: %s)", args[0], err, stderr)
	}
	return fmt.Errorf("git %s: %w", args[0], err)
}
