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
	"context"
	"io"
)

// Command describes a single external process invocation.
type Command struct {
	Name    string            // Executable to run
	Args    []string          // Command arguments
	Dir     string            // Working directory (optional)
	Env     map[string]string // Extra environment variables
	EnvFile string            // Path to an env file merged before Env (optional)

	// Stdout and Stderr, when set, receive the process output as it is produced.
	// Output is always captured in the Result regardless.
	Stdout io.Writer
	Stderr io.Writer
}

// Result contains the outcome of a command execution.
type Result struct {
	ExitCode int    // Process exit code, -1 if the process could not be started
	Stdout   string // Captured standard output
	Stderr   string // Captured standard error
}

// Runner executes external commands. It blocks until the process exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}
