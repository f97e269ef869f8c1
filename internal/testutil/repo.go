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

package testutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
)

// AndroidDescriptor is a minimal app/build.gradle at version code 5, version name 1.0.0.
const AndroidDescriptor = `apply plugin: 'com.android.application'

android {
    defaultConfig {
        applicationId "org.cook_e.cook_e"
        versionCode 5
        versionName "1.0.0"
    }
}
`

// Repo is a git working copy with a bare "origin" remote, both under t.TempDir().
type Repo struct {
	t      *testing.T
	Dir    string
	Remote string
}

// NewRepo creates a repository on branch master holding files, commits them and
// pushes the commit to origin. The test is skipped when git is not installed.
func NewRepo(t *testing.T, files map[string]string) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	base := t.TempDir()
	r := &Repo{
		t:      t,
		Dir:    filepath.Join(base, "work"),
		Remote: filepath.Join(base, "origin.git"),
	}

	r.run(base, "init", "--bare", "--initial-branch=master", r.Remote)
	r.run(base, "init", "--initial-branch=master", r.Dir)
	r.Git("config", "user.email", "release@example.com")
	r.Git("config", "user.name", "Release Test")
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "tag.gpgsign", "false")
	r.Git("remote", "add", "origin", r.Remote)

	for name, content := range files {
		r.WriteFile(name, content, 0o644)
	}
	r.Git("add", "-A")
	r.Git("commit", "-m", "initial commit")
	r.Git("push", "-u", "origin", "master")
	return r
}

// Git runs git in the working copy and returns its trimmed stdout. It fails the test on error.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	return r.run(r.Dir, args...)
}

// RemoteGit runs git against the bare remote.
func (r *Repo) RemoteGit(args ...string) string {
	r.t.Helper()
	return r.run(r.Remote, args...)
}

// WriteFile writes content at the slash separated path relative to the working copy.
func (r *Repo) WriteFile(name, content string, perm os.FileMode) {
	r.t.Helper()
	path := filepath.Join(r.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
}

// ReadFile returns the content of a file of the working copy.
func (r *Repo) ReadFile(name string) string {
	r.t.Helper()
	b, err := os.ReadFile(filepath.Join(r.Dir, filepath.FromSlash(name)))
	if err != nil {
		r.t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

// Path returns the absolute path of a file of the working copy.
func (r *Repo) Path(name string) string {
	return filepath.Join(r.Dir, filepath.FromSlash(name))
}

func (r *Repo) run(dir string, args ...string) string {
	r.t.Helper()
	res, err := cmdutil.ExecRunner{}.Run(context.Background(), cmdutil.Command{
		Name: "git",
		Args: args,
		Dir:  dir,
	})
	if err != nil {
		r.t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, res.Stderr)
	}
	return strings.TrimSpace(res.Stdout)
}
