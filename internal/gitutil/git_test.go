//go:build unit

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

package gitutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
	"github.com/alexandremahdhaoui/apk-release/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGit_Queries(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("git rev-parse --show-toplevel", "/home/dev/cook-e\n").
		On("git rev-parse --abbrev-ref HEAD", "master\n").
		On("git status --porcelain", " M app/build.gradle\n").
		On("git rev-parse HEAD", "0123456789abcdef0123456789abcdef01234567\n")
	g := New(runner, "/home/dev/cook-e")
	ctx := context.Background()

	root, err := g.Toplevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/home/dev/cook-e", root)

	branch, err := g.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	status, err := g.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "M app/build.gradle", status)

	sha, err := g.HeadSHA(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", sha)

	for _, call := range runner.Calls {
		assert.Equal(t, "/home/dev/cook-e", call.Dir)
	}
}

func TestGit_ToplevelOutsideRepository(t *testing.T) {
	runner := testutil.NewFakeRunner().
		Fail("git rev-parse --show-toplevel", 128, "fatal: not a git repository")

	_, err := New(runner, "").Toplevel(context.Background())
	require.ErrorIs(t, err, cmdutil.ErrNonZeroExit)
	assert.Contains(t, err.Error(), "not a git repository")
}

func TestGit_ToplevelEmpty(t *testing.T) {
	_, err := New(testutil.NewFakeRunner(), "").Toplevel(context.Background())
	require.Error(t, err)
}

func TestGit_MutatingSubcommands(t *testing.T) {
	runner := testutil.NewFakeRunner()
	g := New(runner, "")
	ctx := context.Background()

	require.NoError(t, g.Add(ctx, "/repo/app/build.gradle"))
	require.NoError(t, g.Commit(ctx, "Version increased to v1.2.0"))
	require.NoError(t, g.Tag(ctx, "v1.2.0", "Version 1.2.0"))
	require.NoError(t, g.Push(ctx))
	require.NoError(t, g.PushTags(ctx))
	require.NoError(t, g.ResetHard(ctx))

	assert.Equal(t, []string{
		"git add /repo/app/build.gradle",
		"git commit -m Version increased to v1.2.0",
		"git tag -a -m Version 1.2.0 v1.2.0",
		"git push",
		"git push --tags",
		"git reset --hard HEAD",
	}, runner.CommandLines())

	// The commit message must stay a single argument.
	assert.Equal(t, []string{"commit", "-m", "Version increased to v1.2.0"}, runner.Calls[1].Args)
}

func TestGit_WithOutputStreamsMutations(t *testing.T) {
	runner := testutil.NewFakeRunner().On("git push", "pushed\n")
	var out, errOut bytes.Buffer
	g := New(runner, "").WithOutput(&out, &errOut)

	require.NoError(t, g.Push(context.Background()))
	assert.Equal(t, "pushed\n", out.String())
}

func TestGit_PushFailureCarriesStderr(t *testing.T) {
	runner := testutil.NewFakeRunner().Fail("git push --tags", 1, "rejected")

	err := New(runner, "").PushTags(context.Background())
	require.ErrorIs(t, err, cmdutil.ErrNonZeroExit)
	assert.Contains(t, err.Error(), "rejected")
}
