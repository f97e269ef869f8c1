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

package release

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alexandremahdhaoui/apk-release/internal/artifact"
	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
	"github.com/alexandremahdhaoui/apk-release/internal/config"
	"github.com/alexandremahdhaoui/apk-release/internal/descriptor"
)

// VersionControl is the subset of git the release needs.
type VersionControl interface {
	Toplevel(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	Status(ctx context.Context) (string, error)
	HeadSHA(ctx context.Context) (string, error)
	Add(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	Tag(ctx context.Context, name, message string) error
	Push(ctx context.Context) error
	PushTags(ctx context.Context) error
	ResetHard(ctx context.Context) error
}

// Builder runs the project's unit tests and packaging.
type Builder interface {
	Test(ctx context.Context) (cmdutil.Result, error)
	Assemble(ctx context.Context) (cmdutil.Result, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Feedback receives operator-facing progress.
type Feedback interface {
	Stage(title string)
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	// Busy is called before a long running step; the returned function is called after it.
	Busy(title string) func()
	// ToolOutput receives the captured output of a failed external tool.
	ToolOutput(stdout, stderr string)
}

// PrepareFunc loads the configuration and builder of the repository at root.
type PrepareFunc func(root string) (config.Config, Builder, error)

// Pipeline is the release workflow. Every field is required.
type Pipeline struct {
	VCS      VersionControl
	Confirm  Confirmer
	Feedback Feedback
	Prepare  PrepareFunc
	Log      zerolog.Logger
}

// Summary describes a published release.
type Summary struct {
	Version        Version
	Tag            string
	ReleaseURL     string
	ArtifactPath   string
	OldVersionCode int
	NewVersionCode int
	// CommitSHA is empty when the release commit could not be resolved.
	CommitSHA string
}

type state struct {
	raw     string
	version Version
	root    string
	project project
	builder Builder

	bump        descriptor.Result
	commitSHA   string
	pushedHeads bool
	// mutated is set once the working tree may differ from HEAD.
	mutated bool
}

type stage struct {
	name string
	// mutates marks the first stage that touches the working tree.
	mutates bool
	run     func(ctx context.Context, st *state) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{name: "validate-version", run: p.validateVersion},
		{name: "locate-repository", run: p.locateRepository},
		{name: "check-branch", run: p.checkBranch},
		{name: "check-working-tree", run: p.checkWorkingTree},
		{name: "update-descriptor", mutates: true, run: p.updateDescriptor},
		{name: "test", run: p.test},
		{name: "assemble", run: p.assemble},
		{name: "rename-artifact", run: p.renameArtifact},
		{name: "commit", run: p.commit},
		{name: "tag", run: p.tag},
		{name: "push", run: p.push},
	}
}

// Run executes every stage in order and stops at the first failure.
// Once the build descriptor has been touched, a failure resets the working tree
// before the error is returned. Pushes that already reached the remote are kept.
func (p *Pipeline) Run(ctx context.Context, rawVersion string) (*Summary, error) {
	st := &state{raw: rawVersion}

	for _, s := range p.stages() {
		if s.mutates {
			st.mutated = true
		}

		log := p.Log.With().Str("stage", s.name).Logger()
		log.Debug().Msg("stage started")

		if err := s.run(ctx, st); err != nil {
			log.Error().Err(err).Msg("release aborted")
			if st.mutated {
				err = p.rollback(ctx, st, err)
			}
			return nil, err
		}
	}

	return &Summary{
		Version:        st.version,
		Tag:            st.version.Tag(),
		ReleaseURL:     st.project.releaseURL,
		ArtifactPath:   st.project.artifactDest,
		OldVersionCode: st.bump.OldVersionCode,
		NewVersionCode: st.bump.NewVersionCode,
		CommitSHA:      st.commitSHA,
	}, nil
}

func (p *Pipeline) validateVersion(_ context.Context, st *state) error {
	v, err := ParseVersion(st.raw)
	if err != nil {
		return err
	}
	st.version = v
	p.Feedback.Stage(fmt.Sprintf("Preparing release %s", v.Tag()))
	return nil
}

func (p *Pipeline) locateRepository(ctx context.Context, st *state) error {
	root, err := p.VCS.Toplevel(ctx)
	if err != nil {
		return stageError(ErrEnvironment,
			"could not find the repository root, please run from inside the project folder", err)
	}
	st.root = root
	p.Log.Debug().Str("root", root).Msg("repository root resolved")

	cfg, builder, err := p.Prepare(root)
	if err != nil {
		return stageError(ErrEnvironment, "loading release configuration", err)
	}

	proj, err := newProject(root, cfg, st.version)
	if err != nil {
		return stageError(ErrEnvironment, "resolving release configuration", err)
	}

	st.project = proj
	st.builder = builder
	return nil
}

func (p *Pipeline) checkBranch(ctx context.Context, st *state) error {
	branch, err := p.VCS.CurrentBranch(ctx)
	if err != nil {
		return stageError(ErrVcsFailed, "resolving current branch", err)
	}
	if branch == st.project.primaryBranch {
		return nil
	}

	p.Log.Warn().Str("branch", branch).Str("primary", st.project.primaryBranch).Msg("releasing from a non-primary branch")
	p.Feedback.Warn(fmt.Sprintf("You are currently on branch %s. Releases are normally made from %s.",
		branch, st.project.primaryBranch))

	ok, err := p.Confirm.Confirm(fmt.Sprintf("Release %s from branch %s?", st.version.Tag(), branch))
	if err != nil {
		return stageError(ErrUserCancelled, "reading confirmation", err)
	}
	if !ok {
		return stageError(ErrUserCancelled, fmt.Sprintf("not releasing from branch %s", branch), nil)
	}
	return nil
}

func (p *Pipeline) checkWorkingTree(ctx context.Context, st *state) error {
	status, err := p.VCS.Status(ctx)
	if err != nil {
		return stageError(ErrVcsFailed, "reading working tree status", err)
	}
	if status == "" {
		return nil
	}

	changes := strings.Split(status, "\n")
	p.Log.Debug().Strs("changes", changes).Msg("pending changes")
	return stageError(ErrDirtyWorkingTree,
		fmt.Sprintf("%d pending change(s), please commit or stash them", len(changes)), nil)
}

func (p *Pipeline) updateDescriptor(_ context.Context, st *state) error {
	p.Feedback.Stage("Updating build descriptor")

	res, err := descriptor.Update(st.project.descriptorPath, st.version.String(), st.project.patterns)
	if err != nil {
		return stageError(ErrFileSystem, "updating "+st.project.descriptorPath, err)
	}
	st.bump = res

	p.Feedback.Info(fmt.Sprintf("Increasing version code from %d to %d", res.OldVersionCode, res.NewVersionCode))
	p.Log.Info().
		Int("oldVersionCode", res.OldVersionCode).
		Int("newVersionCode", res.NewVersionCode).
		Str("oldVersionName", res.OldVersionName).
		Str("newVersionName", st.version.String()).
		Msg("build descriptor updated")

	if !res.VersionNameFound {
		p.Feedback.Warn(fmt.Sprintf("No %s line found in %s", st.project.patterns.VersionNameKey, st.project.descriptorPath))
	} else if greater, ok := st.version.Supersedes(res.OldVersionName); ok && !greater {
		p.Feedback.Warn(fmt.Sprintf("Version %s does not supersede the previous version %s", st.version, res.OldVersionName))
	}
	return nil
}

func (p *Pipeline) test(ctx context.Context, st *state) error {
	p.Feedback.Stage("Running unit tests")
	done := p.Feedback.Busy("Testing")
	res, err := st.builder.Test(ctx)
	done()
	if err != nil {
		p.Feedback.ToolOutput(res.Stdout, res.Stderr)
		return stageError(ErrTestFailed, "release cancelled", err)
	}
	return nil
}

func (p *Pipeline) assemble(ctx context.Context, st *state) error {
	p.Feedback.Stage("Building release package")
	done := p.Feedback.Busy("Building")
	res, err := st.builder.Assemble(ctx)
	done()
	if err != nil {
		p.Feedback.ToolOutput(res.Stdout, res.Stderr)
		return stageError(ErrBuildFailed, "release cancelled", err)
	}
	return nil
}

func (p *Pipeline) renameArtifact(_ context.Context, st *state) error {
	if err := artifact.Rename(st.project.artifactSource, st.project.artifactDest); err != nil {
		return stageError(ErrFileSystem, "naming the release package", err)
	}
	p.Log.Info().Str("artifact", st.project.artifactDest).Msg("artifact renamed")
	return nil
}

func (p *Pipeline) commit(ctx context.Context, st *state) error {
	p.Feedback.Stage(fmt.Sprintf("Publishing %s", st.version.Tag()))

	if err := p.VCS.Add(ctx, st.project.descriptorPath); err != nil {
		return stageError(ErrVcsFailed, "failed to add file, release cancelled", err)
	}
	if err := p.VCS.Commit(ctx, st.project.commitMessage); err != nil {
		return stageError(ErrVcsFailed, "failed to commit, release cancelled", err)
	}

	sha, err := p.VCS.HeadSHA(ctx)
	if err != nil {
		p.Log.Warn().Err(err).Msg("could not resolve release commit")
		return nil
	}
	st.commitSHA = sha
	return nil
}

func (p *Pipeline) tag(ctx context.Context, st *state) error {
	if err := p.VCS.Tag(ctx, st.version.Tag(), st.project.tagMessage); err != nil {
		return stageError(ErrVcsFailed, "failed to create tag, release cancelled", err)
	}
	return nil
}

func (p *Pipeline) push(ctx context.Context, st *state) error {
	done := p.Feedback.Busy("Pushing to remote")
	defer done()

	if err := p.VCS.Push(ctx); err != nil {
		return stageError(ErrVcsFailed, "failed to push, release cancelled", err)
	}
	st.pushedHeads = true

	if err := p.VCS.PushTags(ctx); err != nil {
		return stageError(ErrVcsFailed, "failed to push tags, release cancelled", err)
	}
	return nil
}

// rollback discards uncommitted changes. It never touches the remote.
func (p *Pipeline) rollback(ctx context.Context, st *state, cause error) error {
	p.Feedback.Warn("Rolling back local changes")
	if st.pushedHeads {
		p.Log.Warn().Msg("commits already pushed to the remote are left in place")
	}

	// The run context may be cancelled already; the reset must still happen.
	if err := p.VCS.ResetHard(context.WithoutCancel(ctx)); err != nil {
		p.Log.Error().Err(err).Msg("rollback failed, inspect the working tree manually")
		return errors.Join(cause, fmt.Errorf("rollback failed: %w", err))
	}
	p.Log.Info().Msg("working tree reset")
	return cause
}
