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

package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexandremahdhaoui/apk-release/internal/cmdutil"
	"github.com/alexandremahdhaoui/apk-release/internal/config"
	"github.com/alexandremahdhaoui/apk-release/internal/gitutil"
	"github.com/alexandremahdhaoui/apk-release/internal/gradle"
	"github.com/alexandremahdhaoui/apk-release/internal/logging"
	"github.com/alexandremahdhaoui/apk-release/internal/prompt"
	"github.com/alexandremahdhaoui/apk-release/internal/release"
	"github.com/alexandremahdhaoui/apk-release/internal/ui"
	"github.com/alexandremahdhaoui/apk-release/internal/version"
)

// errReported marks a failure that was already shown to the operator.
var errReported = errors.New("release failed")

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type options struct {
	configPath string
	logLevel   string
	yes        bool
	quiet      bool
	noColor    bool
}

func newRootCmd(s streams) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   Name + " <version>",
		Short: "Cut a release of an android application",
		Long: `Bumps the version of the build descriptor, runs the unit tests, assembles
the release APK, then commits, tags and pushes the release.

The version must match MAJOR.MINOR.PATCH with an optional -alphaN, -betaN or
-rcN suffix, e.g. 1.2.0 or 2.0.0-beta3.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			return run(cmd, s, opts, raw)
		},
	}

	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default <repository>/"+config.DefaultFileName+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "answer yes to every confirmation")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "hide build tool output unless it fails")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newVersionCmd(s))
	return cmd
}

func newVersionCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of " + Name,
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			info := version.New(Name)
			info.Version = Version
			info.CommitSHA = CommitSHA
			info.BuildTimestamp = BuildTimestamp
			info.Fprint(s.out)
		},
	}
}

func run(cmd *cobra.Command, s streams, opts *options, rawVersion string) error {
	color := !opts.noColor && isTerminal(s.out)
	reporter := ui.New(s.out, ui.Options{Color: color, Quiet: opts.quiet})

	// The log level is needed before the repository, and its config file, is located.
	envs, err := config.ReadEnvs(nil)
	if err != nil {
		reporter.Failure(err)
		return errReported
	}
	level := opts.logLevel
	if level == "" {
		level = envs.LogLevel
	}
	log, err := logging.New(s.err, logging.Options{Level: level, NoColor: !isTerminal(s.err)})
	if err != nil {
		reporter.Failure(err)
		return errReported
	}

	runner := cmdutil.ExecRunner{}
	git := gitutil.New(runner, "")
	if !opts.quiet {
		git = git.WithOutput(s.out, s.err)
	}

	var confirm release.Confirmer = prompt.Always(true)
	if !opts.yes {
		confirm = terminalHint{Prompter: prompt.New(s.in, s.out), feedback: reporter}
	}

	p := &release.Pipeline{
		VCS:      git,
		Confirm:  confirm,
		Feedback: reporter,
		Log:      log,
	}
	p.Prepare = func(root string) (config.Config, release.Builder, error) {
		cfg, err := config.Load(root, opts.configPath)
		if err != nil {
			return config.Config{}, nil, err
		}
		if opts.logLevel == "" {
			if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
				p.Log = p.Log.Level(lvl)
			}
		}

		g := gradle.New(runner, root, gradle.Config{
			Wrapper:       cfg.Gradle.Wrapper,
			TestTasks:     cfg.Gradle.TestTasks,
			AssembleTasks: cfg.Gradle.AssembleTasks,
			Args:          cfg.Gradle.Args,
			EnvFile:       cfg.Gradle.EnvFile,
		})
		if !opts.quiet {
			g = g.WithOutput(s.out, s.err)
		}
		return cfg, g, nil
	}

	summary, err := p.Run(cmd.Context(), rawVersion)
	if err != nil {
		reporter.Failure(err)
		return errReported
	}

	reporter.Summary(ui.SummaryView{
		Tag:          summary.Tag,
		ReleaseURL:   summary.ReleaseURL,
		ArtifactPath: summary.ArtifactPath,
		VersionCode:  summary.NewVersionCode,
		CommitSHA:    summary.CommitSHA,
	})
	reporter.Success("Done")
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalHint suggests --yes before asking when answers cannot come from a terminal.
type terminalHint struct {
	*prompt.Prompter
	feedback release.Feedback
}

func (h terminalHint) Confirm(question string) (bool, error) {
	if !h.Interactive() {
		h.feedback.Warn("Standard input is not a terminal, pass --yes to confirm without a prompt.")
	}
	return h.Prompter.Confirm(question)
}
