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

// Package ui renders operator-facing release output.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Options configures a Reporter.
type Options struct {
	// Color enables ANSI colors.
	Color bool
	// Quiet hides external tool output and shows a spinner instead.
	// Captured output is still printed when a tool fails.
	Quiet bool
}

// Reporter writes stage banners, status lines and the final summary.
type Reporter struct {
	out  io.Writer
	opts Options
}

// New returns a Reporter writing to out.
func New(out io.Writer, opts Options) *Reporter {
	return &Reporter{out: out, opts: opts}
}

// Stage prints a boxed banner announcing a stage.
func (r *Reporter) Stage(title string) {
	r.println(r.box(r.paint(title, text.Bold, text.FgCyan)))
}

// Info prints a plain status line.
func (r *Reporter) Info(msg string) {
	r.println(msg)
}

// Success prints a green status line.
func (r *Reporter) Success(msg string) {
	r.println(r.paint("✅ "+msg, text.FgGreen))
}

// Warn prints a yellow status line.
func (r *Reporter) Warn(msg string) {
	r.println(r.paint("⚠️  "+msg, text.FgYellow))
}

// Failure prints err in a red box.
func (r *Reporter) Failure(err error) {
	r.println(r.box(r.paint("❌ "+err.Error(), text.FgRed)))
}

// Busy marks the start of a long running step and returns the function that ends it.
// In quiet mode a spinner runs until the returned function is called.
func (r *Reporter) Busy(title string) func() {
	if !r.opts.Quiet {
		r.println(r.paint(title+"...", text.Faint))
		return func() {}
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(r.out))
	if r.opts.Color {
		_ = s.Color("yellow")
	}
	s.Suffix = " " + title + "..."
	s.Start()
	return s.Stop
}

// ToolOutput prints captured output of a failed tool. Nothing is printed unless quiet,
// since otherwise the output already went to the terminal.
func (r *Reporter) ToolOutput(stdout, stderr string) {
	if !r.opts.Quiet {
		return
	}
	for _, chunk := range []string{stdout, stderr} {
		if chunk = strings.TrimRight(chunk, "\n"); chunk != "" {
			r.println(chunk)
		}
	}
}

// SummaryView is the data shown once a release is published.
type SummaryView struct {
	Tag          string
	ReleaseURL   string
	ArtifactPath string
	VersionCode  int
	CommitSHA    string
}

// Summary prints the follow-up instructions for a published release.
func (r *Reporter) Summary(s SummaryView) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(r.paint("Release "+s.Tag+" published", text.Bold, text.FgGreen))
	t.AppendRow(table.Row{"Tag", s.Tag})
	t.AppendRow(table.Row{"Version code", s.VersionCode})
	if s.CommitSHA != "" {
		t.AppendRow(table.Row{"Commit", s.CommitSHA})
	}
	t.AppendRow(table.Row{"Create release", s.ReleaseURL})
	t.AppendRow(table.Row{"Upload APK", s.ArtifactPath})

	r.println("")
	r.println(t.Render())
	r.println("Now create a release at the URL above and upload the APK file.")
}

func (r *Reporter) box(content string) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{content})
	return t.Render()
}

func (r *Reporter) paint(s string, colors ...text.Color) string {
	if !r.opts.Color {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (r *Reporter) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}
