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

// Package version reports the build information of the release tool itself.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Info holds version information for a tool.
type Info struct {
	// ToolName is the name of the tool
	ToolName string
	// Version is set via ldflags or from build info
	Version string
	// CommitSHA is set via ldflags or from build info
	CommitSHA string
	// BuildTimestamp is set via ldflags or from build info
	BuildTimestamp string
}

// New creates a new Info with default values.
func New(toolName string) *Info {
	return &Info{
		ToolName:       toolName,
		Version:        "dev",
		CommitSHA:      "unknown",
		BuildTimestamp: "unknown",
	}
}

// Resolve fills defaulted fields from the Go build information when available
// (go install records the module version and VCS settings).
func (i *Info) Resolve() Info {
	return i.resolve(debug.ReadBuildInfo)
}

func (i *Info) resolve(read func() (*debug.BuildInfo, bool)) Info {
	out := *i

	info, ok := read()
	if !ok {
		return out
	}

	if out.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if out.CommitSHA == "unknown" && len(setting.Value) >= 7 {
				out.CommitSHA = setting.Value[:7]
			}
		case "vcs.time":
			if out.BuildTimestamp == "unknown" {
				out.BuildTimestamp = setting.Value
			}
		}
	}

	return out
}

// Fprint writes the resolved version information to w.
func (i *Info) Fprint(w io.Writer) {
	r := i.Resolve()
	fmt.Fprintf(w, "%s version %s\n", r.ToolName, r.Version)
	fmt.Fprintf(w, "  commit:    %s\n", r.CommitSHA)
	fmt.Fprintf(w, "  built:     %s\n", r.BuildTimestamp)
	fmt.Fprintf(w, "  go:        %s\n", runtime.Version())
	fmt.Fprintf(w, "  platform:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
