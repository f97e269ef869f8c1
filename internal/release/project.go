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
	"bytes"
	"fmt"
	"net/url"
	"text/template"

	"github.com/alexandremahdhaoui/apk-release/internal/artifact"
	"github.com/alexandremahdhaoui/apk-release/internal/config"
	"github.com/alexandremahdhaoui/apk-release/internal/descriptor"
)

// project is the configuration of one release resolved against the repository root.
type project struct {
	primaryBranch  string
	descriptorPath string
	patterns       descriptor.Patterns
	artifactSource string
	artifactDest   string
	commitMessage  string
	tagMessage     string
	releaseURL     string
}

type templateData struct {
	Version string
	Tag     string
}

func newProject(root string, cfg config.Config, v Version) (project, error) {
	data := templateData{Version: v.String(), Tag: v.Tag()}

	destTmpl, err := artifact.ParseTemplate(cfg.Artifact.Destination)
	if err != nil {
		return project{}, err
	}
	dest, err := artifact.Render(destTmpl, root, artifact.NameData(data))
	if err != nil {
		return project{}, err
	}

	commitMsg, err := render("commit message", cfg.Git.CommitMessage, data)
	if err != nil {
		return project{}, err
	}
	tagMsg, err := render("tag message", cfg.Git.TagMessage, data)
	if err != nil {
		return project{}, err
	}

	releaseURL, err := ReleaseURL(cfg.ReleaseURL, v.Tag(), v.Prerelease())
	if err != nil {
		return project{}, err
	}

	return project{
		primaryBranch:  cfg.PrimaryBranch,
		descriptorPath: artifact.Resolve(root, cfg.Descriptor.Path),
		patterns: descriptor.Patterns{
			VersionCodeKey: cfg.Descriptor.VersionCodeKey,
			VersionNameKey: cfg.Descriptor.VersionNameKey,
			Indent:         cfg.Descriptor.Indent,
		},
		artifactSource: artifact.Resolve(root, cfg.Artifact.Source),
		artifactDest:   dest,
		commitMessage:  commitMsg,
		tagMessage:     tagMsg,
		releaseURL:     releaseURL,
	}, nil
}

// ReleaseURL returns the page for drafting the hosted release of tag.
// Pre-releases are flagged so the form opens with the pre-release box checked.
func ReleaseURL(base, tag string, prerelease bool) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid release URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid release URL %q: scheme and host are required", base)
	}

	q := u.Query()
	q.Set("tag", tag)
	if prerelease {
		q.Set("prerelease", "1")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func render(name, tmpl string, data templateData) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
