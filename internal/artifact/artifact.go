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

// Package artifact names the package produced by the build.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

// ErrSourceMissing is returned when the build output is not where it is expected.
var ErrSourceMissing = errors.New("build output not found")

// NameData is the data available to destination templates.
type NameData struct {
	Version string
	Tag     string
}

// ParseTemplate parses a destination path template such as "app/build/outputs/apk/Cook-E-{{.Version}}.apk".
func ParseTemplate(tmpl string) (*template.Template, error) {
	t, err := template.New("artifact").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact template %q: %w", tmpl, err)
	}
	return t, nil
}

// Render executes the destination template and resolves it against root.
func Render(t *template.Template, root string, data NameData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute artifact template: %w", err)
	}
	return Resolve(root, buf.String()), nil
}

// Rename moves src to dst, creating dst's parent directory if needed.
func Rename(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return fmt.Errorf("checking build output: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", src, dst, err)
	}
	return nil
}

// Resolve joins a configured relative path with the project root.
func Resolve(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}
