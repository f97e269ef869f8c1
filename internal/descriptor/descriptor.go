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

// Package descriptor rewrites the version metadata of a gradle build descriptor.
//
// Only two kinds of lines are touched:
//
//	versionCode 41          -> versionCode 42
//	versionName "1.0.0"     -> versionName "1.1.0"
//
// Every other line is written back byte for byte.
package descriptor

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultVersionCodeKey = "versionCode"
	DefaultVersionNameKey = "versionName"
	DefaultIndent         = "        "

	// MaxVersionCode is the greatest version code the android platform accepts.
	MaxVersionCode = 2100000000
)

// ErrVersionCodeNotFound is returned when no line carries a version code to bump.
var ErrVersionCodeNotFound = errors.New("version code line not found")

// ErrVersionCodeExhausted is returned when the version code cannot be incremented.
var ErrVersionCodeExhausted = errors.New("version code cannot be increased")

// Patterns holds the keys and indentation used to locate and rewrite version lines.
type Patterns struct {
	VersionCodeKey string
	VersionNameKey string
	// Indent prefixes every rewritten line.
	Indent string
}

// DefaultPatterns returns the patterns for a standard android defaultConfig block.
func DefaultPatterns() Patterns {
	return Patterns{
		VersionCodeKey: DefaultVersionCodeKey,
		VersionNameKey: DefaultVersionNameKey,
		Indent:         DefaultIndent,
	}
}

// Result reports what a rewrite changed.
type Result struct {
	OldVersionCode int
	NewVersionCode int
	// OldVersionName is the raw content between the quotes of the last versionName line, if any.
	OldVersionName string
	// VersionNameFound is false when no versionName line was present.
	VersionNameFound bool
}

type matcher struct {
	code *regexp.Regexp
	name *regexp.Regexp
}

func (p Patterns) compile() matcher {
	return matcher{
		code: regexp.MustCompile(`^\s*` + regexp.QuoteMeta(p.VersionCodeKey) + `\s+(\d+)$`),
		name: regexp.MustCompile(`^\s*` + regexp.QuoteMeta(p.VersionNameKey) + `\s+"`),
	}
}

// Rewrite applies the version bump to content and returns the new content.
func Rewrite(content []byte, version string, p Patterns) ([]byte, Result, error) {
	m := p.compile()

	var (
		out       strings.Builder
		res       Result
		codeFound bool
	)
	out.Grow(len(content) + 16)

	for _, line := range splitLines(string(content)) {
		body, eol := cutEOL(line)

		if match := m.code.FindStringSubmatch(body); match != nil {
			oldCode, err := strconv.Atoi(match[1])
			if err != nil {
				return nil, Result{}, fmt.Errorf("parsing %s %q: %w", p.VersionCodeKey, match[1], err)
			}
			if oldCode >= MaxVersionCode {
				return nil, Result{}, fmt.Errorf("%w: %s %d reaches the limit of %d",
					ErrVersionCodeExhausted, p.VersionCodeKey, oldCode, MaxVersionCode)
			}
			res.OldVersionCode = oldCode
			res.NewVersionCode = oldCode + 1
			codeFound = true

			out.WriteString(p.Indent + p.VersionCodeKey + " " + strconv.Itoa(res.NewVersionCode) + eol)
			continue
		}

		if m.name.MatchString(body) {
			res.OldVersionName = quoted(body)
			res.VersionNameFound = true

			out.WriteString(p.Indent + p.VersionNameKey + ` "` + version + `"` + eol)
			continue
		}

		out.WriteString(line)
	}

	if !codeFound {
		return nil, Result{}, fmt.Errorf("%w: no line matches %q", ErrVersionCodeNotFound, m.code.String())
	}

	return []byte(out.String()), res, nil
}

// Update rewrites the descriptor at path in place.
// The write truncates the file and is not atomic.
func Update(path, version string, p Patterns) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading build descriptor: %w", err)
	}

	updated, res, err := Rewrite(content, version, p)
	if err != nil {
		return Result{}, fmt.Errorf("rewriting %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return Result{}, fmt.Errorf("opening build descriptor for writing: %w", err)
	}
	if _, err := f.Write(updated); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("writing build descriptor: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("closing build descriptor: %w", err)
	}

	return res, nil
}

// splitLines splits s after every "\n", keeping the terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func cutEOL(line string) (body, eol string) {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2], "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// quoted returns the text after the first quote up to the next one.
func quoted(body string) string {
	_, rest, _ := strings.Cut(body, `"`)
	value, _, _ := strings.Cut(rest, `"`)
	return value
}
