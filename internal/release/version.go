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
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// versionPattern accepts MAJOR.MINOR.PATCH with an optional -alphaN, -betaN or -rcN suffix.
func versionPattern() *regexp.Regexp {
	return regexp.MustCompile(`^\d+\.\d+\.\d+(-(alpha|beta|rc)\d+)?$`)
}

// Version is a validated release version such as "1.4.0" or "2.0.0-rc1".
type Version struct {
	raw        string
	prerelease string
}

// ParseVersion validates raw and returns it as a Version. It never alters the input.
func ParseVersion(raw string) (Version, error) {
	if raw == "" {
		return Version{}, fmt.Errorf("%w: please specify a version number", ErrInvalidArgument)
	}

	m := versionPattern().FindStringSubmatch(raw)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q is not a valid version number (expected MAJOR.MINOR.PATCH[-alphaN|-betaN|-rcN], without a leading 'v')",
			ErrInvalidFormat, raw)
	}

	return Version{raw: raw, prerelease: m[2]}, nil
}

// String returns the version exactly as it was given.
func (v Version) String() string {
	return v.raw
}

// Tag returns the git tag name for this version.
func (v Version) Tag() string {
	return "v" + v.raw
}

// Prerelease reports whether the version carries an alpha, beta or rc suffix.
func (v Version) Prerelease() bool {
	return v.prerelease != ""
}

// Supersedes reports whether v is strictly greater than previous under semver ordering.
// ok is false when previous is not a semantic version, in which case no ordering applies.
func (v Version) Supersedes(previous string) (greater, ok bool) {
	prev, err := semver.NewVersion(previous)
	if err != nil {
		return false, false
	}
	cur, err := semver.NewVersion(v.raw)
	if err != nil {
		return false, false
	}
	return cur.GreaterThan(prev), true
}
