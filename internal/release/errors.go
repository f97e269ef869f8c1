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
	"errors"
	"fmt"
)

// Every error returned by Pipeline.Run wraps exactly one of these.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidFormat    = errors.New("invalid version format")
	ErrEnvironment      = errors.New("environment error")
	ErrDirtyWorkingTree = errors.New("working tree is not clean")
	ErrUserCancelled    = errors.New("release cancelled by user")
	ErrTestFailed       = errors.New("tests failed")
	ErrBuildFailed      = errors.New("build failed")
	ErrFileSystem       = errors.New("file system error")
	ErrVcsFailed        = errors.New("version control command failed")
)

// stageError wraps cause with the sentinel kind and a human readable stage description.
func stageError(kind error, what string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", kind, what)
	}
	return fmt.Errorf("%w: %s: %w", kind, what, cause)
}
