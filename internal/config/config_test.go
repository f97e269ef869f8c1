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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Loader{Environment: map[string]string{}}.Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
primaryBranch: main
descriptor:
  path: mobile/build.gradle
gradle:
  testTasks: [testDebugUnitTest, lint]
  args: ["--no-daemon"]
artifact:
  destination: "dist/app-{{.Tag}}.apk"
`)

	cfg, err := Loader{Environment: map[string]string{}}.Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.PrimaryBranch)
	assert.Equal(t, "mobile/build.gradle", cfg.Descriptor.Path)
	assert.Equal(t, []string{"testDebugUnitTest", "lint"}, cfg.Gradle.TestTasks)
	assert.Equal(t, []string{"--no-daemon"}, cfg.Gradle.Args)
	assert.Equal(t, "dist/app-{{.Tag}}.apk", cfg.Artifact.Destination)

	// Untouched fields keep their defaults.
	assert.Equal(t, "versionCode", cfg.Descriptor.VersionCodeKey)
	assert.Equal(t, []string{"assembleRelease"}, cfg.Gradle.AssembleTasks)
	assert.Equal(t, Default().ReleaseURL, cfg.ReleaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "primaryBranch: main\n")

	cfg, err := Loader{Environment: map[string]string{
		"RELEASE_PRIMARY_BRANCH":  "release",
		"RELEASE_GRADLE_ARGS":     "--offline,--stacktrace",
		"RELEASE_GRADLE_ENV_FILE": "signing.env",
		"RELEASE_LOG_LEVEL":       "debug",
	}}.Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.PrimaryBranch)
	assert.Equal(t, []string{"--offline", "--stacktrace"}, cfg.Gradle.Args)
	assert.Equal(t, "signing.env", cfg.Gradle.EnvFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestReadEnvs(t *testing.T) {
	envs, err := ReadEnvs(map[string]string{
		"RELEASE_LOG_LEVEL":   "warn",
		"RELEASE_GRADLE_ARGS": "--no-daemon",
	})
	require.NoError(t, err)
	assert.Equal(t, "warn", envs.LogLevel)
	assert.Equal(t, []string{"--no-daemon"}, envs.GradleArgs)
	assert.Empty(t, envs.ConfigPath)
}

func TestReadEnvs_ProcessEnvironment(t *testing.T) {
	t.Setenv("RELEASE_LOG_LEVEL", "error")

	envs, err := ReadEnvs(nil)
	require.NoError(t, err)
	assert.Equal(t, "error", envs.LogLevel)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Loader{Environment: map[string]string{}}.Load(t.TempDir(), "/does/not/exist.yaml")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("primaryBranch: trunk\n"), 0o644))

	cfg, err := Loader{Environment: map[string]string{"RELEASE_CONFIG": path}}.Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "trunk", cfg.PrimaryBranch)
}

func TestLoad_EmptyFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "")

	cfg, err := Loader{Environment: map[string]string{}}.Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "primaryBrnch: main\n")

	_, err := Loader{Environment: map[string]string{}}.Load(root, "")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.PrimaryBranch = ""
	cfg.Gradle.AssembleTasks = nil
	cfg.Git.TagMessage = "Version {{.Version"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "primaryBranch is required")
	assert.Contains(t, err.Error(), "gradle.assembleTasks")
	assert.Contains(t, err.Error(), "git.tagMessage")
}

func TestValidate_Default(t *testing.T) {
	require.NoError(t, Default().Validate())
}
