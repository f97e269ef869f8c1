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

// Package config loads the release configuration.
//
// Values are resolved with the following precedence (highest to lowest):
//  1. RELEASE_* environment variables
//  2. The YAML config file (.release.yaml at the repository root, or an explicit path)
//  3. Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up at the repository root when no explicit path is given.
const DefaultFileName = ".release.yaml"

// ErrInvalidConfig is returned for unreadable, malformed or inconsistent configuration.
var ErrInvalidConfig = errors.New("invalid release configuration")

// Config is the complete release configuration.
type Config struct {
	// PrimaryBranch is the branch releases are normally cut from.
	PrimaryBranch string `yaml:"primaryBranch"`
	// ReleaseURL is the page where the operator drafts the hosted release.
	ReleaseURL string `yaml:"releaseURL"`
	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"logLevel"`

	Descriptor DescriptorConfig `yaml:"descriptor"`
	Gradle     GradleConfig     `yaml:"gradle"`
	Artifact   ArtifactConfig   `yaml:"artifact"`
	Git        GitConfig        `yaml:"git"`
}

// DescriptorConfig locates the version lines of the build descriptor.
type DescriptorConfig struct {
	// Path is relative to the repository root unless absolute.
	Path           string `yaml:"path"`
	VersionCodeKey string `yaml:"versionCodeKey"`
	VersionNameKey string `yaml:"versionNameKey"`
	Indent         string `yaml:"indent"`
}

// GradleConfig selects the build tool invocation.
type GradleConfig struct {
	Wrapper       string   `yaml:"wrapper"`
	TestTasks     []string `yaml:"testTasks"`
	AssembleTasks []string `yaml:"assembleTasks"`
	Args          []string `yaml:"args"`
	EnvFile       string   `yaml:"envFile"`
}

// ArtifactConfig describes the build output and its release name.
type ArtifactConfig struct {
	// Source is the fixed path the build writes the package to.
	Source string `yaml:"source"`
	// Destination is a text/template with .Version and .Tag.
	Destination string `yaml:"destination"`
}

// GitConfig holds the commit and tag message templates (.Version and .Tag).
type GitConfig struct {
	CommitMessage string `yaml:"commitMessage"`
	TagMessage    string `yaml:"tagMessage"`
}

// Envs holds the environment variable overrides.
type Envs struct {
	// ConfigPath replaces the default config file location.
	ConfigPath     string   `env:"RELEASE_CONFIG"`
	PrimaryBranch  string   `env:"RELEASE_PRIMARY_BRANCH"`
	ReleaseURL     string   `env:"RELEASE_URL"`
	LogLevel       string   `env:"RELEASE_LOG_LEVEL"`
	DescriptorPath string   `env:"RELEASE_DESCRIPTOR_PATH"`
	GradleWrapper  string   `env:"RELEASE_GRADLE_WRAPPER"`
	GradleArgs     []string `env:"RELEASE_GRADLE_ARGS"`
	GradleEnvFile  string   `env:"RELEASE_GRADLE_ENV_FILE"`
}

// Default returns the configuration of the Cook-E android project.
func Default() Config {
	return Config{
		PrimaryBranch: "master",
		ReleaseURL:    "https://github.com/Cook-E-team/Cook-E/releases/new",
		LogLevel:      "info",
		Descriptor: DescriptorConfig{
			Path:           "app/build.gradle",
			VersionCodeKey: "versionCode",
			VersionNameKey: "versionName",
			Indent:         "        ",
		},
		Gradle: GradleConfig{
			Wrapper:       "gradlew",
			TestTasks:     []string{"testReleaseUnitTest"},
			AssembleTasks: []string{"assembleRelease"},
		},
		Artifact: ArtifactConfig{
			Source:      "app/build/outputs/apk/app-release-unsigned.apk",
			Destination: "app/build/outputs/apk/Cook-E-{{.Version}}.apk",
		},
		Git: GitConfig{
			CommitMessage: "Version increased to {{.Tag}}",
			TagMessage:    "Version {{.Version}}",
		},
	}
}

// Loader reads configuration from disk and the environment.
type Loader struct {
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load resolves the configuration for the repository at root.
// explicitPath, when set, must exist; the default file is optional.
func (l Loader) Load(root, explicitPath string) (Config, error) {
	envs, err := ReadEnvs(l.Environment)
	if err != nil {
		return Config{}, err
	}

	path, required := explicitPath, explicitPath != ""
	if path == "" && envs.ConfigPath != "" {
		path, required = envs.ConfigPath, true
	}
	if path == "" {
		path = filepath.Join(root, DefaultFileName)
	}

	cfg := Default()
	if err := readFile(path, required, &cfg); err != nil {
		return Config{}, err
	}

	applyEnvs(&cfg, envs)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadEnvs parses the RELEASE_* variables of environment, or of the process when nil.
func ReadEnvs(environment map[string]string) (Envs, error) {
	envs := Envs{}
	if err := env.ParseWithOptions(&envs, env.Options{Environment: environment}); err != nil {
		return Envs{}, fmt.Errorf("%w: environment parse failed: %w", ErrInvalidConfig, err)
	}
	return envs, nil
}

// Load is Loader{}.Load using the process environment.
func Load(root, explicitPath string) (Config, error) {
	return Loader{}.Load(root, explicitPath)
}

func readFile(path string, required bool, cfg *Config) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

func applyEnvs(cfg *Config, envs Envs) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.PrimaryBranch, envs.PrimaryBranch)
	override(&cfg.ReleaseURL, envs.ReleaseURL)
	override(&cfg.LogLevel, envs.LogLevel)
	override(&cfg.Descriptor.Path, envs.DescriptorPath)
	override(&cfg.Gradle.Wrapper, envs.GradleWrapper)
	override(&cfg.Gradle.EnvFile, envs.GradleEnvFile)
	if len(envs.GradleArgs) > 0 {
		cfg.Gradle.Args = envs.GradleArgs
	}
}

// Validate reports every missing or malformed field at once.
func (c Config) Validate() error {
	var errs []error

	for _, f := range []struct{ name, value string }{
		{"primaryBranch", c.PrimaryBranch},
		{"releaseURL", c.ReleaseURL},
		{"descriptor.path", c.Descriptor.Path},
		{"descriptor.versionCodeKey", c.Descriptor.VersionCodeKey},
		{"descriptor.versionNameKey", c.Descriptor.VersionNameKey},
		{"gradle.wrapper", c.Gradle.Wrapper},
		{"artifact.source", c.Artifact.Source},
		{"artifact.destination", c.Artifact.Destination},
		{"git.commitMessage", c.Git.CommitMessage},
		{"git.tagMessage", c.Git.TagMessage},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.name))
		}
	}

	if len(c.Gradle.TestTasks) == 0 {
		errs = append(errs, errors.New("gradle.testTasks must list at least one task"))
	}
	if len(c.Gradle.AssembleTasks) == 0 {
		errs = append(errs, errors.New("gradle.assembleTasks must list at least one task"))
	}

	for _, f := range []struct{ name, tmpl string }{
		{"artifact.destination", c.Artifact.Destination},
		{"git.commitMessage", c.Git.CommitMessage},
		{"git.tagMessage", c.Git.TagMessage},
	} {
		if _, err := template.New(f.name).Parse(f.tmpl); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
