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

package descriptor

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buildGradle = `apply plugin: 'com.android.application'

android {
    compileSdkVersion 23
    buildToolsVersion "23.0.2"

    defaultConfig {
        applicationId "org.cook_e.cook_e"
        minSdkVersion 15
        targetSdkVersion 23
      versionCode 5
	versionName "1.0.0"
    }
    buildTypes {
        release {
            minifyEnabled false
        }
    }
}

dependencies {
    testCompile 'junit:junit:4.12'
}
`

func TestRewrite_RoundTrip(t *testing.T) {
	out, res, err := Rewrite([]byte(buildGradle), "1.1.0", DefaultPatterns())
	require.NoError(t, err)

	assert.Equal(t, 5, res.OldVersionCode)
	assert.Equal(t, 6, res.NewVersionCode)
	assert.Equal(t, "1.0.0", res.OldVersionName)
	assert.True(t, res.VersionNameFound)

	expected := strings.Replace(buildGradle, "      versionCode 5\n", "        versionCode 6\n", 1)
	expected = strings.Replace(expected, "\tversionName \"1.0.0\"\n", "        versionName \"1.1.0\"\n", 1)
	assert.Equal(t, expected, string(out))
}

func TestRewrite_UnrelatedLinesUntouched(t *testing.T) {
	out, _, err := Rewrite([]byte(buildGradle), "2.0.0-beta3", DefaultPatterns())
	require.NoError(t, err)

	before := strings.Split(buildGradle, "\n")
	after := strings.Split(string(out), "\n")
	require.Len(t, after, len(before))

	for i := range before {
		if strings.Contains(before[i], "versionCode") || strings.Contains(before[i], "versionName") {
			continue
		}
		assert.Equal(t, before[i], after[i], "line %d changed", i+1)
	}
}

func TestRewrite_PatternEdges(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "no leading whitespace",
			in:   "versionCode 9\n",
			want: "        versionCode 10\n",
		},
		{
			name:    "trailing content keeps line and leaves nothing to bump",
			in:      "versionCode 9 // bumped by release\n",
			wantErr: true,
		},
		{
			name:    "version code from a variable is not bumped",
			in:      "versionCode rootProject.ext.code\n",
			wantErr: true,
		},
		{
			name: "unquoted version name is preserved",
			in:   "versionCode 1\nversionName rootProject.ext.name\n",
			want: "        versionCode 2\nversionName rootProject.ext.name\n",
		},
		{
			name: "key prefix of another identifier is preserved",
			in:   "versionCode 1\nversionNameSuffix \"-dev\"\n",
			want: "        versionCode 2\nversionNameSuffix \"-dev\"\n",
		},
		{
			name: "crlf line endings are kept",
			in:   "a\r\n  versionCode 3\r\n  versionName \"0.1.0\"\r\n",
			want: "a\r\n        versionCode 4\r\n        versionName \"9.9.9\"\r\n",
		},
		{
			name: "last line without newline",
			in:   "versionCode 3",
			want: "        versionCode 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := Rewrite([]byte(tt.in), "9.9.9", DefaultPatterns())
			if tt.wantErr {
				require.ErrorIs(t, err, ErrVersionCodeNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestRewrite_CustomPatterns(t *testing.T) {
	p := Patterns{VersionCodeKey: "appVersionCode", VersionNameKey: "appVersionName", Indent: "    "}
	out, res, err := Rewrite([]byte("appVersionCode 41\nappVersionName \"3.0.0\"\n"), "3.1.0", p)
	require.NoError(t, err)
	assert.Equal(t, 42, res.NewVersionCode)
	assert.Equal(t, "    appVersionCode 42\n    appVersionName \"3.1.0\"\n", string(out))
}

func TestRewrite_WithoutVersionName(t *testing.T) {
	_, res, err := Rewrite([]byte("versionCode 1\n"), "1.0.0", DefaultPatterns())
	require.NoError(t, err)
	assert.False(t, res.VersionNameFound)
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.gradle")
	require.NoError(t, os.WriteFile(path, []byte(buildGradle), 0o644))

	res, err := Update(path, "1.1.0", DefaultPatterns())
	require.NoError(t, err)
	assert.Equal(t, 6, res.NewVersionCode)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "        versionCode 6\n")
	assert.Contains(t, string(content), "        versionName \"1.1.0\"\n")
	assert.NotContains(t, string(content), "versionCode 5")
}

func TestUpdate_ShorterContentTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.gradle")
	require.NoError(t, os.WriteFile(path, []byte("versionCode                 1\nversionName \"a-very-long-old-version\"\n"), 0o644))

	_, err := Update(path, "1.0.0", DefaultPatterns())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "        versionCode 2\n        versionName \"1.0.0\"\n", string(content))
}

func TestUpdate_MissingFile(t *testing.T) {
	_, err := Update(filepath.Join(t.TempDir(), "missing.gradle"), "1.0.0", DefaultPatterns())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdate_NothingToBumpLeavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.gradle")
	original := "android {}\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	_, err := Update(path, "1.0.0", DefaultPatterns())
	require.ErrorIs(t, err, ErrVersionCodeNotFound)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(content))
}

func TestRewrite_VersionCodeLimits(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "android ceiling", code: strconv.Itoa(MaxVersionCode)},
		{name: "max int", code: strconv.Itoa(math.MaxInt)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := Rewrite([]byte("        versionCode "+tt.code+"\n"), "1.0.0", DefaultPatterns())
			require.ErrorIs(t, err, ErrVersionCodeExhausted)
			assert.Nil(t, out)
		})
	}
}

func TestRewrite_LastCodeBelowCeiling(t *testing.T) {
	out, res, err := Rewrite([]byte("versionCode 2099999999\n"), "1.0.0", DefaultPatterns())
	require.NoError(t, err)
	assert.Equal(t, MaxVersionCode, res.NewVersionCode)
	assert.Equal(t, "        versionCode 2100000000\n", string(out))
}

func TestRewrite_VersionCodeOutOfRange(t *testing.T) {
	_, _, err := Rewrite([]byte("versionCode 99999999999999999999999\n"), "1.0.0", DefaultPatterns())
	require.ErrorIs(t, err, strconv.ErrRange)
}

func TestUpdate_ExhaustedCodeLeavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.gradle")
	original := "versionCode 2100000000\nversionName \"9.9.9\"\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	_, err := Update(path, "10.0.0", DefaultPatterns())
	require.ErrorIs(t, err, ErrVersionCodeExhausted)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(content))
}
