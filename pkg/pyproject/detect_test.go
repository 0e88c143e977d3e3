// Copyright 2025 LiveKit, Inc.
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

package pyproject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestDetectProjectType(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		expected ProjectType
		wantErr  bool
	}{
		{
			name:     "requirements.txt only",
			files:    map[string]string{"requirements.txt": "httpx\n"},
			expected: ProjectTypePythonPip,
		},
		{
			name:     "uv lock file",
			files:    map[string]string{"uv.lock": "version = 1\n", "requirements.txt": "httpx\n"},
			expected: ProjectTypePythonUV,
		},
		{
			name:     "poetry lock file",
			files:    map[string]string{"poetry.lock": ""},
			expected: ProjectTypePythonPoetry,
		},
		{
			name: "pyproject with tool.uv",
			files: map[string]string{"pyproject.toml": `[project]
name = "sync-status-indicators"

[tool.uv]
dev-dependencies = ["pytest"]
`},
			expected: ProjectTypePythonUV,
		},
		{
			name: "pyproject with dependency groups",
			files: map[string]string{"pyproject.toml": `[project]
name = "app"

[dependency-groups]
dev = ["pytest"]
`},
			expected: ProjectTypePythonUV,
		},
		{
			name: "pyproject with tool.poetry",
			files: map[string]string{"pyproject.toml": `[tool.poetry]
name = "app"
`},
			expected: ProjectTypePythonPoetry,
		},
		{
			name: "plain pyproject beats requirements",
			files: map[string]string{
				"pyproject.toml":   "[project]\nname = \"app\"\ndependencies = [\"httpx\"]\n",
				"requirements.txt": "httpx\n",
			},
			expected: ProjectTypePythonPip,
		},
		{
			name:     "empty directory",
			files:    map[string]string{},
			expected: ProjectTypeUnknown,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)

			projectType, err := DetectProjectType(dir)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownProject)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, projectType)
			assert.Equal(t, !tt.wantErr, projectType.IsPython())
		})
	}
}

func TestLocateManifest(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"requirements.txt": "httpx\n",
		"pyproject.toml":   "[project]\nname = \"app\"\n",
	})

	found, name := LocateManifest(dir, ProjectTypePythonPip)
	assert.True(t, found)
	assert.Equal(t, "requirements.txt", name)

	found, name = LocateManifest(dir, ProjectTypePythonPoetry)
	assert.True(t, found)
	assert.Equal(t, "pyproject.toml", name)

	found, _ = LocateManifest(dir, ProjectTypeUnknown)
	assert.False(t, found)
}
