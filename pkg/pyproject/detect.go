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

// Package pyproject inspects Python project directories: which tooling a
// project uses, and what its requirements manifest asks for.
package pyproject

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/openmined/sync-status-indicators/pkg/util"
)

type ProjectType string

const (
	ProjectTypePythonPip    ProjectType = "python.pip"
	ProjectTypePythonUV     ProjectType = "python.uv"
	ProjectTypePythonPoetry ProjectType = "python.poetry"
	ProjectTypeUnknown      ProjectType = "unknown"
)

var ErrUnknownProject = errors.New("project type could not be identified; expected requirements.txt, pyproject.toml, or lock files")

func (p ProjectType) IsPython() bool {
	return p == ProjectTypePythonPip || p == ProjectTypePythonUV || p == ProjectTypePythonPoetry
}

func (p ProjectType) IsUV() bool {
	return p == ProjectTypePythonUV
}

// LocateManifest returns the highest priority dependency file present in dir
// for the given project type.
func LocateManifest(dir string, p ProjectType) (bool, string) {
	var filesToCheck []string

	switch p {
	case ProjectTypePythonPip:
		filesToCheck = []string{
			"requirements.lock",
			"requirements.txt",
			"pyproject.toml",
		}
	case ProjectTypePythonUV:
		filesToCheck = []string{
			"uv.lock",
			"requirements.txt",
			"pyproject.toml",
		}
	case ProjectTypePythonPoetry:
		filesToCheck = []string{
			"poetry.lock",
			"pyproject.toml",
		}
	default:
		return false, ""
	}

	for _, filename := range filesToCheck {
		if _, err := os.Stat(filepath.Join(dir, filename)); err == nil {
			return true, filename
		}
	}

	return false, ""
}

// DetectProjectType determines the project type by checking for lock files,
// requirements.txt and the tool tables of pyproject.toml.
func DetectProjectType(dir string) (ProjectType, error) {
	if util.FileExists(dir, "uv.lock") {
		return ProjectTypePythonUV, nil
	}
	if util.FileExists(dir, "poetry.lock") {
		return ProjectTypePythonPoetry, nil
	}
	if util.FileExists(dir, "Pipfile.lock") || util.FileExists(dir, "pdm.lock") {
		return ProjectTypePythonPip, nil
	}

	// pyproject.toml is consulted before requirements.txt so that a uv or
	// poetry project carrying an exported requirements file is not
	// misclassified as plain pip.
	if util.FileExists(dir, "pyproject.toml") {
		data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
		if err == nil {
			var doc map[string]any
			if err := toml.Unmarshal(data, &doc); err == nil {
				if tool, ok := doc["tool"].(map[string]any); ok {
					if _, hasPoetry := tool["poetry"]; hasPoetry {
						return ProjectTypePythonPoetry, nil
					}
					if _, hasUv := tool["uv"]; hasUv {
						return ProjectTypePythonUV, nil
					}
				}
				if isUVByContent(string(data)) {
					return ProjectTypePythonUV, nil
				}
			}
		}
		return ProjectTypePythonPip, nil
	}

	if util.FileExists(dir, "requirements.txt") {
		return ProjectTypePythonPip, nil
	}

	return ProjectTypeUnknown, ErrUnknownProject
}

// isUVByContent looks for uv-only constructs: [dependency-groups] and uv
// command references.
func isUVByContent(content string) bool {
	return strings.Contains(content, "[dependency-groups]") ||
		strings.Contains(content, "uv sync") ||
		strings.Contains(content, "[tool.uv]")
}
