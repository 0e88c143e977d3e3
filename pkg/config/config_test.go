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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUserConfig(t *testing.T) {
	t.Run("missing file yields empty config", func(t *testing.T) {
		c, err := LoadUserConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
		assert.False(t, c.HasPersisted())
	})

	t.Run("reads values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), UserConfigFile)
		content := "installer: pip\npython: /usr/bin/python3.12\nlabeler: xattr\nworkers: 4\nsyftbox_config: /tmp/syftbox.json\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		c, err := LoadUserConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "pip", c.Installer)
		assert.Equal(t, "/usr/bin/python3.12", c.Python)
		assert.Equal(t, "xattr", c.Labeler)
		assert.Equal(t, 4, c.Workers)
		assert.Equal(t, "/tmp/syftbox.json", c.SyftBoxConfig)
		assert.True(t, c.HasPersisted())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), UserConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("workers: [not a number"), 0600))

		_, err := LoadUserConfig(path)
		require.Error(t, err)
	})
}

func TestUserConfigRoundTripUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	empty, err := LoadOrCreate()
	require.NoError(t, err)
	require.NoError(t, empty.PersistIfNeeded())
	_, err = os.Stat(filepath.Join(home, UserConfigDir, UserConfigFile))
	assert.True(t, os.IsNotExist(err), "empty config should not be written")

	c := &CLIConfig{Installer: "uv", Workers: 8}
	require.NoError(t, c.PersistIfNeeded())

	loaded, err := LoadOrCreate()
	require.NoError(t, err)
	assert.Equal(t, "uv", loaded.Installer)
	assert.Equal(t, 8, loaded.Workers)
}

func TestProjectTOML(t *testing.T) {
	dir := t.TempDir()

	cfg, exists, err := LoadTOMLFile(dir, ProjectTOMLFile)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, cfg)

	require.NoError(t, NewProjectTOML().SaveTOMLFile(dir, ProjectTOMLFile))

	cfg, exists, err = LoadTOMLFile(dir, ProjectTOMLFile)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NotNil(t, cfg.Environment)
	assert.Equal(t, DefaultEnvDir, cfg.Environment.Dir)
	require.NotNil(t, cfg.Dependencies)
	require.NotNil(t, cfg.Dependencies.Upgrade)
	assert.True(t, *cfg.Dependencies.Upgrade)
	assert.Equal(t, DefaultEntrypoint, cfg.Entrypoint.Script)
	assert.Nil(t, cfg.Apply)
}

func TestLoadTOMLFileInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectTOMLFile), []byte("[environment\ndir = "), 0644))

	_, exists, err := LoadTOMLFile(dir, ProjectTOMLFile)
	assert.True(t, exists)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResolve(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := Resolve(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, Defaults(), s)
		assert.Equal(t, ".venv", s.EnvDir)
		assert.Equal(t, "syftbox", s.Package)
		assert.Equal(t, "requirements.txt", s.Manifest)
		assert.Equal(t, "main.py", s.Entrypoint)
		assert.True(t, s.Upgrade)
	})

	t.Run("project overrides user", func(t *testing.T) {
		noUpgrade := false
		user := &CLIConfig{Installer: "pip", Python: "python3.11", Workers: 2, Labeler: "finder"}
		project := &ProjectTOML{
			Environment:  &EnvironmentConfig{Installer: "uv", Dir: "env"},
			Dependencies: &DependenciesConfig{Upgrade: &noUpgrade, Manifest: "reqs.txt"},
			Entrypoint:   &EntrypointConfig{EnvFile: ".env.local"},
			Apply: &ApplyConfig{
				Workers:  6,
				Exclude:  []string{"**/*.tmp"},
				Rate:     10,
				Interval: "30s",
			},
		}

		s, err := Resolve(user, project)
		require.NoError(t, err)
		assert.Equal(t, "uv", s.Installer)
		assert.Equal(t, "python3.11", s.Python)
		assert.Equal(t, "env", s.EnvDir)
		assert.False(t, s.Upgrade)
		assert.Equal(t, "reqs.txt", s.Manifest)
		assert.Equal(t, ".env.local", s.EnvFile)
		assert.Equal(t, "finder", s.Labeler)
		assert.Equal(t, 6, s.Workers)
		assert.Equal(t, []string{"**/*.tmp"}, s.Exclude)
		assert.Equal(t, 10.0, s.Rate)
		assert.Equal(t, 30*time.Second, s.Interval)
	})

	t.Run("invalid apply section", func(t *testing.T) {
		_, err := Resolve(nil, &ProjectTOML{Apply: &ApplyConfig{Interval: "soon"}})
		require.ErrorIs(t, err, ErrInvalidConfig)

		_, err = Resolve(nil, &ProjectTOML{Apply: &ApplyConfig{Workers: -1}})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}
