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

package syftbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(ConfigPathEnv, "")

	p, err := ConfigPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".syftbox", "config.json"), p)

	t.Setenv(ConfigPathEnv, "/etc/syftbox.json")
	p, err = ConfigPath("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/syftbox.json", p)

	p, err = ConfigPath("/explicit.json")
	require.NoError(t, err)
	assert.Equal(t, "/explicit.json", p)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "SyftBox")
	p := writeConfig(t, dir, `{
		"data_dir": "`+dataDir+`",
		"client_url": "http://127.0.0.1:8080",
		"server_url": "https://syftbox.openmined.org",
		"email": "alice@openmined.org",
		"token": "ignored"
	}`)

	c, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, p, c.Path())
	assert.Equal(t, "alice@openmined.org", c.Email)
	assert.Equal(t, "http://127.0.0.1:8080/sync/state", c.SyncStateURL())
	assert.Equal(t, filepath.Join(dataDir, "datasites"), c.Datasites())

	apiDir, err := c.APIData("sync_status_indicators")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "datasites", "alice@openmined.org", "api_data", "sync_status_indicators"), apiDir)
	assert.DirExists(t, apiDir)
}

func TestLoadViaEnv(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, `{"data_dir": "/data", "client_url": "http://localhost:8080/", "email": "bob@openmined.org"}`)
	t.Setenv(ConfigPathEnv, p)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/sync/state", c.SyncStateURL())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadFile(writeConfig(t, dir, `{not json`))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, dir, `{"data_dir": "/data", "email": "bob@openmined.org"}`))
	assert.ErrorIs(t, err, ErrNoClientURL)

	_, err = LoadFile(writeConfig(t, dir, `{"client_url": "http://localhost:8080", "email": "bob@openmined.org"}`))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, dir, `{"data_dir": "/data", "client_url": "http://localhost:8080"}`))
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "SyftBox"), expandHome("~/SyftBox"))
	assert.Equal(t, "/abs", expandHome("/abs"))
}
