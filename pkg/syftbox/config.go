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

// Package syftbox reads the SyftBox client configuration.
package syftbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	ConfigPathEnv     = "SYFTBOX_CLIENT_CONFIG_PATH"
	defaultConfigDir  = ".syftbox"
	defaultConfigFile = "config.json"
	syncStatePath     = "sync/state"
)

var (
	ErrNoClientURL = errors.New("client_url is not set")
	ErrNoEmail     = errors.New("email is not set")
)

type ClientConfig struct {
	DataDir   string `json:"data_dir"`
	ClientURL string `json:"client_url"`
	ServerURL string `json:"server_url,omitempty"`
	Email     string `json:"email"`

	path string
}

// ConfigPath resolves the config location: the explicit path, then
// $SYFTBOX_CLIENT_CONFIG_PATH, then ~/.syftbox/config.json.
func ConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, defaultConfigDir, defaultConfigFile), nil
}

func Load(explicit string) (*ClientConfig, error) {
	p, err := ConfigPath(explicit)
	if err != nil {
		return nil, err
	}
	return LoadFile(p)
}

func LoadFile(p string) (*ClientConfig, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("unable to read SyftBox config: %w", err)
	}

	c := &ClientConfig{path: p}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("invalid SyftBox config %s: %w", p, err)
	}
	if c.ClientURL == "" {
		return nil, fmt.Errorf("%s: %w", p, ErrNoClientURL)
	}
	if _, err := url.Parse(c.ClientURL); err != nil {
		return nil, fmt.Errorf("%s: invalid client_url: %w", p, err)
	}
	if c.DataDir == "" {
		return nil, fmt.Errorf("%s: data_dir is not set", p)
	}
	if c.Email == "" {
		return nil, fmt.Errorf("%s: %w", p, ErrNoEmail)
	}
	c.DataDir = expandHome(c.DataDir)
	return c, nil
}

func (c *ClientConfig) Path() string {
	return c.path
}

// SyncStateURL is the client endpoint listing per-file sync state.
func (c *ClientConfig) SyncStateURL() string {
	base := c.ClientURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + syncStatePath
}

func (c *ClientConfig) Datasites() string {
	return filepath.Join(c.DataDir, "datasites")
}

// APIData returns the app's data directory inside the user's own datasite,
// creating it if needed. The app's Python side keeps its pid file and
// watermark there too.
func (c *ClientConfig) APIData(app string) (string, error) {
	dir := filepath.Join(c.Datasites(), c.Email, "api_data", app)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
