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
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openmined/sync-status-indicators/pkg/util"
)

const (
	UserConfigDir  = ".syncstatus"
	UserConfigFile = "cli-config.yaml"
)

// CLIConfig holds per-user defaults. Every field is optional.
type CLIConfig struct {
	Installer     string `yaml:"installer,omitempty"`
	Python        string `yaml:"python,omitempty"`
	Labeler       string `yaml:"labeler,omitempty"`
	Workers       int    `yaml:"workers,omitempty"`
	SyftBoxConfig string `yaml:"syftbox_config,omitempty"`
	// absent from YAML
	hasPersisted bool
}

// LoadOrCreate loads config file from ~/.syncstatus/cli-config.yaml
// if it doesn't exist, it'll return an empty config file
func LoadOrCreate() (*CLIConfig, error) {
	configPath, err := getConfigLocation()
	if err != nil {
		return nil, err
	}
	return LoadUserConfig(configPath)
}

func LoadUserConfig(configPath string) (*CLIConfig, error) {
	c := &CLIConfig{}
	if s, err := os.Stat(configPath); os.IsNotExist(err) {
		return c, nil
	} else if err != nil {
		return nil, err
	} else if s.Mode().Perm()&0022 != 0 {
		// the config chooses which executables get run
		fmt.Fprintf(os.Stderr, "WARNING: config file %s should not be writable by group or others\n", configPath)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	if err = yaml.Unmarshal(content, c); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	c.hasPersisted = true

	return c, nil
}

func (c *CLIConfig) HasPersisted() bool {
	return c.hasPersisted
}

func (c *CLIConfig) IsEmpty() bool {
	return *c == CLIConfig{hasPersisted: c.hasPersisted}
}

func (c *CLIConfig) PersistIfNeeded() error {
	if c.IsEmpty() && !c.hasPersisted {
		// doesn't need to be persisted
		return nil
	}

	configPath, err := getConfigLocation()
	if err != nil {
		return err
	}
	return c.Save(configPath)
}

func (c *CLIConfig) Save(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err = os.WriteFile(configPath, data, 0600); err != nil {
		return err
	}
	fmt.Printf("Saved CLI config to [%s]\n", util.Accented(configPath))
	c.hasPersisted = true
	return nil
}

func getConfigLocation() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, UserConfigDir, UserConfigFile), nil
}
