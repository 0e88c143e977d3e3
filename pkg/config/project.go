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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/livekit/protocol/logger"

	"github.com/openmined/sync-status-indicators/pkg/util"
)

const (
	ProjectTOMLFile = "syncstatus.toml"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration file")
)

type ProjectTOML struct {
	Environment  *EnvironmentConfig  `toml:"environment"`
	Dependencies *DependenciesConfig `toml:"dependencies"`
	Entrypoint   *EntrypointConfig   `toml:"entrypoint"`
	Apply        *ApplyConfig        `toml:"apply"`
}

type EnvironmentConfig struct {
	Dir       string `toml:"dir,omitempty"`
	Python    string `toml:"python,omitempty"`
	Installer string `toml:"installer,omitempty"`
}

type DependenciesConfig struct {
	Package  string `toml:"package,omitempty"`
	Upgrade  *bool  `toml:"upgrade,omitempty"`
	Manifest string `toml:"manifest,omitempty"`
}

type EntrypointConfig struct {
	Script  string `toml:"script,omitempty"`
	Name    string `toml:"name,omitempty"`
	EnvFile string `toml:"env_file,omitempty"`
}

type ApplyConfig struct {
	Labeler  string   `toml:"labeler,omitempty"`
	Workers  int      `toml:"workers,omitempty"`
	Exclude  []string `toml:"exclude,omitempty"`
	Rate     float64  `toml:"rate,omitempty"`
	Interval string   `toml:"interval,omitempty"`
}

// NewProjectTOML returns a project file populated with the built-in defaults.
func NewProjectTOML() *ProjectTOML {
	d := Defaults()
	upgrade := d.Upgrade
	return &ProjectTOML{
		Environment: &EnvironmentConfig{
			Dir:       d.EnvDir,
			Python:    d.Python,
			Installer: d.Installer,
		},
		Dependencies: &DependenciesConfig{
			Package:  d.Package,
			Upgrade:  &upgrade,
			Manifest: d.Manifest,
		},
		Entrypoint: &EntrypointConfig{
			Script: d.Entrypoint,
			Name:   d.AppName,
		},
	}
}

func (c *ProjectTOML) SaveTOMLFile(dir string, tomlFileName string) error {
	f, err := os.Create(filepath.Join(dir, tomlFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("error encoding TOML: %w", err)
	}
	fmt.Printf("Saving config file [%s]\n", util.Accented(tomlFileName))
	return nil
}

// LoadTOMLFile reads dir/tomlFileName. A missing file is not an error; the
// returned bool reports whether the file exists.
func LoadTOMLFile(dir string, tomlFileName string) (*ProjectTOML, bool, error) {
	logger.Debugw(fmt.Sprintf("loading %s file", tomlFileName))

	tomlFile := filepath.Join(dir, tomlFileName)
	if _, err := os.Stat(tomlFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, true, err
	}

	config := &ProjectTOML{}
	md, err := toml.DecodeFile(tomlFile, config)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, tomlFileName, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger.Warnw("ignoring unknown keys in config file", nil, "file", tomlFileName, "keys", undecoded)
	}
	return config, true, nil
}
