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
	"time"
)

const (
	DefaultEnvDir     = ".venv"
	DefaultPython     = "python3"
	DefaultInstaller  = "auto"
	DefaultPackage    = "syftbox"
	DefaultManifest   = "requirements.txt"
	DefaultEntrypoint = "main.py"
	DefaultAppName    = "sync_status_indicators"
)

// Settings is the fully resolved configuration for one invocation.
type Settings struct {
	EnvDir     string
	Python     string
	Installer  string
	Package    string
	Upgrade    bool
	Manifest   string
	Entrypoint string
	AppName    string
	EnvFile    string

	Labeler  string
	Workers  int
	Exclude  []string
	Rate     float64
	Interval time.Duration

	SyftBoxConfig string
}

func Defaults() Settings {
	return Settings{
		EnvDir:     DefaultEnvDir,
		Python:     DefaultPython,
		Installer:  DefaultInstaller,
		Package:    DefaultPackage,
		Upgrade:    true,
		Manifest:   DefaultManifest,
		Entrypoint: DefaultEntrypoint,
		AppName:    DefaultAppName,
	}
}

// Resolve layers the user config and then the project config over the
// defaults. Either may be nil.
func Resolve(user *CLIConfig, project *ProjectTOML) (Settings, error) {
	s := Defaults()

	if user != nil {
		setString(&s.Installer, user.Installer)
		setString(&s.Python, user.Python)
		setString(&s.Labeler, user.Labeler)
		setString(&s.SyftBoxConfig, user.SyftBoxConfig)
		if user.Workers > 0 {
			s.Workers = user.Workers
		}
	}

	if project == nil {
		return s, nil
	}
	if e := project.Environment; e != nil {
		setString(&s.EnvDir, e.Dir)
		setString(&s.Python, e.Python)
		setString(&s.Installer, e.Installer)
	}
	if d := project.Dependencies; d != nil {
		setString(&s.Package, d.Package)
		setString(&s.Manifest, d.Manifest)
		if d.Upgrade != nil {
			s.Upgrade = *d.Upgrade
		}
	}
	if e := project.Entrypoint; e != nil {
		setString(&s.Entrypoint, e.Script)
		setString(&s.AppName, e.Name)
		setString(&s.EnvFile, e.EnvFile)
	}
	if a := project.Apply; a != nil {
		setString(&s.Labeler, a.Labeler)
		if a.Workers < 0 {
			return s, fmt.Errorf("%w: apply.workers cannot be negative", ErrInvalidConfig)
		}
		if a.Workers > 0 {
			s.Workers = a.Workers
		}
		if a.Rate < 0 {
			return s, fmt.Errorf("%w: apply.rate cannot be negative", ErrInvalidConfig)
		}
		s.Rate = a.Rate
		s.Exclude = append(s.Exclude, a.Exclude...)
		if a.Interval != "" {
			interval, err := time.ParseDuration(a.Interval)
			if err != nil {
				return s, fmt.Errorf("%w: apply.interval: %v", ErrInvalidConfig, err)
			}
			s.Interval = interval
		}
	}

	return s, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
