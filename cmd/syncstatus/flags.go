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

package main

import (
	"github.com/urfave/cli/v3"

	"github.com/openmined/sync-status-indicators/pkg/bootstrap"
	"github.com/openmined/sync-status-indicators/pkg/config"
)

var (
	workDir      string
	tomlFilename string
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("SYNCSTATUS_VERBOSE"),
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Config `TOML` to use in the working directory",
			Value:       config.ProjectTOMLFile,
			Destination: &tomlFilename,
		},
		&cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"d"},
			Usage:       "Project `DIR` holding the manifest and entry point",
			Value:       ".",
			Destination: &workDir,
		},
		&cli.StringFlag{
			Name:  "syftbox-config",
			Usage: "SyftBox client config `PATH` (default: $SYFTBOX_CLIENT_CONFIG_PATH or ~/.syftbox/config.json)",
		},
	}
}

func environmentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "installer",
			Usage: "Package `INSTALLER`: auto, uv or pip",
		},
		&cli.StringFlag{
			Name:  "python",
			Usage: "`INTERPRETER` used to create the environment",
		},
		&cli.StringFlag{
			Name:  "env-dir",
			Usage: "Virtual environment `DIR`, relative to the project",
		},
	}
}

func runFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "no-upgrade",
			Usage: "Install the package without upgrading an existing version",
		},
	}, environmentFlags()...)
}

// loadSettings layers command line flags over the project TOML, the user
// config and the built-in defaults.
func loadSettings(cmd *cli.Command) (config.Settings, error) {
	user, err := config.LoadOrCreate()
	if err != nil {
		return config.Settings{}, err
	}
	project, _, err := config.LoadTOMLFile(workDir, tomlFilename)
	if err != nil {
		return config.Settings{}, err
	}
	s, err := config.Resolve(user, project)
	if err != nil {
		return s, err
	}

	overrideString(cmd, "installer", &s.Installer)
	overrideString(cmd, "python", &s.Python)
	overrideString(cmd, "env-dir", &s.EnvDir)
	overrideString(cmd, "syftbox-config", &s.SyftBoxConfig)
	overrideString(cmd, "labeler", &s.Labeler)
	if cmd.IsSet("no-upgrade") {
		s.Upgrade = !cmd.Bool("no-upgrade")
	}
	if cmd.IsSet("workers") {
		s.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		s.Rate = cmd.Float("rate")
	}
	if cmd.IsSet("interval") {
		s.Interval = cmd.Duration("interval")
	}
	if cmd.IsSet("exclude") {
		s.Exclude = append(s.Exclude, cmd.StringSlice("exclude")...)
	}
	return s, nil
}

func overrideString(cmd *cli.Command, name string, dst *string) {
	if cmd.IsSet(name) {
		*dst = cmd.String(name)
	}
}

func newEnvironment(s config.Settings) *bootstrap.Environment {
	return bootstrap.NewEnvironment(workDir, s.EnvDir)
}
