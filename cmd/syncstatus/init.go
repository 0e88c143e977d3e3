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
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/openmined/sync-status-indicators/pkg/bootstrap"
	"github.com/openmined/sync-status-indicators/pkg/config"
	"github.com/openmined/sync-status-indicators/pkg/pyproject"
	"github.com/openmined/sync-status-indicators/pkg/syncstatus"
	"github.com/openmined/sync-status-indicators/pkg/util"
)

func initCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "init",
			Usage:     "Write a project config with the defaults for this directory",
			UsageText: "syncstatus init [--force] [--installer INSTALLER] [--labeler LABELER] [--user]",
			Action:    initProject,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "force",
					Usage: "Overwrite an existing config without asking",
				},
				&cli.StringFlag{
					Name:  "installer",
					Usage: "Package `INSTALLER`: auto, uv or pip",
				},
				&cli.StringFlag{
					Name:  "labeler",
					Usage: "`LABELER` used by apply: finder or xattr",
				},
				&cli.BoolFlag{
					Name:  "user",
					Usage: "Also save installer and labeler as defaults for all projects",
				},
			},
		},
	}
}

func initProject(ctx context.Context, cmd *cli.Command) error {
	if util.FileExists(workDir, tomlFilename) && !cmd.Bool("force") {
		overwrite := false
		if util.IsTerminal(os.Stdin) {
			if err := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Config file [%s] already exists. Overwrite?", tomlFilename)).
						Value(&overwrite).
						WithTheme(util.Theme),
				),
			).Run(); err != nil {
				return err
			}
		}
		if !overwrite {
			return fmt.Errorf("config file [%s] already exists", tomlFilename)
		}
	}

	project := config.NewProjectTOML()
	if projectType, err := pyproject.DetectProjectType(workDir); err == nil {
		if projectType.IsUV() {
			project.Environment.Installer = bootstrap.InstallerUV
		}
		// only requirements-format files can be passed to `install -r`
		if found, manifest := pyproject.LocateManifest(workDir, projectType); found && strings.HasPrefix(manifest, "requirements.") {
			project.Dependencies.Manifest = manifest
		}
	}

	installer, labeler := cmd.String("installer"), cmd.String("labeler")
	if installer != "" {
		if _, err := bootstrap.ResolveInstaller(installer, workDir); err != nil {
			return err
		}
		project.Environment.Installer = installer
	}
	if labeler != "" {
		if _, err := syncstatus.NewLabeler(labeler); err != nil {
			return err
		}
		project.Apply = &config.ApplyConfig{Labeler: labeler}
	}

	if err := project.SaveTOMLFile(workDir, tomlFilename); err != nil {
		return err
	}
	if !cmd.Bool("user") {
		return nil
	}

	user, err := config.LoadOrCreate()
	if err != nil {
		return err
	}
	if installer != "" {
		user.Installer = installer
	}
	if labeler != "" {
		user.Labeler = labeler
	}
	return user.PersistIfNeeded()
}
