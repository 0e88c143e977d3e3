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
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/livekit/protocol/logger"
	"github.com/urfave/cli/v3"

	"github.com/openmined/sync-status-indicators/pkg/bootstrap"
	"github.com/openmined/sync-status-indicators/pkg/pyproject"
	"github.com/openmined/sync-status-indicators/pkg/util"
)

func envCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "env",
			Usage: "Inspect or remove the virtual environment",
			Commands: []*cli.Command{
				{
					Name:      "status",
					Usage:     "Show the virtual environment and what is installed in it",
					UsageText: "syncstatus env status [--json]",
					Action:    envStatus,
					Flags: append([]cli.Flag{
						&cli.BoolFlag{
							Name:    "json",
							Aliases: []string{"j"},
							Usage:   "Output as JSON",
						},
					}, environmentFlags()...),
				},
				{
					Name:      "clean",
					Usage:     "Remove the virtual environment",
					UsageText: "syncstatus env clean [--silent]",
					Action:    envClean,
					Flags: append([]cli.Flag{
						&cli.BoolFlag{
							Name:  "silent",
							Usage: "Remove without asking for confirmation",
						},
					}, environmentFlags()...),
				},
			},
		},
	}
}

type envReport struct {
	Dir              string `json:"dir"`
	Exists           bool   `json:"exists"`
	Installer        string `json:"installer"`
	ProjectType      string `json:"project_type"`
	Python           string `json:"python,omitempty"`
	PythonVersion    string `json:"python_version,omitempty"`
	Package          string `json:"package"`
	PackageVersion   string `json:"package_version,omitempty"`
	Manifest         string `json:"manifest"`
	ManifestEntries  int    `json:"manifest_entries"`
	ManifestPin      string `json:"manifest_pin,omitempty"`
	ManifestPinCheck string `json:"manifest_pin_check,omitempty"`
}

func envStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	env := newEnvironment(s)

	r := envReport{
		Dir:         env.Dir,
		Exists:      bootstrap.EnvironmentExists(env.Dir),
		ProjectType: string(pyproject.ProjectTypeUnknown),
		Package:     s.Package,
		Manifest:    util.ResolvePath(workDir, s.Manifest),
	}
	if projectType, err := pyproject.DetectProjectType(workDir); err == nil {
		r.ProjectType = string(projectType)
	}

	installer, err := bootstrap.NewInstaller(s.Installer, bootstrap.InstallerOptions{
		WorkDir: workDir,
		Python:  s.Python,
		Logger:  logger.GetLogger(),
	})
	if err != nil {
		return err
	}
	r.Installer = installer.Name()

	if r.Exists {
		r.Python = env.Python()
		if version, err := bootstrap.PythonVersion(ctx, r.Python, os.Environ()); err == nil {
			r.PythonVersion = version
		} else {
			logger.Debugw("could not query interpreter", "python", r.Python, "error", err)
		}
		if version, err := installer.Show(ctx, env, s.Package); err == nil {
			r.PackageVersion = version
		} else {
			logger.Debugw("package not installed", "package", s.Package, "error", err)
		}
	}

	if reqs, err := pyproject.LoadRequirements(r.Manifest); err == nil {
		r.ManifestEntries = len(reqs)
		if req, ok := reqs.Find(s.Package); ok && req.IsConstrained() {
			r.ManifestPin = req.String()
			if r.PackageVersion != "" {
				check, _ := pyproject.CheckPin(req, r.PackageVersion)
				r.ManifestPinCheck = check.String()
			}
		}
	} else {
		logger.Debugw("could not read manifest", "manifest", r.Manifest, "error", err)
	}

	if cmd.Bool("json") {
		return util.PrintJSON(os.Stdout, r)
	}

	rows := [][]string{
		{"Environment", r.Dir},
		{"Exists", strconv.FormatBool(r.Exists)},
		{"Installer", r.Installer},
		{"Project type", r.ProjectType},
		{"Python", orDash(r.PythonVersion)},
		{"Interpreter", orDash(r.Python)},
		{s.Package, orDash(r.PackageVersion)},
		{"Manifest", fmt.Sprintf("%s (%d entries)", r.Manifest, r.ManifestEntries)},
	}
	if r.ManifestPin != "" {
		rows = append(rows, []string{"Manifest pin", fmt.Sprintf("%s (%s)", r.ManifestPin, orDash(r.ManifestPinCheck))})
	}

	t := util.CreateTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return util.FormHeaderStyle
			case col == 0:
				return util.FormHeaderStyle
			default:
				return util.FormBaseStyle
			}
		}).
		Rows(rows...)
	fmt.Println(t)
	return nil
}

func envClean(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	env := newEnvironment(s)

	if !bootstrap.EnvironmentExists(env.Dir) {
		fmt.Printf("Environment [%s] does not exist\n", util.Accented(env.Dir))
		return nil
	}

	if !cmd.Bool("silent") {
		if !util.IsTerminal(os.Stdin) {
			return errors.New("refusing to remove the environment without confirmation, use --silent")
		}
		remove := false
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove environment [%s]?", env.Dir)).
					Description("It is recreated on the next run").
					Value(&remove).
					WithTheme(util.Theme),
			),
		).Run(); err != nil {
			return err
		}
		if !remove {
			return errors.New("cancelled")
		}
	}

	if err := os.RemoveAll(env.Dir); err != nil {
		return err
	}
	fmt.Printf("Removed environment [%s]\n", util.Accented(env.Dir))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return util.Dimmed("-")
	}
	return s
}
