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

	"github.com/livekit/protocol/logger"
	"github.com/urfave/cli/v3"

	"github.com/openmined/sync-status-indicators/pkg/bootstrap"
	"github.com/openmined/sync-status-indicators/pkg/util"
)

func runCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "run",
			Usage:     "Prepare the virtual environment and run the app inside it",
			UsageText: "syncstatus run",
			ArgsUsage: "[ARGS...]",
			Description: "Creates the virtual environment if missing, installs the latest syftbox and the\n" +
				"requirements, then runs the entry point with no arguments. The app's exit\n" +
				"status becomes the exit status of this command.",
			Flags:  runFlags(),
			Action: runApp,
		},
	}
}

func runApp(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 0 {
		logger.Debugw("ignoring arguments, the entry point runs without any", "args", cmd.Args().Slice())
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	opts := bootstrap.OptionsFromSettings(workDir, s)
	opts.Highlight = util.Highlighter()
	runner, err := bootstrap.NewRunner(opts)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return &ExitError{Code: bootstrap.ExitCode(err), Err: err}
	}
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}
