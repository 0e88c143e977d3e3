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
	"os/signal"
	"syscall"

	"github.com/livekit/protocol/logger"
	"github.com/urfave/cli/v3"

	syncindicators "github.com/openmined/sync-status-indicators"
)

func main() {
	// Register cleanup hook for SIGINT, SIGTERM, SIGQUIT
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	go func() {
		<-ctx.Done()
		stop()
	}()

	err := newApp().Run(ctx, os.Args)
	stop()
	os.Exit(exitCode(err))
}

func newApp() *cli.Command {
	app := &cli.Command{
		Name:                   "syncstatus",
		Usage:                  "Bootstrap and run the SyftBox sync status indicators app",
		Description:            "Prepares a Python virtual environment with the latest syftbox package and the app's requirements, then runs the app. The indicators can also be applied natively with `syncstatus apply`.",
		Version:                syncindicators.Version,
		EnableShellCompletion:  true,
		Suggest:                true,
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Flags:                  globalFlags(),
		Before:                 initLogger,
		// with no command the app behaves like `syncstatus run`
		Action: runApp,
	}

	app.Commands = append(app.Commands, runCommands()...)
	app.Commands = append(app.Commands, applyCommands()...)
	app.Commands = append(app.Commands, envCommands()...)
	app.Commands = append(app.Commands, initCommands()...)
	app.Commands = append(app.Commands, openCommands()...)
	return app
}

func initLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logConfig := &logger.Config{
		Level: "info",
	}
	if cmd.Bool("verbose") {
		logConfig.Level = "debug"
	}
	logger.InitFromConfig(logConfig, "syncstatus")

	return nil, nil
}

// exitCode reports err on stderr and maps it to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
