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

	"github.com/pkg/browser"
	"github.com/urfave/cli/v3"

	"github.com/openmined/sync-status-indicators/pkg/syftbox"
	"github.com/openmined/sync-status-indicators/pkg/util"
)

func openCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "open",
			Usage:     "Open the SyftBox datasites folder",
			UsageText: "syncstatus open [--data]",
			Action:    openDatasites,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "data",
					Usage: "Open the app's data folder instead",
				},
			},
		},
	}
}

func openDatasites(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	sb, err := syftbox.Load(s.SyftBoxConfig)
	if err != nil {
		return err
	}

	target := sb.Datasites()
	if cmd.Bool("data") {
		if target, err = sb.APIData(s.AppName); err != nil {
			return err
		}
	}
	if !util.DirExists(target) {
		return fmt.Errorf("folder [%s] does not exist", target)
	}
	fmt.Printf("Opening [%s]\n", util.Accented(target))
	return browser.OpenFile(target)
}
