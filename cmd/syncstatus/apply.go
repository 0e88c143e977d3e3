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

	"github.com/livekit/protocol/logger"
	"github.com/urfave/cli/v3"

	"github.com/openmined/sync-status-indicators/pkg/syftbox"
	"github.com/openmined/sync-status-indicators/pkg/syncstatus"
	"github.com/openmined/sync-status-indicators/pkg/util"
)

func applyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "apply",
			Usage:     "Label SyftBox files with their sync status",
			UsageText: "syncstatus apply [--interval DURATION]",
			Action:    applyIndicators,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "interval",
					Usage: "Repeat every `DURATION` until interrupted",
				},
				&cli.StringFlag{
					Name:  "labeler",
					Usage: fmt.Sprintf("`LABELER` to use: finder or xattr (default %s)", syncstatus.DefaultLabeler()),
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "Number of files labeled concurrently",
				},
				&cli.FloatFlag{
					Name:  "rate",
					Usage: "Maximum labels per second, 0 for unlimited",
				},
				&cli.StringSliceFlag{
					Name:  "exclude",
					Usage: "Skip datasite paths matching `PATTERN`",
				},
			},
		},
	}
}

func applyIndicators(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	sb, err := syftbox.Load(s.SyftBoxConfig)
	if err != nil {
		return err
	}
	dataDir, err := sb.APIData(s.AppName)
	if err != nil {
		return err
	}
	labeler, err := syncstatus.NewLabeler(s.Labeler)
	if err != nil {
		return err
	}

	client := syncstatus.NewClient(sb.SyncStateURL(), nil)
	logger.Debugw("loaded SyftBox config",
		"config", sb.Path(),
		"endpoint", client.URL(),
		"dataDir", dataDir,
	)

	applier, err := syncstatus.NewApplier(syncstatus.Options{
		Fetcher:   client,
		Labeler:   labeler,
		Datasites: sb.Datasites(),
		DataDir:   dataDir,
		Workers:   s.Workers,
		Rate:      s.Rate,
		Exclude:   s.Exclude,
		Progress:  s.Interval == 0 && util.IsTerminal(os.Stdout),
		Logger:    logger.GetLogger(),
	})
	if err != nil {
		return err
	}

	if s.Interval > 0 {
		logger.Infow("watching sync state", "url", sb.SyncStateURL(), "interval", s.Interval)
		return syncstatus.NewWatcher(applier, s.Interval).Run(ctx)
	}

	report, err := applier.Apply(ctx)
	if err != nil {
		return err
	}
	if !report.Locked && report.Fetched > 0 {
		fmt.Printf("Labeled %d files in [%s]", report.Labeled, util.Accented(sb.Datasites()))
		if report.Failed > 0 {
			fmt.Printf(", %d failed", report.Failed)
		}
		fmt.Println()
	}
	return nil
}
