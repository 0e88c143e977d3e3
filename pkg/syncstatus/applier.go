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

// Package syncstatus mirrors the SyftBox client's per-file sync state onto
// the files themselves, as Finder labels or extended attributes.
package syncstatus

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/livekit/protocol/logger"
	"github.com/moby/patternmatcher"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/openmined/sync-status-indicators/pkg/util"
)

// WatermarkBuffer widens the watermark so items updated while the previous
// pass was running are labeled again.
const WatermarkBuffer = 2 * time.Second

type Fetcher interface {
	FetchState(ctx context.Context) ([]Item, error)
}

type Options struct {
	Fetcher   Fetcher
	Labeler   Labeler
	Datasites string
	// DataDir holds the pid file and the watermark.
	DataDir string
	Workers int
	// Rate caps labels per second; 0 disables the limit.
	Rate     float64
	Exclude  []string
	Progress bool
	Logger   logger.Logger
	Now      func() time.Time
}

type Report struct {
	Locked    bool
	FetchedAt time.Time
	Fetched   int
	Stale     int
	Excluded  int
	Labeled   int
	Failed    int
}

type Applier struct {
	fetcher   Fetcher
	labeler   Labeler
	datasites string
	dataDir   string
	workers   int
	limiter   *rate.Limiter
	matcher   *patternmatcher.PatternMatcher
	progress  bool
	log       logger.Logger
	now       func() time.Time
}

// DefaultWorkers matches the usual thread pool sizing for I/O-bound work.
func DefaultWorkers() int {
	return min(32, runtime.NumCPU()+4)
}

func NewApplier(opts Options) (*Applier, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("no sync state fetcher")
	}
	if opts.Labeler == nil {
		return nil, errors.New("no labeler")
	}
	if opts.DataDir == "" {
		return nil, errors.New("no data directory")
	}

	a := &Applier{
		fetcher:   opts.Fetcher,
		labeler:   opts.Labeler,
		datasites: opts.Datasites,
		dataDir:   opts.DataDir,
		workers:   opts.Workers,
		progress:  opts.Progress,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if a.workers <= 0 {
		a.workers = DefaultWorkers()
	}
	if a.log == nil {
		a.log = logger.GetLogger()
	}
	a.log = a.log.WithValues("labeler", a.labeler.Name())
	if a.now == nil {
		a.now = time.Now
	}
	if opts.Rate > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(opts.Rate), max(1, int(opts.Rate)))
	}
	if len(opts.Exclude) > 0 {
		matcher, err := patternmatcher.New(opts.Exclude)
		if err != nil {
			return nil, errors.Wrap(err, "invalid exclude pattern")
		}
		a.matcher = matcher
	}
	return a, nil
}

func (a *Applier) StatePath() string {
	return filepath.Join(a.dataDir, StateFile)
}

func (a *Applier) PidPath() string {
	return filepath.Join(a.dataDir, PidFile)
}

// Apply runs one labeling pass. When another process holds the pid lock the
// pass is skipped and the report is marked Locked.
func (a *Applier) Apply(ctx context.Context) (*Report, error) {
	if err := os.MkdirAll(a.dataDir, 0755); err != nil {
		return nil, err
	}
	lock, err := acquirePidLock(a.PidPath())
	if errors.Is(err, ErrLocked) {
		a.log.Debugw("previous instance still running, skipping")
		return &Report{Locked: true}, nil
	}
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	report := &Report{}
	items, err := a.fetcher.FetchState(ctx)
	report.FetchedAt = a.now()
	if err != nil {
		a.log.Errorw("failed to fetch sync state", err)
		return report, err
	}
	report.Fetched = len(items)
	if len(items) == 0 {
		return report, nil
	}

	if last, ok := LoadWatermark(a.StatePath(), a.log); ok {
		items = a.since(items, last.Add(-WatermarkBuffer), report)
	}
	items = a.excluded(items, report)

	label := func(ctx context.Context) error {
		return a.labelAll(ctx, items, report)
	}
	if a.progress {
		err = util.Await("Applying sync status indicators...", ctx, label)
	} else {
		err = label(ctx)
	}
	if err != nil {
		return report, err
	}

	if err := SaveWatermark(a.StatePath(), report.FetchedAt); err != nil {
		a.log.Errorw("failed to update sync state", err)
	} else {
		a.log.Infow("sync state updated",
			"labeled", report.Labeled,
			"failed", report.Failed,
			"stale", report.Stale,
			"excluded", report.Excluded,
		)
	}
	return report, nil
}

// since keeps items changed at or after cutoff. Items without a readable
// timestamp are kept.
func (a *Applier) since(items []Item, cutoff time.Time, report *Report) []Item {
	kept := items[:0:0]
	for _, item := range items {
		ts, err := ParseTimestamp(item.Timestamp)
		if err != nil {
			a.log.Debugw("unreadable item timestamp", "path", item.Path, "timestamp", item.Timestamp)
			kept = append(kept, item)
			continue
		}
		if ts.Before(cutoff) {
			report.Stale++
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (a *Applier) excluded(items []Item, report *Report) []Item {
	if a.matcher == nil {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if item.Path != "" {
			if ignored, err := a.matcher.MatchesOrParentMatches(filepath.FromSlash(item.Path)); err == nil && ignored {
				report.Excluded++
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept
}

func (a *Applier) labelAll(ctx context.Context, items []Item, report *Report) error {
	var labeled, failed atomic.Int64

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)
	for _, item := range items {
		group.Go(func() error {
			if a.limiter != nil {
				if err := a.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			if err := a.label(gctx, item); err != nil {
				a.log.Errorw("failed to apply sync status indicator", err, "path", item.Path)
				failed.Inc()
				return nil
			}
			labeled.Inc()
			return nil
		})
	}
	err := group.Wait()

	report.Labeled = int(labeled.Load())
	report.Failed = int(failed.Load())
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (a *Applier) label(ctx context.Context, item Item) error {
	if item.Path == "" {
		return errors.New("missing expected key in sync state item: path")
	}
	status, err := ParseStatus(item.Status)
	if err != nil {
		return err
	}
	path := filepath.Join(a.datasites, filepath.FromSlash(item.Path))
	return errors.Wrapf(a.labeler.Label(ctx, path, status), "label %s as %s", path, status)
}
