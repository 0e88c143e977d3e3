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

package syncstatus

import (
	"context"
	"time"

	"github.com/frostbyte73/core"
	"github.com/livekit/protocol/logger"
	"go.uber.org/atomic"
)

// Watcher applies indicators on a fixed interval until stopped.
type Watcher struct {
	applier  *Applier
	interval time.Duration
	log      logger.Logger

	passes atomic.Int64
	fuse   *core.Fuse
}

func NewWatcher(applier *Applier, interval time.Duration) *Watcher {
	return &Watcher{
		applier:  applier,
		interval: interval,
		log:      applier.log,
		fuse:     new(core.Fuse),
	}
}

// Run blocks until Stop is called or ctx is done. Failed passes are logged
// and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.applier.Apply(ctx); err != nil && ctx.Err() == nil {
			w.log.Warnw("sync status pass failed", err)
		}
		w.passes.Inc()

		select {
		case <-ctx.Done():
			return nil
		case <-w.fuse.Watch():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) Stop() {
	w.fuse.Break()
}

func (w *Watcher) Stopped() bool {
	return w.fuse.IsBroken()
}

func (w *Watcher) Passes() int64 {
	return w.passes.Load()
}
