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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/livekit/protocol/logger"
)

const StateFile = "state.json"

type watermark struct {
	LastSynced string `json:"last_synced"`
}

// LoadWatermark reads the time of the last completed pass. A missing file is
// a first run; an unreadable one is deleted. Both report ok=false.
func LoadWatermark(path string, log logger.Logger) (time.Time, bool) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnw("state file not found, assuming first run", nil, "path", path)
		return time.Time{}, false
	}

	var wm watermark
	if err != nil {
		log.Errorw("failed to read state file, deleting", err, "path", path)
	} else if err = json.Unmarshal(data, &wm); err != nil {
		log.Errorw("invalid JSON in state file, deleting", err, "path", path)
	} else if t, err := ParseTimestamp(wm.LastSynced); err != nil {
		log.Errorw("invalid timestamp format in state file, deleting", err, "path", path)
	} else {
		return t, true
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnw("failed to delete state file", err, "path", path)
	}
	return time.Time{}, false
}

func SaveWatermark(path string, t time.Time) error {
	data, err := json.Marshal(watermark{LastSynced: t.Format(time.RFC3339Nano)})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}
	return nil
}
