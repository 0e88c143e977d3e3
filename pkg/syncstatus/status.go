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
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStatus = errors.New("invalid sync status")

// Status is the sync state the SyftBox client reports for a file.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusError   Status = "error"
	StatusSynced  Status = "synced"
	StatusIgnored Status = "ignored"
)

// Finder label indexes. 0 clears the label.
var labelIndexes = map[Status]int{
	StatusQueued:  1,
	StatusError:   2,
	StatusSynced:  6,
	StatusIgnored: 7,
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := labelIndexes[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// LabelIndex is the Finder label index shown for the status.
func (s Status) LabelIndex() int {
	return labelIndexes[s]
}

// Item is one entry of the client's sync state.
type Item struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 timestamps with or without an offset.
// Timestamps without an offset are in local time.
func ParseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
