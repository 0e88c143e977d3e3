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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/livekit/protocol/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, tt := range []struct {
		in    string
		index int
	}{
		{"queued", 1},
		{"error", 2},
		{"synced", 6},
		{"ignored", 7},
	} {
		s, err := ParseStatus(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.index, s.LabelIndex())
	}

	_, err := ParseStatus("errored")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseTimestamp(t *testing.T) {
	utc, err := ParseTimestamp("2025-01-02T03:04:05.123456+00:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC).Equal(utc))

	naive, err := ParseTimestamp("2025-01-02T03:04:05.123456")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.Local).Equal(naive))

	spaced, err := ParseTimestamp("2025-01-02 03:04:05")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local).Equal(spaced))

	_, err = ParseTimestamp("not a time")
	assert.Error(t, err)
}

func TestFetchState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/state", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"path": "alice@openmined.org/a.txt", "status": "synced", "timestamp": "2025-01-02T03:04:05"},
			{"path": "alice@openmined.org/b.txt", "status": "queued", "timestamp": "2025-01-02T03:04:06", "message": "x"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/sync/state", srv.Client())
	assert.Equal(t, srv.URL+"/sync/state", c.URL())

	items, err := c.FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Path: "alice@openmined.org/a.txt", Status: "synced", Timestamp: "2025-01-02T03:04:05"},
		{Path: "alice@openmined.org/b.txt", Status: "queued", Timestamp: "2025-01-02T03:04:06"},
	}, items)
}

func TestFetchStateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			_, _ = w.Write([]byte(`{"not": "a list"}`))
		default:
			http.Error(w, "client not ready", http.StatusServiceUnavailable)
		}
	}))

	_, err := NewClient(srv.URL+"/sync/state", nil).FetchState(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = NewClient(srv.URL+"/broken", nil).FetchState(context.Background())
	assert.Error(t, err)

	srv.Close()
	_, err = NewClient(srv.URL+"/sync/state", nil).FetchState(context.Background())
	assert.Error(t, err)
}

func TestWatermark(t *testing.T) {
	log := logger.LogRLogger(logr.Discard())
	path := filepath.Join(t.TempDir(), StateFile)

	_, ok := LoadWatermark(path, log)
	assert.False(t, ok)

	require.NoError(t, SaveWatermark(path, testNow))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_synced": "2025-01-02T03:04:05Z"}`, string(data))

	last, ok := LoadWatermark(path, log)
	require.True(t, ok)
	assert.True(t, testNow.Equal(last))

	require.NoError(t, os.WriteFile(path, []byte(`{"last_synced": "soon"}`), 0644))
	_, ok = LoadWatermark(path, log)
	assert.False(t, ok)
	assert.NoFileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`[`), 0644))
	_, ok = LoadWatermark(path, log)
	assert.False(t, ok)
	assert.NoFileExists(t, path)
}

func TestWatermarkReadsNaiveTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"last_synced": "2024-11-05T10:20:30.500000"}`), 0644))

	last, ok := LoadWatermark(path, logger.LogRLogger(logr.Discard()))
	require.True(t, ok)
	assert.True(t, time.Date(2024, 11, 5, 10, 20, 30, 500000000, time.Local).Equal(last))
}
