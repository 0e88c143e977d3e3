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

package pyproject

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirements(t *testing.T) {
	content := `# sync status indicators
httpx>=0.27
pid==3.0.4  # pidfile guard
tqdm
Syft_Box[server] == 0.1.22 ; python_version >= "3.9"
requests @ https://example.com/requests.tar.gz
-r extra.txt
--requirement=more.txt
--index-url https://pypi.org/simple
-e ./local/package
./wheels/local.whl
https://example.com/bare.tar.gz
typing-extensions \
    >=4.0
name (>=1.0)
`
	reqs, includes, err := ParseRequirements(strings.NewReader(content), "requirements.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"extra.txt", "more.txt"}, includes)

	var names []string
	for _, r := range reqs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"httpx", "pid", "tqdm", "Syft_Box", "requests", "typing-extensions", "name"}, names)

	syft, ok := reqs.Find("syft-box")
	require.True(t, ok)
	assert.Equal(t, []string{"server"}, syft.Extras)
	assert.Equal(t, "==0.1.22", syft.Specifier)
	assert.Equal(t, `python_version >= "3.9"`, syft.Marker)
	assert.Equal(t, 5, syft.Line)
	assert.True(t, syft.IsConstrained())

	pid, _ := reqs.Find("pid")
	assert.Equal(t, "==3.0.4", pid.Specifier)

	requests, _ := reqs.Find("requests")
	assert.Equal(t, "https://example.com/requests.tar.gz", requests.URL)
	assert.Empty(t, requests.Specifier)
	assert.True(t, requests.IsConstrained())

	continued, _ := reqs.Find("typing_extensions")
	assert.Equal(t, ">=4.0", continued.Specifier)
	assert.True(t, continued.IsConstrained())
	assert.Equal(t, 13, continued.Line)

	legacy, _ := reqs.Find("name")
	assert.Equal(t, ">=1.0", legacy.Specifier)

	httpx, _ := reqs.Find("HTTPX")
	assert.True(t, httpx.IsConstrained())

	tqdm, _ := reqs.Find("tqdm")
	assert.False(t, tqdm.IsConstrained())
}

func TestFindPrefersLastEntry(t *testing.T) {
	reqs, _, err := ParseRequirements(strings.NewReader("syftbox==0.1.0\nsyftbox>=0.2\n"), "requirements.txt")
	require.NoError(t, err)

	req, ok := reqs.Find("syftbox")
	require.True(t, ok)
	assert.Equal(t, ">=0.2", req.Specifier)

	_, ok = reqs.Find("missing")
	assert.False(t, ok)
}

func TestLoadRequirementsFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"requirements.txt":      "httpx\n-r reqs/base.txt\n",
		"reqs/base.txt":         "pid\n-r ../requirements.txt\n-r more.txt\n",
		"reqs/more.txt":         "tqdm==4.66.0\n",
		"unrelated/ignored.txt": "nope\n",
	})

	reqs, err := LoadRequirements(filepath.Join(dir, "requirements.txt"))
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	tqdm, ok := reqs.Find("tqdm")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "reqs", "more.txt"), tqdm.File)
}

func TestLoadRequirementsMissingInclude(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("-r missing.txt\n"), 0644))

	_, err := LoadRequirements(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "syft-box", NormalizeName("Syft_Box"))
	assert.Equal(t, "zope-interface", NormalizeName("zope.interface"))
	assert.Equal(t, "a-b", NormalizeName("a--_.b"))
}
