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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPin(t *testing.T) {
	tests := []struct {
		name      string
		req       Requirement
		installed string
		expected  PinCheck
		wantErr   bool
	}{
		{name: "unpinned", req: Requirement{Name: "syftbox"}, installed: "0.3.1", expected: PinSatisfied},
		{name: "exact match", req: Requirement{Specifier: "==0.3.1"}, installed: "0.3.1", expected: PinSatisfied},
		{name: "exact mismatch", req: Requirement{Specifier: "==0.1.22"}, installed: "0.3.1", expected: PinViolated},
		{name: "wildcard", req: Requirement{Specifier: "==0.3.*"}, installed: "0.3.9", expected: PinSatisfied},
		{name: "range satisfied", req: Requirement{Specifier: ">=0.2,<0.4"}, installed: "0.3.1", expected: PinSatisfied},
		{name: "range violated", req: Requirement{Specifier: ">=0.2,<0.3"}, installed: "0.3.1", expected: PinViolated},
		{name: "compatible release", req: Requirement{Specifier: "~=0.3.0"}, installed: "0.3.5", expected: PinSatisfied},
		{name: "compatible release violated", req: Requirement{Specifier: "~=0.3.0"}, installed: "0.4.0", expected: PinViolated},
		{name: "compatible two segments", req: Requirement{Specifier: "~=1.4"}, installed: "1.9.0", expected: PinSatisfied},
		{name: "not equal", req: Requirement{Specifier: "!=0.3.1"}, installed: "0.3.1", expected: PinViolated},
		{name: "prerelease installed", req: Requirement{Specifier: "==1.0.0rc1"}, installed: "1.0.0rc1", expected: PinSatisfied},
		{name: "url requirement", req: Requirement{URL: "https://example.com/x.whl"}, installed: "1.0.0", expected: PinUnknown},
		{name: "bad installed version", req: Requirement{Specifier: "==1.0"}, installed: "not-a-version", expected: PinUnknown, wantErr: true},
		{name: "unsupported operator", req: Requirement{Specifier: "^1.0"}, installed: "1.0.0", expected: PinUnknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckPin(tt.req, tt.installed)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, got, "got %s", got)
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"1.0.0":     "1.0.0",
		"1.3.0rc1":  "1.3.0-rc1",
		"1.3rc":     "1.3.0-rc",
		"1.0.0.rc2": "1.0.0-rc2",
		">=1.2.3":   "1.2.3",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeVersion(in), in)
	}
}
