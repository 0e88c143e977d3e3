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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const (
	LabelerFinder = "finder"
	LabelerXattr  = "xattr"

	// XattrName is the extended attribute the xattr labeler writes.
	XattrName = "user.syftbox.sync_status"
)

var (
	ErrUnknownLabeler     = errors.New("unknown labeler")
	ErrLabelerUnsupported = errors.New("labeler is not supported on this platform")
)

// Labeler marks a file with its sync status.
type Labeler interface {
	Name() string
	Label(ctx context.Context, path string, status Status) error
}

// DefaultLabeler is finder on macOS and xattr elsewhere.
func DefaultLabeler() string {
	if runtime.GOOS == "darwin" {
		return LabelerFinder
	}
	return LabelerXattr
}

func NewLabeler(name string) (Labeler, error) {
	if name == "" {
		name = DefaultLabeler()
	}
	switch name {
	case LabelerFinder:
		return &FinderLabeler{Bin: "osascript"}, nil
	case LabelerXattr:
		return &XattrLabeler{Attr: XattrName}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLabeler, name)
	}
}

// FinderLabeler sets the Finder label colour through AppleScript.
type FinderLabeler struct {
	Bin string
}

func (f *FinderLabeler) Name() string { return LabelerFinder }

func (f *FinderLabeler) Label(ctx context.Context, path string, status Status) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Bin, "-e", FinderScript(path, status))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// FinderScript is the AppleScript setting the label index of path.
func FinderScript(path string, status Status) string {
	return fmt.Sprintf(`tell application "Finder" to set label index of (POSIX file "%s" as alias) to %d`,
		appleScriptEscape(path), status.LabelIndex())
}

func appleScriptEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
