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

//go:build linux || darwin

package syncstatus

import (
	"context"

	"golang.org/x/sys/unix"
)

// XattrLabeler records the status in an extended attribute of the file.
type XattrLabeler struct {
	Attr string
}

func (x *XattrLabeler) Name() string { return LabelerXattr }

func (x *XattrLabeler) Label(_ context.Context, path string, status Status) error {
	return unix.Setxattr(path, x.Attr, []byte(status), 0)
}

// ReadLabel returns the status recorded on path.
func (x *XattrLabeler) ReadLabel(path string) (Status, error) {
	buf := make([]byte, 64)
	n, err := unix.Getxattr(path, x.Attr, buf)
	if err != nil {
		return "", err
	}
	return ParseStatus(string(buf[:n]))
}
