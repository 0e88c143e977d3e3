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

package bootstrap

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandExists reports whether cmd resolves to an executable on PATH.
func CommandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// PythonVersion returns the interpreter's self-reported version line, for
// example "Python 3.12.1".
func PythonVersion(ctx context.Context, python string, environ []string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, python, "--version")
	cmd.Env = environ
	// interpreters before 3.4 write the version to stderr
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}
