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
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

const (
	// shell conventions for commands that could not be started
	exitCodeNotFound      = 127
	exitCodeNotExecutable = 126
)

var (
	ErrActivationArtifact = errors.New("environment has no python interpreter")
	ErrUnknownInstaller   = errors.New("unknown installer")
)

// StepError aborts a bootstrap run. Code is the exit status the process
// should terminate with.
type StepError struct {
	Step State
	Code int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Step.Step(), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit status carried by err: the StepError code, the
// status of an exited process, or 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) && stepErr.Code != 0 {
		return stepErr.Code
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return processExitCode(exitErr)
	}
	return 1
}

// stepError wraps a command failure, preserving the command's exit status
// and mapping start failures to shell conventions.
func stepError(step State, err error) *StepError {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr
	}

	code := 1
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		code = processExitCode(exitErr)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		code = exitCodeNotFound
	case errors.Is(err, fs.ErrPermission):
		code = exitCodeNotExecutable
	}
	return &StepError{Step: step, Code: code, Err: err}
}
