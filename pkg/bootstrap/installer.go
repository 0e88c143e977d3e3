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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/livekit/protocol/logger"

	"github.com/openmined/sync-status-indicators/pkg/config"
	"github.com/openmined/sync-status-indicators/pkg/pyproject"
)

const (
	InstallerAuto = config.DefaultInstaller
	InstallerUV   = "uv"
	InstallerPip  = "pip"
)

// Installer creates virtual environments and installs packages into them.
// Install arguments follow pip's command line (--upgrade, -r <file>, ...).
type Installer interface {
	Name() string
	Create(ctx context.Context, dir string) error
	Install(ctx context.Context, env *Environment, args ...string) error
	// Show returns the installed version of pkg.
	Show(ctx context.Context, env *Environment, pkg string) (string, error)
}

type commander struct {
	workDir string
	stdout  io.Writer
	stderr  io.Writer
	log     logger.Logger
}

// run executes a tool with its output passed through.
func (c *commander) run(ctx context.Context, name string, args ...string) error {
	c.log.Debugw("executing", "command", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.workDir
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	return cmd.Run()
}

func (c *commander) output(ctx context.Context, name string, args ...string) (string, error) {
	c.log.Debugw("executing", "command", name, "args", args)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.workDir
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return string(out), nil
}

type uvInstaller struct {
	*commander
	bin    string
	python string
}

func (u *uvInstaller) Name() string { return InstallerUV }

func (u *uvInstaller) Create(ctx context.Context, dir string) error {
	args := []string{"venv"}
	if u.python != "" {
		args = append(args, "--python", u.python)
	}
	return u.run(ctx, u.bin, append(args, dir)...)
}

func (u *uvInstaller) Install(ctx context.Context, env *Environment, args ...string) error {
	return u.run(ctx, u.bin, append([]string{"pip", "install", "--python", env.Python()}, args...)...)
}

func (u *uvInstaller) Show(ctx context.Context, env *Environment, pkg string) (string, error) {
	out, err := u.output(ctx, u.bin, "pip", "show", "--python", env.Python(), pkg)
	if err != nil {
		return "", err
	}
	return parseShowVersion(out)
}

type pipInstaller struct {
	*commander
	python string
}

func (p *pipInstaller) Name() string { return InstallerPip }

func (p *pipInstaller) Create(ctx context.Context, dir string) error {
	return p.run(ctx, p.python, "-m", "venv", dir)
}

func (p *pipInstaller) Install(ctx context.Context, env *Environment, args ...string) error {
	return p.run(ctx, env.Python(), append([]string{"-m", "pip", "install"}, args...)...)
}

func (p *pipInstaller) Show(ctx context.Context, env *Environment, pkg string) (string, error) {
	out, err := p.output(ctx, env.Python(), "-m", "pip", "show", pkg)
	if err != nil {
		return "", err
	}
	return parseShowVersion(out)
}

// parseShowVersion reads the Version field of `pip show` output.
func parseShowVersion(out string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "Version:"); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("no version in package metadata")
}

type InstallerOptions struct {
	WorkDir string
	Python  string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  logger.Logger
}

// ResolveInstaller maps "auto" to a concrete installer: uv for uv projects
// or when uv is available, pip otherwise.
func ResolveInstaller(kind, workDir string) (string, error) {
	switch kind {
	case InstallerUV, InstallerPip:
		return kind, nil
	case "", InstallerAuto:
		if projectType, err := pyproject.DetectProjectType(workDir); err == nil && projectType.IsUV() {
			return InstallerUV, nil
		}
		if CommandExists(InstallerUV) {
			return InstallerUV, nil
		}
		return InstallerPip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownInstaller, kind)
	}
}

func NewInstaller(kind string, opts InstallerOptions) (Installer, error) {
	kind, err := ResolveInstaller(kind, opts.WorkDir)
	if err != nil {
		return nil, err
	}

	c := &commander{
		workDir: opts.WorkDir,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		log:     opts.Logger,
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if c.log == nil {
		c.log = logger.GetLogger()
	}

	python := opts.Python
	if python == "" {
		python = config.DefaultPython
	}

	switch kind {
	case InstallerUV:
		return &uvInstaller{commander: c, bin: InstallerUV, python: python}, nil
	default:
		return &pipInstaller{commander: c, python: python}, nil
	}
}
