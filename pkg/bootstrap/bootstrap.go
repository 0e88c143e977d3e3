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

// Package bootstrap prepares a Python virtual environment and runs an entry
// point inside it. A run is a fixed linear sequence: ensure the environment,
// install the named package, install the manifest, activate, run, release.
// The first failing step aborts the run with that step's exit status.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/livekit/protocol/logger"

	"github.com/openmined/sync-status-indicators/pkg/config"
	"github.com/openmined/sync-status-indicators/pkg/pyproject"
	"github.com/openmined/sync-status-indicators/pkg/util"
)

type Options struct {
	WorkDir    string
	EnvDir     string
	Python     string
	Installer  string
	Package    string
	Upgrade    bool
	Manifest   string
	Entrypoint string
	AppName    string
	EnvFile    string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Highlight styles paths and names in status lines.
	Highlight    func(string) string
	Logger       logger.Logger
	OnTransition func(Transition)
}

// OptionsFromSettings builds runner options for a project in workDir.
func OptionsFromSettings(workDir string, s config.Settings) Options {
	return Options{
		WorkDir:    workDir,
		EnvDir:     s.EnvDir,
		Python:     s.Python,
		Installer:  s.Installer,
		Package:    s.Package,
		Upgrade:    s.Upgrade,
		Manifest:   s.Manifest,
		Entrypoint: s.Entrypoint,
		AppName:    s.AppName,
		EnvFile:    s.EnvFile,
	}
}

type Result struct {
	State         State
	ExitCode      int
	Created       bool
	Installer     string
	Python        string
	PythonVersion string
	Transitions   []Transition
}

type Runner struct {
	opts      Options
	installer Installer
	log       logger.Logger

	state  State
	result *Result
}

func NewRunner(opts Options) (*Runner, error) {
	d := config.Defaults()
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.EnvDir == "" {
		opts.EnvDir = d.EnvDir
	}
	if opts.Package == "" {
		opts.Package = d.Package
	}
	if opts.Manifest == "" {
		opts.Manifest = d.Manifest
	}
	if opts.Entrypoint == "" {
		opts.Entrypoint = d.Entrypoint
	}
	if opts.AppName == "" {
		opts.AppName = d.AppName
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Highlight == nil {
		opts.Highlight = util.Plain
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.EnvFile != "" {
		opts.EnvFile = util.ResolvePath(opts.WorkDir, opts.EnvFile)
	}

	installer, err := NewInstaller(opts.Installer, InstallerOptions{
		WorkDir: opts.WorkDir,
		Python:  opts.Python,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		opts:      opts,
		installer: installer,
		log:       opts.Logger.WithValues("installer", installer.Name()),
		state:     StateNotStarted,
	}, nil
}

func (r *Runner) State() State {
	return r.state
}

// Run executes the bootstrap sequence once. The returned Result is never
// nil; on failure it ends in StateAborted and the error is a *StepError.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.state = StateNotStarted
	r.result = &Result{State: r.state, Installer: r.installer.Name()}
	env := NewEnvironment(r.opts.WorkDir, r.opts.EnvDir)

	created, err := r.ensureEnvironment(ctx, env)
	if err != nil {
		return r.abort(StateEnvEnsured, err)
	}
	r.result.Created = created
	r.transition(StateEnvEnsured)

	if err := r.installPackage(ctx, env); err != nil {
		return r.abort(StatePackageInstalled, err)
	}
	r.transition(StatePackageInstalled)

	if err := r.installer.Install(ctx, env, "-r", util.ResolvePath(r.opts.WorkDir, r.opts.Manifest)); err != nil {
		return r.abort(StateManifestInstalled, err)
	}
	r.transition(StateManifestInstalled)

	step := StateActivated
	err = WithActivation(env, r.opts.EnvFile, func(a *Activation) error {
		r.transition(StateActivated)
		step = StateRan
		code, err := r.runEntrypoint(ctx, a)
		if err != nil {
			return err
		}
		r.result.ExitCode = code
		r.transition(StateRan)
		return nil
	})
	if err != nil {
		return r.abort(step, err)
	}
	r.log.Debugw("environment released", "env", env.Dir)
	r.transition(StateDeactivated)

	return r.result, nil
}

func (r *Runner) ensureEnvironment(ctx context.Context, env *Environment) (bool, error) {
	name := r.opts.Highlight(r.opts.EnvDir)
	if EnvironmentExists(env.Dir) {
		fmt.Fprintf(r.opts.Stdout, "%s already exists.\n", name)
		return false, nil
	}

	fmt.Fprintf(r.opts.Stdout, "%s not found. Creating one...\n", name)
	if err := r.installer.Create(ctx, env.Dir); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Runner) installPackage(ctx context.Context, env *Environment) error {
	args := []string{r.opts.Package}
	if r.opts.Upgrade {
		args = append([]string{"--upgrade"}, args...)
	}
	if err := r.installer.Install(ctx, env, args...); err != nil {
		return err
	}
	r.checkManifestPin(ctx, env)
	return nil
}

// checkManifestPin warns when the manifest constrains the named package in a
// way the version just installed does not satisfy. The manifest install wins.
func (r *Runner) checkManifestPin(ctx context.Context, env *Environment) {
	reqs, err := pyproject.LoadRequirements(util.ResolvePath(r.opts.WorkDir, r.opts.Manifest))
	if err != nil {
		r.log.Debugw("skipping manifest pin check", "error", err)
		return
	}
	req, ok := reqs.Find(r.opts.Package)
	if !ok || !req.IsConstrained() {
		return
	}

	installed, err := r.installer.Show(ctx, env, r.opts.Package)
	if err != nil {
		r.log.Debugw("could not determine installed version", "package", r.opts.Package, "error", err)
		return
	}
	check, err := pyproject.CheckPin(req, installed)
	if err != nil {
		r.log.Debugw("could not compare manifest pin", "requirement", req.String(), "error", err)
		return
	}
	if check == pyproject.PinViolated {
		r.log.Warnw("manifest pin overrides latest package", nil,
			"package", r.opts.Package,
			"installed", installed,
			"requirement", req.String(),
			"source", fmt.Sprintf("%s:%d", req.File, req.Line),
		)
	}
}

func (r *Runner) runEntrypoint(ctx context.Context, a *Activation) (int, error) {
	python := a.Python()
	environ := a.Environ()

	version, err := PythonVersion(ctx, python, environ)
	if err != nil {
		return 0, err
	}
	r.result.Python = python
	r.result.PythonVersion = version

	fmt.Fprintf(r.opts.Stdout, "Running '%s' with %s at '%s'\n",
		r.opts.Highlight(r.opts.AppName), version, r.opts.Highlight(python))

	cmd := exec.CommandContext(ctx, python, r.opts.Entrypoint)
	cmd.Dir = r.opts.WorkDir
	cmd.Env = environ
	cmd.Stdin = r.opts.Stdin
	cmd.Stdout = r.opts.Stdout
	cmd.Stderr = r.opts.Stderr

	r.log.Debugw("executing", "command", python, "args", cmd.Args[1:])
	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := processExitCode(exitErr)
		r.log.Debugw("entry point exited", "code", code)
		return code, nil
	}
	if err != nil {
		return 0, err
	}
	return 0, nil
}

func (r *Runner) transition(to State) {
	t := Transition{From: r.state, To: to}
	r.state = to
	r.result.State = to
	r.result.Transitions = append(r.result.Transitions, t)
	r.log.Debugw("bootstrap transition", "from", t.From.String(), "to", t.To.String())
	if r.opts.OnTransition != nil {
		r.opts.OnTransition(t)
	}
}

func (r *Runner) abort(step State, err error) (*Result, error) {
	stepErr := stepError(step, err)
	r.transition(StateAborted)
	r.result.ExitCode = stepErr.Code
	return r.result, stepErr
}
