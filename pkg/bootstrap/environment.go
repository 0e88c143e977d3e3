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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/openmined/sync-status-indicators/pkg/util"
)

var dirExists = util.DirExists

// EnvironmentExists reports whether a virtual environment directory is
// present at path. It inspects nothing but the directory itself.
func EnvironmentExists(path string) bool {
	return dirExists(path)
}

// Environment is a virtual environment rooted at Dir.
type Environment struct {
	Dir string
}

func NewEnvironment(workDir, dir string) *Environment {
	p := util.ResolvePath(workDir, dir)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return &Environment{Dir: p}
}

func (e *Environment) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Dir, "Scripts")
	}
	return filepath.Join(e.Dir, "bin")
}

// Python returns the environment's interpreter. When none of the candidates
// exist yet the first one is returned.
func (e *Environment) Python() string {
	candidates := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		candidates = []string{"python.exe"}
	}
	bin := e.BinDir()
	for _, name := range candidates {
		if util.FileExists(bin, name) {
			return filepath.Join(bin, name)
		}
	}
	return filepath.Join(bin, candidates[0])
}

// Activation is a held activation of an Environment. It carries the process
// environment that programs run inside the virtual environment receive.
type Activation struct {
	env     *Environment
	environ []string

	mu       sync.Mutex
	released bool
}

// Activate acquires the environment. The caller must Release it; prefer
// WithActivation, which does so on every path. Only the interpreter is
// checked, a missing environment directory has none.
func Activate(env *Environment, envFile string) (*Activation, error) {
	python := env.Python()
	if !util.FileExists(filepath.Dir(python), filepath.Base(python)) {
		return nil, fmt.Errorf("%w: %s", ErrActivationArtifact, python)
	}

	environ := activatedEnviron(os.Environ(), env)
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read env file %s: %w", envFile, err)
		}
		environ = mergeEnviron(environ, vars)
	}

	return &Activation{env: env, environ: environ}, nil
}

// WithActivation activates env for the duration of fn.
func WithActivation(env *Environment, envFile string, fn func(*Activation) error) error {
	a, err := Activate(env, envFile)
	if err != nil {
		return err
	}
	defer a.Release()
	return fn(a)
}

func (a *Activation) Python() string {
	return a.env.Python()
}

// Environ returns a copy of the activated process environment, or nil once
// the activation has been released.
func (a *Activation) Environ() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	out := make([]string, len(a.environ))
	copy(out, a.environ)
	return out
}

// Lookup returns the value of key in the activated environment.
func (a *Activation) Lookup(key string) (string, bool) {
	for _, kv := range a.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && envKeyEqual(k, key) {
			return v, true
		}
	}
	return "", false
}

// Release is idempotent.
func (a *Activation) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.released = true
	a.environ = nil
}

func (a *Activation) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// activatedEnviron mirrors what a venv activate script does to the shell.
func activatedEnviron(base []string, env *Environment) []string {
	path := ""
	out := make([]string, 0, len(base)+2)
	for _, kv := range base {
		k, v, _ := strings.Cut(kv, "=")
		switch {
		case envKeyEqual(k, "PATH"):
			path = v
		case envKeyEqual(k, "PYTHONHOME"), envKeyEqual(k, "VIRTUAL_ENV"), envKeyEqual(k, "VIRTUAL_ENV_PROMPT"):
		default:
			out = append(out, kv)
		}
	}

	if path == "" {
		path = env.BinDir()
	} else {
		path = env.BinDir() + string(os.PathListSeparator) + path
	}
	return append(out,
		"PATH="+path,
		"VIRTUAL_ENV="+env.Dir,
		"VIRTUAL_ENV_PROMPT="+filepath.Base(env.Dir),
	)
}

// mergeEnviron applies vars over environ, leaving activation keys untouched.
func mergeEnviron(environ []string, vars map[string]string) []string {
	out := environ[:0:0]
	for _, kv := range environ {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := vars[k]; ok && !isActivationKey(k) {
			continue
		}
		out = append(out, kv)
	}
	for k, v := range vars {
		if isActivationKey(k) {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

func isActivationKey(k string) bool {
	return envKeyEqual(k, "PATH") || envKeyEqual(k, "VIRTUAL_ENV") || envKeyEqual(k, "VIRTUAL_ENV_PROMPT")
}

func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
