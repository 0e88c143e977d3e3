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

import "fmt"

// State is a position in the bootstrap sequence. The sequence is linear;
// StateAborted is reachable from every state before StateDeactivated.
type State int

const (
	StateNotStarted State = iota
	StateEnvEnsured
	StatePackageInstalled
	StateManifestInstalled
	StateActivated
	StateRan
	StateDeactivated
	StateAborted
)

var stateNames = map[State]string{
	StateNotStarted:        "NotStarted",
	StateEnvEnsured:        "EnvEnsured",
	StatePackageInstalled:  "PackageInstalled",
	StateManifestInstalled: "ManifestInstalled",
	StateActivated:         "Activated",
	StateRan:               "Ran",
	StateDeactivated:       "Deactivated",
	StateAborted:           "Aborted",
}

// stepNames describe the work performed to reach a state.
var stepNames = map[State]string{
	StateEnvEnsured:        "create environment",
	StatePackageInstalled:  "install package",
	StateManifestInstalled: "install manifest dependencies",
	StateActivated:         "activate environment",
	StateRan:               "run entry point",
	StateDeactivated:       "deactivate environment",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Step returns the name of the step that leads into s.
func (s State) Step() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return s.String()
}

func (s State) IsTerminal() bool {
	return s == StateDeactivated || s == StateAborted
}

type Transition struct {
	From State
	To   State
}

func (t Transition) String() string {
	return t.From.String() + " -> " + t.To.String()
}
