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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type PinCheck int

const (
	// PinUnknown means the constraint or version could not be compared.
	PinUnknown PinCheck = iota
	PinSatisfied
	PinViolated
)

func (c PinCheck) String() string {
	switch c {
	case PinSatisfied:
		return "satisfied"
	case PinViolated:
		return "violated"
	default:
		return "unknown"
	}
}

var (
	specifierClause   = regexp.MustCompile(`^(===|==|~=|!=|<=|>=|<|>)\s*(.+)$`)
	leadingOperator   = regexp.MustCompile(`^[=~><!]+`)
	dottedPrerelease  = regexp.MustCompile(`^[a-zA-Z]`)
	prereleasePattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)([a-zA-Z][a-zA-Z0-9]*.*)$`)
)

// CheckPin reports whether installed satisfies the requirement's specifier.
// A requirement without a specifier accepts any version; URL requirements
// cannot be compared.
func CheckPin(req Requirement, installed string) (PinCheck, error) {
	if req.URL != "" {
		return PinUnknown, nil
	}
	if req.Specifier == "" {
		return PinSatisfied, nil
	}

	constraint, err := ToConstraint(req.Specifier)
	if err != nil {
		return PinUnknown, err
	}
	v, err := semver.NewVersion(normalizeVersion(installed))
	if err != nil {
		return PinUnknown, fmt.Errorf("invalid version format: %s", installed)
	}
	if constraint.Check(v) {
		return PinSatisfied, nil
	}
	return PinViolated, nil
}

// ToConstraint translates a PEP 440 version specifier into a semver
// constraint. Only the operators pip commonly sees in the wild are
// supported.
func ToConstraint(specifier string) (*semver.Constraints, error) {
	var clauses []string
	for _, raw := range strings.Split(specifier, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		m := specifierClause.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("unsupported version specifier %q", raw)
		}
		op, version := m[1], strings.TrimSpace(m[2])

		switch op {
		case "===", "==":
			if strings.HasSuffix(version, ".*") {
				clauses = append(clauses, strings.TrimSuffix(version, ".*")+".x")
			} else {
				clauses = append(clauses, "="+normalizeVersion(version))
			}
		case "~=":
			lower, upper, err := compatibleRange(version)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, ">="+lower, "<"+upper)
		default:
			clauses = append(clauses, op+normalizeVersion(version))
		}
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("empty version specifier")
	}
	return semver.NewConstraint(strings.Join(clauses, ", "))
}

// compatibleRange expands "~=X.Y.Z" into [X.Y.Z, X.(Y+1)).
func compatibleRange(version string) (string, string, error) {
	release := strings.Split(strings.SplitN(normalizeVersion(version), "-", 2)[0], ".")
	if len(release) < 2 {
		return "", "", fmt.Errorf("~= requires at least two release segments: %s", version)
	}
	bump := release[:len(release)-1]
	last, err := strconv.Atoi(bump[len(bump)-1])
	if err != nil {
		return "", "", fmt.Errorf("invalid version format: %s", version)
	}
	upper := append([]string{}, bump...)
	upper[len(upper)-1] = strconv.Itoa(last + 1)
	return normalizeVersion(version), strings.Join(upper, "."), nil
}

// normalizeVersion rewrites PEP 440 style prereleases (1.0rc1, 1.0.0.rc2)
// into semver form.
func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	version = strings.Trim(version, " \"'")
	version = leadingOperator.ReplaceAllString(version, "")

	if dotIndex := strings.LastIndex(version, "."); dotIndex > 0 {
		if dotIndex < len(version)-1 && dottedPrerelease.MatchString(version[dotIndex+1:]) {
			version = version[:dotIndex] + "-" + version[dotIndex+1:]
		}
	}

	if matches := prereleasePattern.FindStringSubmatch(version); matches != nil {
		parts := strings.Split(matches[1], ".")
		for len(parts) < 3 {
			parts = append(parts, "0")
		}
		version = strings.Join(parts, ".") + "-" + matches[2]
	}

	return version
}
