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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Requirement is one named entry of a pip requirements file.
type Requirement struct {
	Name      string
	Extras    []string
	Specifier string
	URL       string
	Marker    string
	File      string
	Line      int
}

type Requirements []Requirement

var (
	nameSeparators  = regexp.MustCompile(`[-_.]+`)
	requirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*(.*)$`)
)

// NormalizeName applies PEP 503 normalization so "Foo_Bar" and "foo-bar"
// compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(strings.TrimSpace(name), "-"))
}

func (r Requirement) Key() string {
	return NormalizeName(r.Name)
}

// IsConstrained reports whether the requirement restricts which release
// pip may pick, through a version specifier or a direct URL.
func (r Requirement) IsConstrained() bool {
	return r.Specifier != "" || r.URL != ""
}

func (r Requirement) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Extras) > 0 {
		sb.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	if r.URL != "" {
		sb.WriteString(" @ " + r.URL)
	} else {
		sb.WriteString(r.Specifier)
	}
	if r.Marker != "" {
		sb.WriteString("; " + r.Marker)
	}
	return sb.String()
}

// Find returns the last requirement for name, matching pip's behaviour of
// letting later lines win.
func (rs Requirements) Find(name string) (Requirement, bool) {
	key := NormalizeName(name)
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i].Key() == key {
			return rs[i], true
		}
	}
	return Requirement{}, false
}

// LoadRequirements reads a requirements file, following -r includes
// relative to the including file.
func LoadRequirements(path string) (Requirements, error) {
	return loadRequirements(path, map[string]bool{})
}

func loadRequirements(path string, seen map[string]bool) (Requirements, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if seen[abs] {
		return nil, nil
	}
	seen[abs] = true

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reqs, includes, err := ParseRequirements(f, path)
	if err != nil {
		return nil, err
	}
	for _, include := range includes {
		if !filepath.IsAbs(include) {
			include = filepath.Join(filepath.Dir(path), include)
		}
		nested, err := loadRequirements(include, seen)
		if err != nil {
			return nil, fmt.Errorf("failed to read included requirements from %s: %w", path, err)
		}
		reqs = append(reqs, nested...)
	}
	return reqs, nil
}

// ParseRequirements parses pip requirements syntax. Named requirements are
// returned in file order; -r/--requirement targets are returned separately
// and are not opened. Other options and unnamed entries (paths, bare URLs)
// are skipped.
func ParseRequirements(r io.Reader, source string) (Requirements, []string, error) {
	var (
		reqs      Requirements
		includes  []string
		pending   strings.Builder
		startLine int
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if pending.Len() == 0 {
			startLine = lineNo
		}
		if strings.HasSuffix(line, `\`) {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			continue
		}
		pending.WriteString(line)
		logical := stripComment(pending.String())
		pending.Reset()

		if logical == "" {
			continue
		}
		if strings.HasPrefix(logical, "-") {
			if target, ok := includeTarget(logical); ok {
				includes = append(includes, target)
			}
			continue
		}
		if req, ok := parseRequirement(logical); ok {
			req.File = source
			req.Line = startLine
			reqs = append(reqs, req)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return reqs, includes, nil
}

// stripComment removes a '#' comment that starts the line or follows
// whitespace, then trims.
func stripComment(line string) string {
	for i, c := range line {
		if c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
			line = line[:i]
			break
		}
	}
	return strings.TrimSpace(line)
}

func includeTarget(option string) (string, bool) {
	for _, prefix := range []string{"--requirement=", "--requirement ", "-r "} {
		if strings.HasPrefix(option, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(option, prefix)), true
		}
	}
	if strings.HasPrefix(option, "-r") && len(option) > 2 && option[2] != '-' {
		return strings.TrimSpace(option[2:]), true
	}
	return "", false
}

func parseRequirement(line string) (Requirement, bool) {
	var marker string
	if idx := strings.Index(line, ";"); idx >= 0 {
		marker = strings.TrimSpace(line[idx+1:])
		line = strings.TrimSpace(line[:idx])
	}

	matches := requirementLine.FindStringSubmatch(line)
	if matches == nil {
		return Requirement{}, false
	}

	req := Requirement{Name: matches[1], Marker: marker}
	if matches[2] != "" {
		for _, extra := range strings.Split(matches[2], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}

	rest := strings.TrimSpace(matches[3])
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "@"):
		req.URL = strings.TrimSpace(strings.TrimPrefix(rest, "@"))
	case strings.ContainsAny(rest[:1], "=~<>!"):
		req.Specifier = strings.Join(strings.Fields(rest), "")
	case strings.HasPrefix(rest, "("):
		// legacy "name (>=1.0)" form
		req.Specifier = strings.Join(strings.Fields(strings.Trim(rest, "()")), "")
	default:
		return Requirement{}, false
	}
	return req, true
}
