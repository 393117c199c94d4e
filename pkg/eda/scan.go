// Copyright 2026 Datum Technology Corporation
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
//
// SPDX-License-Identifier: Apache-2.0

package eda

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	"github.com/datumtc/mio/internal/errors"
)

// maxReportedErrorLines bounds how many matching log lines are surfaced to
// the user; the full log path is always included.
const maxReportedErrorLines = 10

// ScanLog reads the log at path line by line and returns every line
// matching one of the patterns, with trailing newlines stripped.
func ScanLog(path string, patterns []*regexp.Regexp) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot open log file %s", path), err)
	}
	defer file.Close()

	var matches []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		for _, pattern := range patterns {
			if pattern.MatchString(line) {
				matches = append(matches, line)
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("failed while scanning log file %s", path), err)
	}
	return matches, nil
}

// CheckLog scans the stage log and converts any matches into a ToolFailure
// carrying the first matching lines and the log path.
func CheckLog(stage, ident, path string, patterns []*regexp.Regexp) error {
	found, err := ScanLog(path, patterns)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return nil
	}
	reported := found
	if len(reported) > maxReportedErrorLines {
		reported = reported[:maxReportedErrorLines]
	}
	return errors.ToolFailure(
		fmt.Sprintf("errors during %s of '%s'", stage, ident),
		path, reported)
}

// compilePatterns builds a regexp list from literal pattern sources.
func compilePatterns(sources []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		out = append(out, regexp.MustCompile(src))
	}
	return out
}
