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

// Package history persists a record of every compile, elaborate, gen-image
// and simulate operation across mio invocations.
//
// The store is a YAML file keyed by IP identifier ("vendor/name", or the
// FuseSoC core name), holding per-stage record lists. It is loaded once at
// process start, mutated in memory through mutex-serialized appends, and
// flushed atomically (write-temp-then-rename) before exit. Readers use it
// for runtime estimation, coverage merging and result reporting.
package history

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
)

// Stage names, used as keys inside each IP's history entry.
const (
	StageCompile  = "compilation"
	StageElab     = "elaboration"
	StageGenImage = "gen-image"
	StageSim      = "simulation"
)

// Record types for simulation entries. A simulation appends a start record
// before launching the tool and an end record after it returns, so an
// interrupted run still leaves a trace.
const (
	TypeStart = "start"
	TypeEnd   = "end"
)

// Record is one history entry. Compile/elaborate/gen-image records use the
// timestamp and log fields only; simulation records carry the full test
// identity and the regression markers.
type Record struct {
	Type           string `yaml:"type,omitempty"`
	Simulator      string `yaml:"simulator"`
	Timestamp      string `yaml:"timestamp,omitempty"`
	TimestampStart string `yaml:"timestamp_start,omitempty"`
	TimestampEnd   string `yaml:"timestamp_end,omitempty"`
	LogPath        string `yaml:"log_path,omitempty"`

	TestName    string `yaml:"test_name,omitempty"`
	Seed        int64  `yaml:"seed,omitempty"`
	Args        string `yaml:"args,omitempty"`
	Waves       bool   `yaml:"waves,omitempty"`
	Cov         bool   `yaml:"cov,omitempty"`
	GUI         bool   `yaml:"gui,omitempty"`
	ResultsPath string `yaml:"path,omitempty"`

	IsRegression        bool   `yaml:"is_regression,omitempty"`
	RegressionName      string `yaml:"regression_name,omitempty"`
	RegressionTimestamp string `yaml:"regression_timestamp,omitempty"`
}

// Store is the in-memory job history, guarded by a mutex so that regression
// workers can append concurrently.
type Store struct {
	path string

	mu   sync.Mutex
	data map[string]map[string][]Record
}

// Load reads the history file at path. A missing file yields an empty
// store; a malformed file is an IOFailure.
func Load(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: make(map[string]map[string][]Record),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.IOFailure(fmt.Sprintf("cannot read job history %s", path), err)
	}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot parse job history %s", path), err)
	}
	if s.data == nil {
		s.data = make(map[string]map[string][]Record)
	}
	slog.Debug("history.load", "path", path, "ip_count", len(s.data))
	return s, nil
}

// Append adds one record under (ident, stage).
func (s *Store) Append(ident, stage string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[ident]
	if !ok {
		entry = make(map[string][]Record)
		s.data[ident] = entry
	}
	entry[stage] = append(entry[stage], rec)
}

// AppendSimStart records the launch of a simulation.
func (s *Store) AppendSimStart(ident string, rec Record) {
	rec.Type = TypeStart
	s.Append(ident, StageSim, rec)
}

// AppendSimEnd records the completion of a simulation.
func (s *Store) AppendSimEnd(ident string, rec Record) {
	rec.Type = TypeEnd
	s.Append(ident, StageSim, rec)
}

// Records returns a copy of the records under (ident, stage).
func (s *Store) Records(ident, stage string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.data[ident][stage]
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// SimEndRecords returns the simulation end records for ident, optionally
// filtered to one regression run (regressionName and timestamp both set).
func (s *Store) SimEndRecords(ident, regressionName, regressionTimestamp string) []Record {
	var out []Record
	for _, rec := range s.Records(ident, StageSim) {
		if rec.Type != TypeEnd {
			continue
		}
		if regressionName != "" && rec.RegressionName != regressionName {
			continue
		}
		if regressionTimestamp != "" && rec.RegressionTimestamp != regressionTimestamp {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// EstimateDuration computes the arithmetic mean of (end − start) across all
// prior records of (ident, stage), rounded up to the nearest second. It
// returns 0 when there are no usable records. For the simulation stage only
// end records are considered (start records carry a single timestamp).
func (s *Store) EstimateDuration(ident, stage string) time.Duration {
	var total time.Duration
	var count int
	for _, rec := range s.Records(ident, stage) {
		if stage == StageSim && rec.Type != TypeEnd {
			continue
		}
		start, err := cfg.ParseHistoryTimestamp(rec.TimestampStart)
		if err != nil {
			continue
		}
		end, err := cfg.ParseHistoryTimestamp(rec.TimestampEnd)
		if err != nil {
			continue
		}
		if end.Before(start) {
			continue
		}
		total += end.Sub(start)
		count++
	}
	if count == 0 {
		return 0
	}
	mean := total.Seconds() / float64(count)
	return time.Duration(math.Ceil(mean)) * time.Second
}

// Flush writes the history back to disk atomically: the serialized tree
// goes to a temp file in the same directory, then renames over the target.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(s.data)
	if err != nil {
		return errors.IOFailure("cannot serialize job history", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create history directory for %s", s.path), err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot write job history %s", tmp), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.IOFailure(fmt.Sprintf("cannot rename job history into place at %s", s.path), err)
	}
	slog.Debug("history.flush", "path", s.path, "ip_count", len(s.data))
	return nil
}
