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

package regr

import (
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/ip"
)

// SuiteFileSuffix is the suite descriptor extension. A suite file is
// either "ts.yml" (unqualified) or "<name>.ts.yml".
const SuiteFileSuffix = "ts.yml"

// suiteHeader mirrors the typed `test-suite` block of a descriptor. The
// set/group/test tree is walked through yaml.Node to preserve document
// order.
type suiteHeader struct {
	TestSuite struct {
		Info struct {
			Name string `yaml:"name"`
			IP   string `yaml:"ip"`
		} `yaml:"info"`
		Target struct {
			CmpArgs  []string `yaml:"cmp-args"`
			ElabArgs []string `yaml:"elab-args"`
			SimArgs  []string `yaml:"sim-args"`
		} `yaml:"target"`
		Settings struct {
			Waves       []string           `yaml:"waves"`
			Cov         []string           `yaml:"cov"`
			Verbosity   map[string]string  `yaml:"verbosity"`
			MaxDuration map[string]float64 `yaml:"max-duration"`
			MaxJobs     map[string]int     `yaml:"max-jobs"`
		} `yaml:"settings"`
	} `yaml:"test-suite"`
}

// FindSuiteFile locates the suite descriptor for an IP: the bare ts.yml
// when suiteName is empty, else <suiteName>.ts.yml, anywhere under the
// IP's tests path.
func FindSuiteFile(target *ip.IP, sim cfg.Simulator, suiteName string) (string, error) {
	if target.HDL.TestsPath == "" {
		return "", errors.InvalidDescriptor(
			fmt.Sprintf("IP '%s' does not have 'hdl-src.tests-path' defined in its ip.yml", target.Ident()), "", nil)
	}
	testsDir := filepath.Join(target.SrcDir(sim), target.HDL.TestsPath)

	want := SuiteFileSuffix
	if suiteName != "" {
		want = suiteName + "." + SuiteFileSuffix
	}
	var found string
	err := filepath.WalkDir(testsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == want {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errors.IOFailure(fmt.Sprintf("cannot scan %s for test suites", testsDir), err)
	}
	if found == "" {
		return "", errors.NotFound(
			fmt.Sprintf("could not find test suite '%s' for IP '%s'", want, target.Ident()),
			fmt.Sprintf("no %s under %s", want, testsDir),
			"Add a test suite descriptor under the IP's tests path")
	}
	return found, nil
}

// ParseSuiteFile parses and validates one suite descriptor. suiteQualifier
// is the file-name qualifier ("" for the bare ts.yml); now stamps the
// run's regression directories.
func ParseSuiteFile(target *ip.IP, sim cfg.Simulator, path, suiteQualifier string, now time.Time) (*TestSuite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot read test suite %s", path), err)
	}

	var header suiteHeader
	if err := yaml.Unmarshal(raw, &header); err != nil {
		return nil, errors.InvalidSuite(fmt.Sprintf("failed to parse test suite '%s'", path), err.Error(), err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.InvalidSuite(fmt.Sprintf("failed to parse test suite '%s'", path), err.Error(), err)
	}

	info := header.TestSuite.Info
	if info.Name == "" {
		return nil, errors.InvalidSuite(fmt.Sprintf("no 'name' entry in 'test-suite.info' of %s", path), "", nil)
	}
	if info.IP == "" {
		return nil, errors.InvalidSuite(fmt.Sprintf("no 'ip' entry in 'test-suite.info' of %s", path), "", nil)
	}

	settings := header.TestSuite.Settings
	if len(settings.MaxDuration) == 0 {
		return nil, errors.InvalidSuite(fmt.Sprintf("no 'max-duration' entry in test-suite settings of %s", path), "", nil)
	}
	if len(settings.MaxJobs) == 0 {
		return nil, errors.InvalidSuite(fmt.Sprintf("no 'max-jobs' entry in test-suite settings of %s", path), "", nil)
	}
	for name, hours := range settings.MaxDuration {
		if hours <= 0 {
			return nil, errors.InvalidSuite(
				fmt.Sprintf("'max-duration' for regression '%s' must be strictly positive (got %v)", name, hours), "", nil)
		}
	}
	for name, jobs := range settings.MaxJobs {
		if jobs <= 0 {
			return nil, errors.InvalidSuite(
				fmt.Sprintf("'max-jobs' for regression '%s' must be strictly positive (got %d)", name, jobs), "", nil)
		}
	}

	verbosity := make(map[string]eda.Verbosity, len(settings.Verbosity))
	for name, level := range settings.Verbosity {
		parsed, err := eda.ParseVerbosity(level)
		if err != nil {
			return nil, errors.InvalidSuite(
				fmt.Sprintf("'verbosity' entry '%s' is not valid", level),
				"choices are: none, low, medium, high, debug", nil)
		}
		verbosity[name] = parsed
	}

	suite := &TestSuite{
		Name:          strings.TrimSpace(info.Name),
		FileQualifier: suiteQualifier,
		IPName:        strings.ToLower(strings.TrimSpace(info.IP)),
		IP:            target,
		Timestamp:     cfg.RegrTimestamp(now),
		Simulator:     sim,
		CmpArgs:       header.TestSuite.Target.CmpArgs,
		ElabArgs:      header.TestSuite.Target.ElabArgs,
		SimArgs:       header.TestSuite.Target.SimArgs,
		Waves:         settings.Waves,
		Cov:           settings.Cov,
		Verbosity:     verbosity,
		MaxDurations:  settings.MaxDuration,
		MaxJobs:       settings.MaxJobs,
		Regressions:   make(map[string]*Regression),
	}

	if err := suite.parseTree(&doc); err != nil {
		return nil, err
	}
	if err := suite.checkConsistency(); err != nil {
		return nil, err
	}
	slog.Debug("regr.parse", "suite", suite.Name, "regressions", len(suite.Regressions))
	return suite, nil
}

// parseTree walks the set → group → test → regression tree in document
// order, expanding seed specifications into tests.
func (s *TestSuite) parseTree(doc *yaml.Node) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return errors.InvalidSuite("test suite document is empty", "", nil)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.InvalidSuite("test suite root is not a mapping", "", nil)
	}

	for i := 0; i < len(root.Content); i += 2 {
		setName := root.Content[i].Value
		setNode := root.Content[i+1]
		if setName == "test-suite" {
			continue
		}
		if setNode.Kind != yaml.MappingNode {
			return errors.InvalidSuite(fmt.Sprintf("test set '%s' is not a mapping", setName), "", nil)
		}
		set := &TestSet{Name: setName}
		s.Sets = append(s.Sets, set)

		for j := 0; j < len(setNode.Content); j += 2 {
			groupName := setNode.Content[j].Value
			groupNode := setNode.Content[j+1]
			if groupNode.Kind != yaml.MappingNode {
				return errors.InvalidSuite(fmt.Sprintf("test group '%s.%s' is not a mapping", setName, groupName), "", nil)
			}
			group := &TestGroup{Name: groupName, Set: set}
			set.Groups = append(set.Groups, group)

			for k := 0; k < len(groupNode.Content); k += 2 {
				testName := groupNode.Content[k].Value
				testNode := groupNode.Content[k+1]
				if testNode.Kind != yaml.MappingNode {
					return errors.InvalidSuite(fmt.Sprintf("test '%s.%s.%s' is not a mapping", setName, groupName, testName), "", nil)
				}
				for m := 0; m < len(testNode.Content); m += 2 {
					regrName := strings.ToLower(strings.TrimSpace(testNode.Content[m].Value))
					specNode := testNode.Content[m+1]
					if err := s.expandSpec(set, group, testName, regrName, specNode); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// expandSpec expands one regression entry: a count, an explicit seed list,
// or a mapping with 'seeds' and optional 'args'.
func (s *TestSuite) expandSpec(set *TestSet, group *TestGroup, testName, regrName string, spec *yaml.Node) error {
	where := fmt.Sprintf("%s.%s.%s.%s", set.Name, group.Name, testName, regrName)

	regression, ok := s.Regressions[regrName]
	if !ok {
		regression = &Regression{
			Name:        regrName,
			Suite:       s,
			MaxDuration: s.MaxDurations[regrName],
			MaxJobs:     max(s.MaxJobs[regrName], 1),
		}
		s.Regressions[regrName] = regression
		s.regressionOrder = append(s.regressionOrder, regrName)
		slog.Debug("regr.parse.regression", "name", regrName, "at", where)
	}

	var args []string
	seedsNode := spec

	if spec.Kind == yaml.MappingNode {
		var entry struct {
			Seeds yaml.Node `yaml:"seeds"`
			Args  []string  `yaml:"args"`
		}
		if err := spec.Decode(&entry); err != nil {
			return errors.InvalidSuite(fmt.Sprintf("illegal regression entry: '%s'", where), err.Error(), nil)
		}
		if entry.Seeds.Kind == 0 {
			return errors.InvalidSuite(fmt.Sprintf("regression entry missing 'seeds' entry: '%s'", where), "", nil)
		}
		args = entry.Args
		seedsNode = &entry.Seeds
	}

	switch seedsNode.Kind {
	case yaml.ScalarNode:
		var count int
		if err := seedsNode.Decode(&count); err != nil {
			return errors.InvalidSuite(fmt.Sprintf("illegal regression entry: '%s'", where), "", nil)
		}
		if count <= 0 {
			return errors.InvalidSuite(
				fmt.Sprintf("value of '%d' is less than 1: '%s'", count, where), "", nil)
		}
		for range count {
			regression.addTest(set, group, testName, randomSeed(), args)
		}
	case yaml.SequenceNode:
		var seeds []int64
		if err := seedsNode.Decode(&seeds); err != nil {
			return errors.InvalidSuite(fmt.Sprintf("seed values are not integers: '%s'", where), "", nil)
		}
		for _, seed := range seeds {
			if seed < eda.MinSeed || seed > eda.MaxSeed {
				return errors.InvalidSuite(
					fmt.Sprintf("seed value '%d' is out of range [%d, %d]: '%s'", seed, eda.MinSeed, int64(eda.MaxSeed), where), "", nil)
			}
			regression.addTest(set, group, testName, seed, args)
		}
	default:
		return errors.InvalidSuite(fmt.Sprintf("illegal regression entry: '%s'", where), "", nil)
	}
	return nil
}

func (r *Regression) addTest(set *TestSet, group *TestGroup, name string, seed int64, args []string) {
	r.Tests = append(r.Tests, &RegressionTest{
		Name:  name,
		Set:   set.Name,
		Group: group.Name,
		Seed:  seed,
		Args:  args,
	})
}

// randomSeed draws a uniformly-random positive 31-bit seed.
func randomSeed() int64 {
	return rand.Int63n(eda.MaxSeed) + 1
}

// checkConsistency enforces the suite-level invariants.
func (s *TestSuite) checkConsistency() error {
	if s.IPName != strings.ToLower(s.IP.Name) {
		return errors.InvalidSuite(
			fmt.Sprintf("IP '%s' in suite does not match '%s' as specified", s.IPName, s.IP.Name), "", nil)
	}
	if len(s.Sets) == 0 {
		return errors.InvalidSuite("test suite does not contain any test sets", "", nil)
	}
	for _, name := range s.regressionOrder {
		count := len(s.Regressions[name].Tests)
		if count > MaxTests {
			return errors.InvalidSuite(
				fmt.Sprintf("regression '%s' describes more than %d tests (%d)", name, MaxTests, count),
				"", nil)
		}
		if count > WarnTests {
			ui.Warningf("Regression '%s' describes more than %d tests (%d)", name, WarnTests, count)
		}
	}
	return nil
}
