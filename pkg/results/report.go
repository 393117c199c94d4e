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

package results

import (
	"encoding/xml"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
)

// htmlReport is the summary page template.
const htmlReport = `<!DOCTYPE html>
<html>
<head><title>{{ .IPIdent }} - {{ .Name }}</title></head>
<body>
<h1>Simulation results for {{ .IPIdent }}</h1>
<p>{{ .NumPassed }} passed, {{ .NumFailed }} failed ({{ printf "%.1f" .PctPassed }} %)</p>
<table border="1">
<tr><th>Test</th><th>Seed</th><th>Args</th><th>Status</th><th>Log</th></tr>
{{ range .Outcomes }}<tr>
<td>{{ .TestName }}</td>
<td>{{ .Seed }}</td>
<td>{{ .Args }}</td>
<td>{{ if .Passed }}PASSED{{ else }}FAILED{{ end }}</td>
<td><a href="{{ .LogPath }}">{{ .LogPath }}</a></td>
</tr>
{{ end }}</table>
</body>
</html>
`

// JUnit-style XML structures.
type junitTestSuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// writeHTML renders the report page to <sim_results>/<name>.html.
func writeHTML(c *cfg.Config, report *Report) (string, error) {
	parsed, err := template.New("results").Parse(htmlReport)
	if err != nil {
		return "", errors.TemplateFailure("cannot parse results HTML template", err)
	}
	path := filepath.Join(c.SimResultsDir, report.Name+".html")
	out, err := os.Create(path)
	if err != nil {
		return "", errors.IOFailure(fmt.Sprintf("cannot create results report %s", path), err)
	}
	defer out.Close()
	if err := parsed.Execute(out, report); err != nil {
		return "", errors.TemplateFailure("cannot render results HTML report", err)
	}
	return path, nil
}

// writeJUnit emits the CI-consumable XML to <sim_results>/<name>.xml.
func writeJUnit(c *cfg.Config, report *Report) (string, error) {
	suite := junitTestSuite{
		Name:     report.Name,
		Tests:    len(report.Outcomes),
		Failures: report.NumFailed,
	}
	for _, outcome := range report.Outcomes {
		testCase := junitTestCase{
			Name:      fmt.Sprintf("%s_%d", outcome.TestName, outcome.Seed),
			ClassName: report.IPIdent,
		}
		if !outcome.Passed {
			testCase.Failure = &junitFailure{
				Message: "simulation failed",
				Body:    strings.Join(outcome.Failures, "\n"),
			}
		}
		suite.Cases = append(suite.Cases, testCase)
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return "", errors.Internal("cannot serialize JUnit report", err)
	}
	path := filepath.Join(c.SimResultsDir, report.Name+".xml")
	body := append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, append(body, '\n'), 0o644); err != nil {
		return "", errors.IOFailure(fmt.Sprintf("cannot write JUnit report %s", path), err)
	}
	return path, nil
}
