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

package sim

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/datumtc/mio/internal/errors"
)

// testNameData feeds an IP's test-name template.
type testNameData struct {
	Name string
}

// resultDirData feeds the test-results-path template from the project
// configuration.
type resultDirData struct {
	IPVendor    string
	IPName      string
	TestName    string
	Seed        int64
	Args        []string
	ArgsPresent bool
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// renderTemplate executes a one-off template over data. Failures are
// TemplateFailure errors naming the template.
func renderTemplate(name, text string, data any) (string, error) {
	parsed, err := template.New(name).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", errors.TemplateFailure(fmt.Sprintf("cannot parse template '%s'", name), err)
	}
	var out strings.Builder
	if err := parsed.Execute(&out, data); err != nil {
		return "", errors.TemplateFailure(fmt.Sprintf("cannot render template '%s'", name), err)
	}
	return out.String(), nil
}

// sanitizeDirName makes a rendered result-directory name filesystem-safe.
func sanitizeDirName(name string) string {
	replacer := strings.NewReplacer("+", "", "=", "_", "/", "_", " ", "_", "\"", "")
	return replacer.Replace(name)
}
