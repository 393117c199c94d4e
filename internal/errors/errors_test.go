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

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want int
	}{
		{"descriptor", InvalidDescriptor("bad ip.yml", "", nil), ExitDescriptor},
		{"suite", InvalidSuite("bad ts.yml", "", nil), ExitDescriptor},
		{"not found", NotFound("no such IP", "", ""), ExitResolver},
		{"ambiguous", Ambiguous("two IPs named uart", ""), ExitResolver},
		{"cycle", CyclicDependency("cycle", ""), ExitResolver},
		{"missing deps", MissingDependencies("2 deps missing", "", ""), ExitDeps},
		{"tool", ToolFailure("compile failed", "cmp.log", nil), ExitTool},
		{"simulator", SimulatorNotInstalled("vivado missing", ""), ExitSimulator},
		{"template", TemplateFailure("render failed", nil), ExitTemplate},
		{"timeout", RegressionTimeout("timed out"), ExitTimeout},
		{"io", IOFailure("copy failed", nil), ExitIO},
		{"internal", Internal("bug", nil), ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.ExitCode())
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	underlying := stderrors.New("permission denied")
	err := IOFailure("cannot write filelist", underlying)

	assert.Equal(t, "cannot write filelist: permission denied", err.Error())
	assert.True(t, stderrors.Is(err, underlying))

	wrapped := fmt.Errorf("compile stage: %w", err)
	var ue *UserError
	require.True(t, stderrors.As(wrapped, &ue))
	assert.Equal(t, KindIOFailure, ue.Kind)
	assert.Equal(t, KindIOFailure, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindIOFailure))
	assert.False(t, Is(wrapped, KindToolFailure))
}

func TestToolFailureCarriesLogLines(t *testing.T) {
	lines := []string{"ERROR: syntax", "ERROR: unresolved reference"}
	err := ToolFailure("compilation of 'acme/uart' failed", ".mio/sim/cmp/acme__uart.viv.cmp.log", lines)

	out := err.Format(true)
	assert.Contains(t, out, "Error: compilation of 'acme/uart' failed")
	assert.Contains(t, out, "Cause: ERROR: syntax")
	assert.Contains(t, out, "Cause: ERROR: unresolved reference")
	assert.Contains(t, out, "Fix:   Full log: .mio/sim/cmp/acme__uart.viv.cmp.log")
}

func TestFormatOmitsEmptySections(t *testing.T) {
	err := &UserError{Kind: KindInternal, Message: "boom"}
	out := err.Format(true)
	assert.Contains(t, out, "Error: boom")
	assert.NotContains(t, out, "Cause:")
	assert.NotContains(t, out, "Fix:")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(stderrors.New("plain")))
}
