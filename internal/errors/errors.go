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

// Package errors provides structured error handling for the mio CLI.
//
// Every fatal condition in the pipeline is represented by a UserError that
// carries what went wrong, why it happened, and how to fix it, plus a Kind
// identifying the failure category and the exit code the process should
// terminate with. Errors propagate upward through the pipeline to the CLI
// boundary, where FatalError renders them and exits.
package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindInternal marks unexpected conditions (bugs).
	KindInternal Kind = iota

	// KindInvalidDescriptor marks an ip.yml schema violation.
	KindInvalidDescriptor

	// KindInvalidSuite marks a ts.yml schema violation.
	KindInvalidSuite

	// KindNotFound marks a failed IP lookup.
	KindNotFound

	// KindAmbiguous marks a name-only IP lookup matching more than one IP.
	KindAmbiguous

	// KindCyclicDependency marks a cycle in the dependency graph.
	KindCyclicDependency

	// KindMissingDependencies marks uninstalled dependency IPs.
	KindMissingDependencies

	// KindSimulatorNotInstalled marks a failed probe of a tool home.
	KindSimulatorNotInstalled

	// KindTemplateFailure marks a filelist or script rendering failure.
	KindTemplateFailure

	// KindToolFailure marks error-regex matches in a stage log.
	KindToolFailure

	// KindRegressionTimeout marks a regression exceeding its wall-clock budget.
	KindRegressionTimeout

	// KindIOFailure marks a failed file copy/move/create.
	KindIOFailure
)

// Exit codes per failure category. 0 is success; anything else is fatal.
const (
	ExitSuccess    = 0
	ExitDescriptor = 1
	ExitResolver   = 2
	ExitDeps       = 3
	ExitTool       = 4
	ExitSimulator  = 5
	ExitTemplate   = 6
	ExitTimeout    = 7
	ExitIO         = 8
	ExitInternal   = 10
)

// exitCode maps each Kind to its process exit code.
func exitCode(kind Kind) int {
	switch kind {
	case KindInvalidDescriptor, KindInvalidSuite:
		return ExitDescriptor
	case KindNotFound, KindAmbiguous, KindCyclicDependency:
		return ExitResolver
	case KindMissingDependencies:
		return ExitDeps
	case KindToolFailure:
		return ExitTool
	case KindSimulatorNotInstalled:
		return ExitSimulator
	case KindTemplateFailure:
		return ExitTemplate
	case KindRegressionTimeout:
		return ExitTimeout
	case KindIOFailure:
		return ExitIO
	default:
		return ExitInternal
	}
}

// UserError is an error with structured context for end users.
//
// It carries three levels of information:
//   - Message: what went wrong
//   - Cause: why it happened
//   - Fix: how to resolve it (may be empty)
//
// plus the failure Kind and an optional wrapped error for errors.Is/As.
type UserError struct {
	Kind    Kind
	Message string
	Cause   string
	Fix     string
	Err     error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *UserError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code for this error's Kind.
func (e *UserError) ExitCode() int {
	return exitCode(e.Kind)
}

// New creates a UserError of the given kind.
func New(kind Kind, msg, cause, fix string, err error) *UserError {
	return &UserError{
		Kind:    kind,
		Message: msg,
		Cause:   cause,
		Fix:     fix,
		Err:     err,
	}
}

// InvalidDescriptor creates an ip.yml schema error.
func InvalidDescriptor(msg, cause string, err error) *UserError {
	return New(KindInvalidDescriptor, msg, cause, "Check the IP's ip.yml against the descriptor reference", err)
}

// InvalidSuite creates a ts.yml schema error.
func InvalidSuite(msg, cause string, err error) *UserError {
	return New(KindInvalidSuite, msg, cause, "Check the test suite descriptor against the ts.yml reference", err)
}

// NotFound creates a failed-lookup error.
func NotFound(msg, cause, fix string) *UserError {
	return New(KindNotFound, msg, cause, fix, nil)
}

// Ambiguous creates an ambiguous-lookup error.
func Ambiguous(msg, cause string) *UserError {
	return New(KindAmbiguous, msg, cause, "Qualify the IP with its vendor: VENDOR/NAME", nil)
}

// CyclicDependency creates a dependency-cycle error.
func CyclicDependency(msg, cause string) *UserError {
	return New(KindCyclicDependency, msg, cause, "Break the cycle in the ip.yml dependency lists", nil)
}

// MissingDependencies creates an uninstalled-dependencies error.
func MissingDependencies(msg, cause, fix string) *UserError {
	return New(KindMissingDependencies, msg, cause, fix, nil)
}

// SimulatorNotInstalled creates a failed tool-home-probe error.
func SimulatorNotInstalled(msg, cause string) *UserError {
	return New(KindSimulatorNotInstalled, msg, cause, "Set the simulator's home path in mio.yml or the matching MIO_*_HOME environment variable", nil)
}

// TemplateFailure creates a rendering error.
func TemplateFailure(msg string, err error) *UserError {
	return New(KindTemplateFailure, msg, "", "", err)
}

// ToolFailure creates a log-scan error. lines holds the matching log lines.
func ToolFailure(msg, logPath string, lines []string) *UserError {
	return &UserError{
		Kind:    KindToolFailure,
		Message: msg,
		Cause:   strings.Join(lines, "\n"),
		Fix:     "Full log: " + logPath,
	}
}

// RegressionTimeout creates a wall-clock-exceeded error.
func RegressionTimeout(msg string) *UserError {
	return New(KindRegressionTimeout, msg, "The regression's max-duration budget elapsed before all tests finished", "Raise 'max-duration' in the test suite settings or reduce the test count", nil)
}

// IOFailure creates a filesystem-operation error.
func IOFailure(msg string, err error) *UserError {
	return New(KindIOFailure, msg, "", "", err)
}

// Internal creates an unexpected-condition error.
func Internal(msg string, err error) *UserError {
	return New(KindInternal, msg, "", "This is a bug, please report it", err)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for terminal display:
//
//	Error: Errors during compilation of IP 'acme/uart'
//	Cause: ERROR: syntax error near 'endmodule'
//	Fix:   Full log: .mio/sim/cmp/acme__uart.viv.cmp.log
//
// Empty Cause or Fix sections are omitted. Color output respects the
// NO_COLOR environment variable and the noColor parameter.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		for _, line := range strings.Split(e.Cause, "\n") {
			out.WriteString(colorCause.Sprint("Cause: "))
			out.WriteString(line)
			out.WriteString("\n")
		}
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// FatalError prints the error and exits with its category's exit code.
// Non-UserError values exit with ExitInternal. Never returns.
func FatalError(err error) {
	if err == nil {
		return
	}

	var ue *UserError
	if errors.As(err, &ue) {
		fmt.Fprint(os.Stderr, ue.Format(false))
		os.Exit(ue.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}

// KindOf returns the Kind of err when it is (or wraps) a UserError,
// and KindInternal otherwise.
func KindOf(err error) Kind {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindInternal
}

// Is reports whether err is (or wraps) a UserError of the given kind.
func Is(err error, kind Kind) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}
