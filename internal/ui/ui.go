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

// Package ui provides terminal output helpers for the mio CLI.
//
// Colors respect the NO_COLOR environment variable and are disabled
// automatically when stdout is not a TTY.
//
// Color usage:
//   - Red: errors, failed regressions
//   - Yellow: warnings
//   - Green: success, passed regressions
//   - Cyan: informational messages
//   - Bold: banners and labels
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// bannerRule is the horizontal rule printed above and below banner text.
const bannerRule = "************************************************************************************************************************"

// InitColors configures global color output. Call early in main().
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Banner prints a bold message between two horizontal rules.
func Banner(msg string) {
	fmt.Println(bannerRule)
	_, _ = Bold.Println("  " + msg)
	fmt.Println(bannerRule)
}

// Info prints a cyan informational message.
func Info(msg string) {
	_, _ = Cyan.Println(msg)
}

// Infof prints a formatted cyan informational message.
func Infof(format string, args ...any) {
	_, _ = Cyan.Printf(format+"\n", args...)
}

// Warning prints a yellow warning message with a warning prefix.
func Warning(msg string) {
	_, _ = Yellow.Println("⚠ " + msg)
}

// Warningf prints a formatted yellow warning message.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints a red error message with an X prefix.
func Error(msg string) {
	_, _ = Red.Println("✗ " + msg)
}

// Errorf prints a formatted red error message.
func Errorf(format string, args ...any) {
	_, _ = Red.Printf("✗ "+format+"\n", args...)
}

// Success prints a green success message with a checkmark prefix.
func Success(msg string) {
	_, _ = Green.Println("✓ " + msg)
}

// Successf prints a formatted green success message.
func Successf(format string, args ...any) {
	_, _ = Green.Printf("✓ "+format+"\n", args...)
}

// Label returns a bold-formatted label string for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for paths and details.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// Header prints a bold header with an underline separator.
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}
