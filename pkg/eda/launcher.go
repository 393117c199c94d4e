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
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// LaunchSpec describes one external tool invocation.
type LaunchSpec struct {
	// Path is the tool binary, usually under a simulator home.
	Path string

	// Args are passed verbatim.
	Args []string

	// WD is the child's working directory.
	WD string

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment (IP source paths, UVM_HOME, ...).
	Env []string

	// EchoStdout streams the child's output to the user; otherwise it is
	// discarded. Log files are written by the tools themselves.
	EchoStdout bool

	// StdoutFile redirects the child's stdout and stderr into a file.
	// Used for tools that have no log-file flag of their own. Takes
	// precedence over EchoStdout.
	StdoutFile string

	// DryRun records the command line without executing anything.
	DryRun bool
}

// CommandLine renders the invocation as a shell-style line.
func (s LaunchSpec) CommandLine() string {
	parts := append([]string{s.Path}, s.Args...)
	return strings.Join(parts, " ")
}

// Launcher executes external tools and tracks every live child so that an
// abnormal exit of the orchestrator can terminate them all.
//
// The working directory and environment are passed directly to the child
// rather than mutated process-wide, so concurrent launches from regression
// workers cannot leak state into each other.
type Launcher struct {
	mu       sync.Mutex
	children map[*exec.Cmd]struct{}
}

// NewLauncher creates an empty launcher.
func NewLauncher() *Launcher {
	return &Launcher{children: make(map[*exec.Cmd]struct{})}
}

// Launch runs one tool invocation to completion and returns the command
// lines that ran (or would run, under dry-run).
//
// Non-zero exit codes are NOT errors: the tools disagree on exit-code
// conventions, so correctness is decided by log scanning. The returned
// error covers only launch failures and context cancellation.
func (l *Launcher) Launch(ctx context.Context, spec LaunchSpec) ([]string, error) {
	recorded := []string{spec.CommandLine()}
	if spec.DryRun {
		slog.Debug("eda.launch.dry_run", "cmd", recorded[0])
		return recorded, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.WD
	cmd.Env = append(os.Environ(), spec.Env...)
	switch {
	case spec.StdoutFile != "":
		logFile, err := os.Create(spec.StdoutFile)
		if err != nil {
			return nil, err
		}
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	case spec.EchoStdout:
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	slog.Debug("eda.launch", "cmd", recorded[0], "wd", spec.WD)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	l.register(cmd)
	defer l.unregister(cmd)

	err := cmd.Wait()
	if err != nil {
		if _, exit := err.(*exec.ExitError); exit {
			// Exit status is informational only.
			slog.Debug("eda.launch.exit", "cmd", spec.Path, "err", err)
			err = nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return recorded, ctxErr
	}
	return recorded, err
}

func (l *Launcher) register(cmd *exec.Cmd) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.children[cmd] = struct{}{}
}

func (l *Launcher) unregister(cmd *exec.Cmd) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.children, cmd)
}

// LiveChildren returns the number of children currently running.
func (l *Launcher) LiveChildren() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.children)
}

// KillAll terminates every live child. Wired as the process-exit hook so
// that a fatal error or regression timeout leaves no tool processes
// behind.
func (l *Launcher) KillAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for cmd := range l.children {
		if cmd.Process != nil {
			slog.Debug("eda.launch.kill", "pid", cmd.Process.Pid)
			_ = cmd.Process.Kill()
		}
	}
}
