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
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchDryRunRecordsCommand(t *testing.T) {
	l := NewLauncher()
	commands, err := l.Launch(context.Background(), LaunchSpec{
		Path:   "/tools/vivado/xvlog",
		Args:   []string{"--incr", "-sv", "-f", "uart.flist"},
		WD:     "/tmp",
		DryRun: true,
	})
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "/tools/vivado/xvlog --incr -sv -f uart.flist", commands[0])
	assert.Equal(t, 0, l.LiveChildren())
}

func TestLaunchRunsChildInWorkingDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	l := NewLauncher()
	_, err := l.Launch(context.Background(), LaunchSpec{
		Path: "/bin/sh",
		Args: []string{"-c", "pwd > " + out},
		WD:   dir,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, string(content), filepath.Base(resolved))
}

func TestLaunchPassesExtraEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "env.txt")

	l := NewLauncher()
	_, err := l.Launch(context.Background(), LaunchSpec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo $MIO_UART_SRC_PATH > " + out},
		WD:   dir,
		Env:  []string{"MIO_UART_SRC_PATH=/src/uart"},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "/src/uart\n", string(content))
}

func TestLaunchNonZeroExitIsNotAnError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	l := NewLauncher()
	_, err := l.Launch(context.Background(), LaunchSpec{
		Path: "/bin/sh",
		Args: []string{"-c", "exit 3"},
		WD:   t.TempDir(),
	})
	assert.NoError(t, err)
}

func TestLaunchStdoutFileRedirect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tool.log")

	l := NewLauncher()
	_, err := l.Launch(context.Background(), LaunchSpec{
		Path:       "/bin/sh",
		Args:       []string{"-c", "echo compiled; echo oops >&2"},
		WD:         dir,
		StdoutFile: logPath,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "compiled")
	assert.Contains(t, string(content), "oops")
}

func TestLaunchContextCancellationKillsChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLauncher()

	done := make(chan error, 1)
	go func() {
		_, err := l.Launch(ctx, LaunchSpec{
			Path: "/bin/sh",
			Args: []string{"-c", "sleep 60"},
			WD:   t.TempDir(),
		})
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("launch did not return after cancellation")
	}
	assert.Equal(t, 0, l.LiveChildren())
}
