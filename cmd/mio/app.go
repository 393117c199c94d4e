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

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/history"
	"github.com/datumtc/mio/pkg/ip"
	"github.com/datumtc/mio/pkg/sim"
)

// app bundles the per-invocation collaborators: configuration, the IP
// registry, the job history and the orchestrator.
type app struct {
	cfg   *cfg.Config
	cache *ip.Cache
	store *history.Store
	orch  *sim.Orchestrator
}

// newApp loads the project rooted at the working directory and wires the
// engine together. The returned context is cancelled on SIGINT/SIGTERM so
// in-flight tool processes die with the CLI.
func newApp() (*app, context.Context, context.CancelFunc, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, nil, errors.IOFailure("cannot determine working directory", err)
	}
	c, err := cfg.Load(wd)
	if err != nil {
		return nil, nil, nil, errors.New(errors.KindInternal,
			"cannot load project configuration", err.Error(),
			"Run 'mio init' to create a project, or use --wd to point at one", err)
	}

	cache := ip.NewCache(c)
	if err := cache.Scan(); err != nil {
		return nil, nil, nil, err
	}
	// Unresolvable dependency edges are deferred to the orchestrator's
	// missing-dependency check, which can offer an interactive install.
	if err := cache.Resolve(); err != nil {
		if !errors.Is(err, errors.KindNotFound) {
			return nil, nil, nil, err
		}
		slog.Debug("cache.resolve.deferred", "err", err)
	}
	cache.RefreshState()

	store, err := history.Load(c.HistoryFilePath())
	if err != nil {
		return nil, nil, nil, err
	}
	fl, err := flist.New(c)
	if err != nil {
		return nil, nil, nil, err
	}
	launcher := eda.NewLauncher()
	orch := sim.New(c, cache, store, fl, launcher)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &app{cfg: c, cache: cache, store: store, orch: orch}, ctx, cancel, nil
}

// close flushes the job history. Called on every exit path, including
// fatal ones, so the history file stays consistent.
func (a *app) close() {
	_ = a.store.Flush()
}

// fatal terminates the process over a pipeline error: every live tool
// child is killed, the history is flushed, and the error is rendered with
// its category's exit code.
func (a *app) fatal(err error) {
	a.orch.Launcher().KillAll()
	a.close()
	errors.FatalError(err)
}

// fatalStartup terminates over an error raised before the app was built.
func fatalStartup(err error) {
	errors.FatalError(err)
}

// resolveTarget looks up the target IP for a command argument.
func (a *app) resolveTarget(ident string) (*ip.IP, error) {
	return a.cache.Find(ident, true)
}
