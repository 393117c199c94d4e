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
	"time"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/ip"
)

// nowHistory stamps the current time in the history record format.
func nowHistory() string {
	return cfg.HistoryTimestamp(time.Now())
}

// printEndOfCompilation points the user at the compilation log; when it is
// the last stage of the invocation, editor one-liners are included.
func printEndOfCompilation(c *cfg.Config, target *ip.IP, job *eda.Job) {
	logPath := c.CmpLogPath(target.Vendor, target.Name, job.Simulator)
	if job.Elaborate {
		ui.Info("* Compilation results: " + logPath)
		return
	}
	ui.Header("Compilation results")
	ui.Info("  emacs " + logPath + " &")
	ui.Info("  gvim  " + logPath + " &")
	ui.Info("  vim   " + logPath)
	fmt.Println()
}

// printEndOfElaboration points the user at the elaboration log.
func printEndOfElaboration(c *cfg.Config, target *ip.IP, job *eda.Job) {
	logPath := c.ElabLogPath(target.Vendor, target.Name, job.Simulator)
	if job.Simulate {
		ui.Info("* Elaboration results: " + logPath)
		return
	}
	ui.Header("Elaboration results")
	ui.Info("  emacs " + logPath + " &")
	ui.Info("  gvim  " + logPath + " &")
	ui.Info("  vim   " + logPath)
	fmt.Println()
}

// printEndOfSimulation points the user at the simulation artifacts,
// including the simulator-specific waveform viewer when waves were
// captured.
func printEndOfSimulation(c *cfg.Config, target *ip.IP, job *eda.Job) {
	ui.Header("Simulation results")
	if job.Waves {
		switch job.Simulator {
		case cfg.Vivado:
			ui.Info("* Waveforms: $MIO_VIVADO_HOME/xsim -gui " + job.ResultsPath + "/waves.wdb &")
		case cfg.Metrics:
			ui.Info(fmt.Sprintf("* Waveforms: $MIO_METRICS_HOME/mdc view wave %s.vcd &", job.ResultsDirName))
		case cfg.VCS:
			ui.Info("* Waveforms: $MIO_VCS_HOME/dve -gui " + job.ResultsPath + "/waves.vpd &")
		case cfg.Xcelium:
			ui.Info("* Waveforms: $MIO_XCELIUM_HOME/simvision " + job.ResultsPath + "/waves.shm &")
		case cfg.Questa:
			ui.Info("* Waveforms: $MIO_QUESTA_HOME/visualizer " + job.ResultsPath + "/waves.wlf &")
		case cfg.Riviera:
			ui.Info("* Waveforms: $MIO_RIVIERA_HOME/riviera " + job.ResultsPath + "/waves.asdb &")
		}
		fmt.Println()
	}
	ui.Info("* Main log: emacs " + job.ResultsPath + "/sim.log &")
	ui.Info("            gvim  " + job.ResultsPath + "/sim.log &")
	ui.Info("            vim   " + job.ResultsPath + "/sim.log")
	fmt.Println()
	ui.Info("* Transaction logs: pushd " + job.ResultsPath + "/trn_log")
	ui.Info("* Test result dir : pushd " + job.ResultsPath)
	fmt.Println()
}
