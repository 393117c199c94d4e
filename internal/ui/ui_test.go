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

package ui

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	InitColors(true)
	assert.True(t, color.NoColor)
	InitColors(false)
	assert.False(t, color.NoColor)
}

func TestLabelAndDimTextWithoutColor(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()
	color.NoColor = true

	assert.Equal(t, "Duration:", Label("Duration:"))
	assert.Equal(t, "/tmp/sim.log", DimText("/tmp/sim.log"))
}
