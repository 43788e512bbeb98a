// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gaitrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, Validate(cfg))
	assert.Equal(t, 2, cfg.Acquisition.Channels)
	assert.Equal(t, 2000.0, cfg.Acquisition.SampleRateHz)
	assert.Equal(t, 10*time.Millisecond, cfg.Acquisition.BlockInterval())
	assert.Len(t, cfg.Stimulation.Channels, 2)
	assert.Equal(t, 40*time.Millisecond, cfg.Stimulation.Period())
	assert.Equal(t, 20*time.Millisecond, cfg.Stimulation.PulseDuration())
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, 100, cfg.EDF.SamplesPerRecord)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
acquisition:
  channels: 3
  labels: [EMG, Hip, Knee]
  sample_rate_hz: 1000
  block_size: 50
stimulation:
  channels:
    - index: 1
      amplitude: 12.5
    - index: 4
      amplitude: 0
  period_ms: 50
  pulse_duration_ms: 10
  amplitude_step: 0.5
  ramp_every: 5
output:
  dir: /data/trials
edf:
  patient_id: P-017
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Acquisition.Channels)
	assert.Equal(t, []string{"EMG", "Hip", "Knee"}, cfg.Acquisition.Labels)
	assert.Equal(t, 50*time.Millisecond, cfg.Acquisition.BlockInterval())
	assert.Equal(t, []ChannelConfig{{Index: 1, Amplitude: 12.5}, {Index: 4, Amplitude: 0}}, cfg.Stimulation.Channels)
	assert.Equal(t, 0.5, cfg.Stimulation.AmplitudeStep)
	assert.Equal(t, 5, cfg.Stimulation.RampEvery)
	assert.Equal(t, "/data/trials", cfg.Output.Dir)
	assert.Equal(t, "  ", cfg.Output.JSONIndent)
	assert.Equal(t, "P-017", cfg.EDF.PatientID)
	assert.Equal(t, 100, cfg.EDF.SamplesPerRecord)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "acquisition: [not, a, map]"))
	require.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, `
acquisition:
  channels: 2
  labels: [EMG]
stimulation:
  channels:
    - index: 1
      amplitude: 1
    - index: 1
      amplitude: -1
  period_ms: 10
  pulse_duration_ms: 20
`))
	require.ErrorContains(t, err, "invalid configuration")
	assert.ErrorContains(t, err, "acquisition.labels has 1 entries for 2 channels")
	assert.ErrorContains(t, err, "stimulation channel 1 is listed twice")
	assert.ErrorContains(t, err, "negative amplitude")
	assert.ErrorContains(t, err, "pulse_duration_ms")

	_, err = Load(writeConfig(t, `
acquisition:
  sample_rate_hz: 1e10
  block_size: 1
`))
	require.ErrorContains(t, err, "invalid configuration")
	assert.ErrorContains(t, err, "at least 1ns")
}
