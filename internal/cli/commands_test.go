// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenPSG/gaitrec"
)

type response[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

func execute(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func decode[T any](t *testing.T, buf *bytes.Buffer) T {
	t.Helper()

	var resp response[T]
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestRecordInspectExport(t *testing.T) {
	dir := t.TempDir()

	buf, err := execute(t, "record", "--duration", "200ms", "--out", dir, "--format", "json")
	require.NoError(t, err)
	recorded := decode[RecordResult](t, buf)

	assert.NotEmpty(t, recorded.TrialID)
	assert.Equal(t, filepath.Join(dir, "trial-"+recorded.TrialID+".msgpack"), recorded.Path)
	assert.FileExists(t, recorded.Path)
	assert.Positive(t, recorded.Blocks)
	assert.Positive(t, recorded.Events)

	buf, err = execute(t, "inspect", recorded.Path, "--format", "json")
	require.NoError(t, err)
	summary := decode[InspectResult](t, buf)

	assert.Equal(t, recorded.Blocks, summary.Blocks)
	assert.Equal(t, recorded.Events, summary.Events)
	assert.Equal(t, 2, summary.Channels)
	assert.Equal(t, recorded.Blocks*20, summary.Samples)
	assert.Equal(t, []int{1, 2}, summary.StimChannels)
	assert.Positive(t, summary.DurationSeconds)

	jsonPath := filepath.Join(dir, "trial.json")
	edfPath := filepath.Join(dir, "trial.edf")
	buf, err = execute(t, "export", recorded.Path, "--json", jsonPath, "--edf", edfPath, "--format", "json")
	require.NoError(t, err)
	exported := decode[ExportResult](t, buf)
	assert.Equal(t, []string{jsonPath, edfPath}, exported.Files)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var interchange map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &interchange))
	assert.Contains(t, interchange, "t0")
	assert.Contains(t, interchange, "continuous")
	assert.Contains(t, interchange, "events")

	f, err := os.Open(edfPath)
	require.NoError(t, err)
	defer f.Close()
	imported, err := gaitrec.ImportEDF(f)
	require.NoError(t, err)
	channels, samples := gaitrec.Shape(imported.AsArray())
	assert.Equal(t, 2, channels)
	assert.GreaterOrEqual(t, samples, summary.Samples)
}

func TestInspectTextOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trial.msgpack")

	session := gaitrec.NewSessionRecording()
	t0 := gaitrec.Timestamp(session.T0())
	session.Continuous().Add([]float64{t0 + 0.5, t0 + 1}, [][]float64{{0.5, 0.75}})
	require.NoError(t, session.Save(path))

	buf, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "blocks:        1")
	assert.Contains(t, buf.String(), "samples:       2")
	assert.Contains(t, buf.String(), "events:        0")
	assert.Contains(t, buf.String(), "duration:      1.000s")
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "missing.msgpack"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportRequiresTarget(t *testing.T) {
	_, err := execute(t, "export", "trial.msgpack")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "nothing to export")
}

func TestRecordRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gaitrec.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("acquisition: [\n"), 0o644))

	_, err := execute(t, "record", "--config", cfgPath, "--duration", "10ms", "--out", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
