// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec_test

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/gaitrec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndImportEDF(t *testing.T) {
	const period = 0.001
	start := gaitrec.Timestamp(origin)

	s := gaitrec.NewContinuousStream(gaitrec.WithOrigin(origin))
	want := [][]float64{{}, {}}
	for b := 0; b < 5; b++ {
		tm := gaitrec.TimeVector(start+float64(b*30)*period, period, 30)
		block := [][]float64{make([]float64, 30), make([]float64, 30)}
		for i := range tm {
			x := float64(b*30 + i)
			block[0][i] = math.Sin(x / 10)
			block[1][i] = 45 * math.Cos(x/20)
		}
		want[0] = append(want[0], block[0]...)
		want[1] = append(want[1], block[1]...)
		s.Add(tm, block)
	}

	f, err := os.OpenFile(filepath.Join(t.TempDir(), "trial.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	require.NoError(t, gaitrec.ExportEDF(f, s, gaitrec.EDFOptions{
		PatientID:        "Patient X",
		RecordingID:      "Trial 1",
		Labels:           []string{"EMG", "Hip"},
		SamplesPerRecord: 40,
	}))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	imported, err := gaitrec.ImportEDF(f)
	require.NoError(t, err)

	// 150 samples in records of 40: the last record is padded.
	assert.Equal(t, 4, imported.Len())
	assert.Equal(t, origin, imported.T0().UTC())

	data := imported.AsArray()
	rows, cols := gaitrec.Shape(data)
	require.Equal(t, 2, rows)
	require.Equal(t, 160, cols)
	for i := 0; i < 150; i++ {
		assert.InDelta(t, want[0][i], data[0][i], 2.1/65535)
		assert.InDelta(t, want[1][i], data[1][i], 90.1/65535)
	}
	for i := 150; i < 160; i++ {
		assert.InDelta(t, want[0][149], data[0][i], 2.1/65535)
	}

	tm := imported.Time()
	require.Len(t, tm, 160)
	assert.InDelta(t, start, tm[0], 1e-6)
	assert.InDelta(t, period, tm[1]-tm[0], 1e-6)
	assert.InDelta(t, start+159*period, tm[159], 1e-6)
}

func TestExportEDFWithoutData(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "empty.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	s := gaitrec.NewContinuousStream()
	require.Error(t, gaitrec.ExportEDF(f, s, gaitrec.EDFOptions{}))

	// A single sample needs an explicit period.
	s.Add([]float64{gaitrec.Timestamp(time.Now())}, [][]float64{{1}})
	require.ErrorContains(t, gaitrec.ExportEDF(f, s, gaitrec.EDFOptions{}), "sample period")
	require.NoError(t, gaitrec.ExportEDF(f, s, gaitrec.EDFOptions{SamplePeriod: 0.01, SamplesPerRecord: 1}))
}
