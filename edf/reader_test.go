// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/gaitrec/edf"
	"github.com/stretchr/testify/require"
)

func TestReaderTruncatedHeader(t *testing.T) {
	_, err := edf.Open(bytes.NewReader(make([]byte, 100)))
	require.ErrorContains(t, err, "error reading header")
}

func TestReaderUnclosedFile(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "open.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	ew, err := edf.Create(f, emgHeader(2))
	require.NoError(t, err)
	require.NoError(t, ew.WriteRecord([][]float64{{1, 2}, {3, 4}}))

	b, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	_, err = edf.Open(bytes.NewReader(b))
	require.ErrorContains(t, err, "unknown number of data records")
}

func closedFile(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "closed.edf")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	ew, err := edf.Create(f, emgHeader(2))
	require.NoError(t, err)
	require.NoError(t, ew.WriteRecord([][]float64{{1, 2}, {3, 4}}))
	require.NoError(t, ew.Close())
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestReaderMalformedHeader(t *testing.T) {
	// Offsets of the fixed header fields and of the first signal's samples
	// per record in a two signal file.
	setField := func(b []byte, from, to int, v any) {
		copy(b[from:to], fmt.Sprintf("%-*v", to-from, v))
	}

	tests := []struct {
		name   string
		mutate func(b []byte)
		want   string
	}{
		{"negative signal count", func(b []byte) { setField(b, 252, 256, -1) }, "invalid signal count -1"},
		{"signal count without signal headers", func(b []byte) { setField(b, 252, 256, 3) }, "does not match 3 signals"},
		{"header size mismatch", func(b []byte) { setField(b, 184, 192, 512) }, "header size 512"},
		{"zero samples per record", func(b []byte) { setField(b, 688, 696, 0) }, "0 samples per record"},
		{"negative samples per record", func(b []byte) { setField(b, 688, 696, -4) }, "-4 samples per record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := closedFile(t)
			_, err := edf.Open(bytes.NewReader(b))
			require.NoError(t, err)

			tt.mutate(b)
			_, err = edf.Open(bytes.NewReader(b))
			require.ErrorContains(t, err, tt.want)
		})
	}
}
