// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// Writer writes EDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new EDF writer that writes to the given writer. Physical
// ranges are rounded to what the 8 byte header fields can hold, so the values
// read back convert exactly as the values written.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	if len(hdr.Signals) == 0 {
		return nil, fmt.Errorf("at least one signal is required")
	}
	hdr.Signals = append([]Signal(nil), hdr.Signals...)
	for i := range hdr.Signals {
		s := &hdr.Signals[i]
		if s.SamplesPerRecord <= 0 {
			return nil, fmt.Errorf("signal %d: samples per record must be positive", i)
		}
		s.PhysicalMin = parseFloat(formatNumber(s.PhysicalMin))
		s.PhysicalMax = parseFloat(formatNumber(s.PhysicalMax))
	}
	hdr.DataRecords = -1 // Unknown number of data records (at this time).

	// As recommended by the EDF standard.
	if size := hdr.recordBytes(); size > 61440 {
		return nil, fmt.Errorf("data record too large: %d bytes, max is 61440 bytes", size)
	}

	ew := &Writer{w: w, hdr: &hdr}
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record, one slice of physical values per signal.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != len(ew.hdr.Signals) {
		return fmt.Errorf("expected %d signals, got %d", len(ew.hdr.Signals), len(signals))
	}

	digital := make([]int16, 0, ew.hdr.recordBytes()/2)
	for i, signal := range ew.hdr.Signals {
		if len(signals[i]) != signal.SamplesPerRecord {
			return fmt.Errorf("signal %d: expected %d samples, got %d", i, signal.SamplesPerRecord, len(signals[i]))
		}
		for _, sample := range signals[i] {
			digital = append(digital, signal.toDigital(sample))
		}
	}

	if _, err := ew.w.Seek(int64(ew.hdr.HeaderBytes+ew.dataRecords*ew.hdr.recordBytes()), io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to record: %w", err)
	}
	if err := binary.Write(ew.w, binary.LittleEndian, digital); err != nil {
		return fmt.Errorf("error writing record: %w", err)
	}

	ew.dataRecords++
	return nil
}

type headerField struct {
	value string
	width int
}

// writeHeader rewrites the header at the start of the file.
func (ew *Writer) writeHeader() error {
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	hdr := ew.hdr
	hdr.HeaderBytes = 256 + len(hdr.Signals)*256
	start := hdr.StartTime.UTC()

	fields := []headerField{
		{string(hdr.Version), 8},
		{hdr.PatientID, 80},
		{hdr.RecordingID, 80},
		{start.Format("02.01.06"), 8},
		{start.Format("15.04.05"), 8},
		{strconv.Itoa(hdr.HeaderBytes), 8},
		{"", 44},
		{strconv.Itoa(hdr.DataRecords), 8},
		{formatNumber(hdr.DataRecordDuration.Seconds()), 8},
		{strconv.Itoa(len(hdr.Signals)), 4},
	}

	// Signal fields are stored column by column.
	columns := []struct {
		width int
		value func(Signal) string
	}{
		{16, func(s Signal) string { return s.Label }},
		{80, func(s Signal) string { return s.TransducerType }},
		{8, func(s Signal) string { return s.PhysicalDimension }},
		{8, func(s Signal) string { return formatNumber(s.PhysicalMin) }},
		{8, func(s Signal) string { return formatNumber(s.PhysicalMax) }},
		{8, func(s Signal) string { return strconv.Itoa(s.DigitalMin) }},
		{8, func(s Signal) string { return strconv.Itoa(s.DigitalMax) }},
		{80, func(s Signal) string { return s.Prefiltering }},
		{8, func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) }},
		{32, func(Signal) string { return "" }}, // Reserved
	}
	for _, column := range columns {
		for _, s := range hdr.Signals {
			fields = append(fields, headerField{column.value(s), column.width})
		}
	}

	writer := bufio.NewWriter(ew.w)
	for _, f := range fields {
		if len(f.value) > f.width {
			return fmt.Errorf("header field %q is longer than %d bytes", f.value, f.width)
		}
		if _, err := fmt.Fprintf(writer, "%-*s", f.width, f.value); err != nil {
			return err
		}
	}

	return writer.Flush()
}
