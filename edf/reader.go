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
	"strings"
	"time"
)

// Reader reads EDF files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF file for reading and parses its header.
func Open(r io.ReadSeeker) (*Reader, error) {
	reader := bufio.NewReader(r)

	b := make([]byte, 256)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	field := func(from, to int) string {
		return strings.TrimSpace(string(b[from:to]))
	}

	hdr := &Header{
		Version:     Version(field(0, 8)),
		PatientID:   field(8, 88),
		RecordingID: field(88, 168),
	}

	startDate, err := time.Parse("02.01.06", field(168, 176))
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", field(176, 184))
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(field(184, 192)); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	if hdr.DataRecords, err = strconv.Atoi(field(236, 244)); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	if hdr.DataRecords < 0 {
		return nil, fmt.Errorf("unknown number of data records, the file was not closed")
	}
	if hdr.DataRecordDuration, err = time.ParseDuration(field(244, 252) + "s"); err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	signalCount, err := strconv.Atoi(field(252, 256))
	if err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	if signalCount < 0 {
		return nil, fmt.Errorf("invalid signal count %d", signalCount)
	}
	if hdr.HeaderBytes != 256+signalCount*256 {
		return nil, fmt.Errorf("header size %d does not match %d signals", hdr.HeaderBytes, signalCount)
	}

	hdr.Signals = make([]Signal, signalCount)
	columns := []struct {
		width int
		set   func(s *Signal, v string)
	}{
		{16, func(s *Signal, v string) { s.Label = v }},
		{80, func(s *Signal, v string) { s.TransducerType = v }},
		{8, func(s *Signal, v string) { s.PhysicalDimension = v }},
		{8, func(s *Signal, v string) { s.PhysicalMin = parseFloat(v) }},
		{8, func(s *Signal, v string) { s.PhysicalMax = parseFloat(v) }},
		{8, func(s *Signal, v string) { s.DigitalMin = parseInt(v) }},
		{8, func(s *Signal, v string) { s.DigitalMax = parseInt(v) }},
		{80, func(s *Signal, v string) { s.Prefiltering = v }},
		{8, func(s *Signal, v string) { s.SamplesPerRecord = parseInt(v) }},
		{32, func(*Signal, string) {}}, // Reserved
	}
	for _, column := range columns {
		b := make([]byte, column.width)
		for i := range hdr.Signals {
			if _, err := io.ReadFull(reader, b); err != nil {
				return nil, fmt.Errorf("error reading signal headers: %w", err)
			}
			column.set(&hdr.Signals[i], strings.TrimSpace(string(b)))
		}
	}
	for _, s := range hdr.Signals {
		if s.SamplesPerRecord <= 0 {
			return nil, fmt.Errorf("signal %q has %d samples per record", s.Label, s.SamplesPerRecord)
		}
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed header.
func (er *Reader) Header() Header {
	hdr := *er.hdr
	hdr.Signals = append([]Signal(nil), er.hdr.Signals...)
	return hdr
}

// ReadRecord returns the physical values of data record n, one slice per signal.
func (er *Reader) ReadRecord(n int) ([][]float64, error) {
	if n < 0 || n >= er.hdr.DataRecords {
		return nil, fmt.Errorf("record index %d out of range", n)
	}

	size := er.hdr.recordBytes()
	pos := int64(er.hdr.HeaderBytes) + int64(n)*int64(size)
	if _, err := er.r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to position: %w", err)
	}

	digital := make([]int16, size/2)
	if err := binary.Read(er.r, binary.LittleEndian, digital); err != nil {
		return nil, fmt.Errorf("error reading sample data: %w", err)
	}

	signals := make([][]float64, len(er.hdr.Signals))
	var offset int
	for i, signal := range er.hdr.Signals {
		signals[i] = make([]float64, signal.SamplesPerRecord)
		for j := range signals[i] {
			signals[i][j] = signal.toPhysical(digital[offset+j])
		}
		offset += signal.SamplesPerRecord
	}
	return signals, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}
