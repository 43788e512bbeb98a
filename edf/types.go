// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package edf reads and writes European Data Format files, the export format
// for continuous acquisition data.
package edf

import (
	"math"
	"strconv"
	"time"
)

type Version string

const (
	// Version0 represents the version of the EDF standard.
	Version0 Version = "0"
)

// Digital range of the 16-bit samples written by this package.
const (
	DigitalMin = -32768
	DigitalMax = 32767
)

// Header represents the EDF file header.
type Header struct {
	Version            Version       // Version of the EDF standard (usually "0")
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start of the recording, second resolution
	HeaderBytes        int           // Number of bytes in the header
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, -1 if unknown
	Signals            []Signal      // Details of each signal
}

// Signal represents the characteristics of one signal (acquisition channel).
type Signal struct {
	Label             string  // Label of the signal (e.g., EMG vastus lateralis)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
}

// recordBytes is the size of one data record.
func (h *Header) recordBytes() int {
	var n int
	for _, s := range h.Signals {
		n += s.SamplesPerRecord * 2
	}
	return n
}

// toDigital maps a physical value onto the signal's digital range, clamping
// values outside the physical range.
func (s Signal) toDigital(physical float64) int16 {
	if s.PhysicalMax == s.PhysicalMin {
		return 0
	}
	digital := (physical-s.PhysicalMin)*float64(s.DigitalMax-s.DigitalMin)/(s.PhysicalMax-s.PhysicalMin) + float64(s.DigitalMin)
	digital = math.Round(digital)
	if digital < float64(s.DigitalMin) {
		digital = float64(s.DigitalMin)
	}
	if digital > float64(s.DigitalMax) {
		digital = float64(s.DigitalMax)
	}
	return int16(digital)
}

// toPhysical is the inverse of toDigital.
func (s Signal) toPhysical(digital int16) float64 {
	if s.DigitalMax == s.DigitalMin {
		return 0
	}
	return s.PhysicalMin + (float64(digital)-float64(s.DigitalMin))*(s.PhysicalMax-s.PhysicalMin)/float64(s.DigitalMax-s.DigitalMin)
}

// formatNumber renders v in at most 8 characters, dropping decimals as needed.
func formatNumber(v float64) string {
	for prec := 6; prec > 0; prec-- {
		if s := strconv.FormatFloat(v, 'f', prec, 64); len(s) <= 8 {
			return s
		}
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}
