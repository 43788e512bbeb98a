// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/OpenPSG/gaitrec/edf"
)

// DefaultSamplesPerRecord is the EDF data record length used when
// EDFOptions.SamplesPerRecord is zero.
const DefaultSamplesPerRecord = 100

// EDFOptions controls ExportEDF.
type EDFOptions struct {
	PatientID         string
	RecordingID       string
	Labels            []string // Per channel; "ch<N>" when missing
	PhysicalDimension string   // Defaults to "mV"
	SamplesPerRecord  int      // Samples per channel in each data record
	SamplePeriod      float64  // Seconds; estimated from the time vector when zero
}

// ExportEDF writes the continuous data of s as an EDF file. The export is
// lossy: samples are quantised to 16 bits over each channel's observed range,
// the start time keeps whole seconds, and the last data record is padded by
// repeating the final sample.
func ExportEDF(w io.WriteSeeker, s *ContinuousStream, opts EDFOptions) error {
	t, data := s.Time(), s.AsArray()
	channels, samples := Shape(data)
	if samples == 0 {
		return errors.New("no continuous data to export")
	}
	if len(t) < samples {
		samples = len(t)
	}

	spr := opts.SamplesPerRecord
	if spr <= 0 {
		spr = DefaultSamplesPerRecord
	}
	period := opts.SamplePeriod
	if period <= 0 {
		if samples < 2 || t[samples-1] <= t[0] {
			return errors.New("cannot estimate the sample period, set EDFOptions.SamplePeriod")
		}
		period = (t[samples-1] - t[0]) / float64(samples-1)
	}
	dimension := opts.PhysicalDimension
	if dimension == "" {
		dimension = "mV"
	}

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          opts.PatientID,
		RecordingID:        opts.RecordingID,
		StartTime:          FromTimestamp(t[0]),
		DataRecordDuration: time.Duration(math.Round(period * float64(spr) * float64(time.Second))),
		Signals:            make([]edf.Signal, channels),
	}
	for c := range hdr.Signals {
		label := fmt.Sprintf("ch%d", c+1)
		if c < len(opts.Labels) {
			label = opts.Labels[c]
		}
		pmin, pmax := physicalRange(data[c][:samples])
		hdr.Signals[c] = edf.Signal{
			Label:             label,
			PhysicalDimension: dimension,
			PhysicalMin:       pmin,
			PhysicalMax:       pmax,
			DigitalMin:        edf.DigitalMin,
			DigitalMax:        edf.DigitalMax,
			SamplesPerRecord:  spr,
		}
	}

	ew, err := edf.Create(w, hdr)
	if err != nil {
		return fmt.Errorf("error creating EDF writer: %w", err)
	}

	record := make([][]float64, channels)
	for c := range record {
		record[c] = make([]float64, spr)
	}
	for start := 0; start < samples; start += spr {
		for c := range record {
			for i := range record[c] {
				j := start + i
				if j >= samples {
					j = samples - 1
				}
				record[c][i] = data[c][j]
			}
		}
		if err := ew.WriteRecord(record); err != nil {
			return fmt.Errorf("error writing EDF record: %w", err)
		}
	}

	return ew.Close()
}

// ImportEDF reads an EDF file written by ExportEDF into a new stream holding
// one block per data record. Time vectors are rebuilt from the start time and
// the record duration; the origin is the start time.
func ImportEDF(r io.ReadSeeker) (*ContinuousStream, error) {
	er, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("error opening EDF file: %w", err)
	}

	hdr := er.Header()
	if len(hdr.Signals) == 0 {
		return nil, errors.New("EDF file has no signals")
	}
	spr := hdr.Signals[0].SamplesPerRecord
	for _, sig := range hdr.Signals[1:] {
		if sig.SamplesPerRecord != spr {
			return nil, fmt.Errorf("signal %q has %d samples per record, expected %d", sig.Label, sig.SamplesPerRecord, spr)
		}
	}

	start := Timestamp(hdr.StartTime)
	period := hdr.DataRecordDuration.Seconds() / float64(spr)

	s := NewContinuousStream(WithOrigin(hdr.StartTime))
	for n := 0; n < hdr.DataRecords; n++ {
		record, err := er.ReadRecord(n)
		if err != nil {
			return nil, err
		}
		s.AddSampleBlock(TimeVector(start+float64(n*spr)*period, period, spr), record)
	}
	return s, nil
}

// physicalRange returns a non-empty range covering v, widened to three
// decimals so the EDF header holds it exactly.
func physicalRange(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	lo = math.Floor(lo*1000) / 1000
	hi = math.Ceil(hi*1000) / 1000
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}
