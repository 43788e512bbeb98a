// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package mock provides software stand-ins for the acquisition device and the
// stimulation controller. They push into the same sinks the hardware drivers
// feed, from their own goroutine.
package mock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/OpenPSG/gaitrec"
	"github.com/OpenPSG/gaitrec/internal/config"
)

// Acquisition produces fixed-rate blocks of sine waves, channel c oscillating
// at c+1 Hz.
type Acquisition struct {
	Channels   int
	SampleRate float64 // Hz
	BlockSize  int     // Samples per block
	Clock      gaitrec.Clock
	Logger     *slog.Logger
}

// NewAcquisition creates an acquisition device from its configuration.
func NewAcquisition(cfg config.AcquisitionConfig) *Acquisition {
	return &Acquisition{
		Channels:   cfg.Channels,
		SampleRate: cfg.SampleRateHz,
		BlockSize:  cfg.BlockSize,
	}
}

// Run pushes one block per block interval until ctx is done. Block time
// vectors are contiguous: sample n of the run is stamped start + n/SampleRate.
func (a *Acquisition) Run(ctx context.Context, sink gaitrec.SampleBlockSink) error {
	if a.Channels < 1 || a.BlockSize < 1 || a.SampleRate <= 0 {
		return errors.New("acquisition needs positive channels, block size and sample rate")
	}
	interval := config.AcquisitionConfig{SampleRateHz: a.SampleRate, BlockSize: a.BlockSize}.BlockInterval()
	if interval <= 0 {
		return fmt.Errorf("block of %d samples at %g Hz is shorter than the timer resolution", a.BlockSize, a.SampleRate)
	}
	clock := a.Clock
	if clock == nil {
		clock = gaitrec.SystemClock{}
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	period := 1 / a.SampleRate
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := gaitrec.Timestamp(clock.Now())
	logger.Debug("acquisition started", "channels", a.Channels, "sample_rate", a.SampleRate, "block_size", a.BlockSize)

	var blocks int
	for {
		select {
		case <-ctx.Done():
			logger.Debug("acquisition stopped", "blocks", blocks)
			return nil
		case <-ticker.C:
			t := gaitrec.TimeVector(start+float64(blocks*a.BlockSize)*period, period, a.BlockSize)
			data := make([][]float64, a.Channels)
			for c := range data {
				data[c] = make([]float64, len(t))
				for i, ts := range t {
					data[c][i] = math.Sin(2 * math.Pi * float64(c+1) * (ts - start))
				}
			}
			sink.PushSampleBlock(t, data)
			blocks++
		}
	}
}

// Stimulator issues pulses at a fixed period. Like the hardware controller it
// reports the channel states only on the first pulse and whenever they change,
// which happens every RampEvery pulses when the amplitudes ramp up.
type Stimulator struct {
	Channels      []gaitrec.ChannelEvent // Initial channel states
	Period        time.Duration
	PulseDuration time.Duration
	AmplitudeStep float64
	RampEvery     int // 0 disables the ramp
	Clock         gaitrec.Clock
	Logger        *slog.Logger
}

// NewStimulator creates a stimulator from its configuration.
func NewStimulator(cfg config.StimulationConfig) *Stimulator {
	channels := make([]gaitrec.ChannelEvent, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		channels[i] = gaitrec.ChannelEvent{Index: ch.Index, Amplitude: ch.Amplitude}
	}
	return &Stimulator{
		Channels:      channels,
		Period:        cfg.Period(),
		PulseDuration: cfg.PulseDuration(),
		AmplitudeStep: cfg.AmplitudeStep,
		RampEvery:     cfg.RampEvery,
	}
}

// Run issues a pulse immediately and then once per period until ctx is done.
// A pulse rejected by the sink stops the run with that error.
func (s *Stimulator) Run(ctx context.Context, sink gaitrec.EventSink) error {
	if len(s.Channels) == 0 || s.Period <= 0 {
		return errors.New("stimulator needs channels and a positive period")
	}
	clock := s.Clock
	if clock == nil {
		clock = gaitrec.SystemClock{}
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	state := make([]gaitrec.ChannelEvent, len(s.Channels))
	copy(state, s.Channels)

	var pulses int
	fire := func() error {
		var changed []gaitrec.ChannelEvent
		if pulses == 0 || (s.RampEvery > 0 && pulses%s.RampEvery == 0) {
			if pulses > 0 {
				for i := range state {
					state[i].Amplitude += s.AmplitudeStep
				}
			}
			changed = make([]gaitrec.ChannelEvent, len(state))
			copy(changed, state)
		}
		if err := sink.PushEvent(gaitrec.Timestamp(clock.Now()), s.PulseDuration.Seconds(), changed); err != nil {
			return fmt.Errorf("pulse %d rejected: %w", pulses, err)
		}
		pulses++
		return nil
	}

	logger.Debug("stimulation started", "channels", len(state), "period", s.Period)
	if err := fire(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("stimulation stopped", "pulses", pulses)
			return nil
		case <-ticker.C:
			if err := fire(); err != nil {
				return err
			}
		}
	}
}
