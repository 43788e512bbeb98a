// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OpenPSG/gaitrec"
	"github.com/OpenPSG/gaitrec/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquisitionRun(t *testing.T) {
	a := NewAcquisition(config.AcquisitionConfig{Channels: 3, SampleRateHz: 1000, BlockSize: 10})
	s := gaitrec.NewContinuousStream()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx, s))

	require.GreaterOrEqual(t, s.Len(), 2)

	tm := s.Time()
	assert.Len(t, tm, s.Len()*10)
	for i := 1; i < len(tm); i++ {
		assert.InDelta(t, 0.001, tm[i]-tm[i-1], 1e-6)
	}

	rows, cols := gaitrec.Shape(s.AsArray())
	assert.Equal(t, 3, rows)
	assert.Equal(t, len(tm), cols)
}

func TestAcquisitionRejectsInvalidSettings(t *testing.T) {
	a := &Acquisition{Channels: 1, SampleRate: 0, BlockSize: 10}
	require.Error(t, a.Run(context.Background(), gaitrec.NewContinuousStream()))

	a = NewAcquisition(config.AcquisitionConfig{Channels: 1, SampleRateHz: 1e10, BlockSize: 1})
	err := a.Run(context.Background(), gaitrec.NewContinuousStream())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timer resolution")
}

func TestStimulatorRun(t *testing.T) {
	st := NewStimulator(config.StimulationConfig{
		Channels:        []config.ChannelConfig{{Index: 1, Amplitude: 10}, {Index: 2, Amplitude: 20}},
		PeriodMs:        10,
		PulseDurationMs: 5,
		AmplitudeStep:   1,
		RampEvery:       2,
	})
	events := gaitrec.NewEventStream()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, st.Run(ctx, events))

	n := events.Len()
	require.GreaterOrEqual(t, n, 3)

	durations := events.DurationAsArray()
	amplitudes := events.AmplitudeAsArray()
	for k := 0; k < n; k++ {
		assert.Equal(t, 0.005, durations[0][k])
		assert.Equal(t, 10+float64(k/2), amplitudes[0][k], "pulse %d", k)
		assert.Equal(t, 20+float64(k/2), amplitudes[1][k], "pulse %d", k)
	}

	tm := events.Time()
	for k := 1; k < n; k++ {
		assert.GreaterOrEqual(t, tm[k], tm[k-1])
	}
}

type rejectingSink struct{}

func (rejectingSink) PushEvent(float64, float64, []gaitrec.ChannelEvent) error {
	return gaitrec.ErrChannelMismatch
}

func TestStimulatorSurfacesSinkErrors(t *testing.T) {
	st := &Stimulator{
		Channels: []gaitrec.ChannelEvent{{Index: 1, Amplitude: 1}},
		Period:   time.Millisecond,
	}

	err := st.Run(context.Background(), rejectingSink{})
	require.True(t, errors.Is(err, gaitrec.ErrChannelMismatch))
	assert.ErrorContains(t, err, "pulse 0 rejected")
}
