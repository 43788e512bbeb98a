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
	"math"
	"time"
)

// Clock provides the current instant. It is the default provider for recording
// origins and for events stamped with AddNow.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Timestamp converts an instant to seconds since the Unix epoch, the numeric
// representation used for every stored timestamp.
func Timestamp(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// FromTimestamp converts seconds since the Unix epoch back to an instant.
func FromTimestamp(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// TimeVector returns n timestamps spaced by period seconds, the first one at
// start. It is the time vector of a fixed-rate sample block.
func TimeVector(start, period float64, n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = start + float64(i)*period
	}
	return t
}

// Option configures a stream or a session at construction.
type Option func(*options)

type options struct {
	clock  Clock
	origin *time.Time
}

// WithClock sets the clock used as the default origin provider and for AddNow.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithOrigin sets an explicit origin instead of reading it from the clock.
func WithOrigin(t0 time.Time) Option {
	return func(o *options) {
		o.origin = &t0
	}
}

func newOptions(opts []Option) options {
	o := options{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = SystemClock{}
	}
	return o
}

// resolveOrigin returns the explicit origin, or the clock's current instant.
func (o options) resolveOrigin() time.Time {
	if o.origin != nil {
		return *o.origin
	}
	return o.clock.Now()
}
