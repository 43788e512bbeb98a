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
	"fmt"
	"sync"
	"time"
)

// Event is one stimulation pulse: its absolute timestamp, its duration (both
// in seconds) and the amplitude of every channel when it was issued.
type Event struct {
	Timestamp float64
	Duration  float64
	Channels  []ChannelEvent
}

func (e Event) clone() Event {
	e.Channels = cloneChannels(e.Channels)
	return e
}

// EventStream accumulates pulses from a stimulation controller.
//
// The first event fixes the channel set for the lifetime of the stream. Later
// events either repeat that set, with the same channel indices in the same
// order, or omit it, in which case the amplitudes of the previous event are
// carried over. Any other channel set is rejected with ErrChannelMismatch.
//
// The concurrency contract is the one of ContinuousStream: one producer, any
// number of readers.
type EventStream struct {
	mu     sync.RWMutex
	clock  Clock
	origin lazyOrigin
	events []Event
}

// NewEventStream creates an empty stream. Its origin is the one given by
// WithOrigin, or the clock's current instant.
func NewEventStream(opts ...Option) *EventStream {
	o := newOptions(opts)
	s := &EventStream{clock: o.clock}
	s.origin.o = newOrigin(Timestamp(o.resolveOrigin()))
	return s
}

// SetOrigin overwrites the origin. Stored timestamps are absolute and are not
// affected. On a stream owned by a SessionRecording the origin is shared with
// the continuous stream and moves for both.
func (s *EventStream) SetOrigin(t0 time.Time) {
	s.origin.get().store(Timestamp(t0))
}

// T0 returns the origin, or the zero time if none was established.
func (s *EventStream) T0() time.Time {
	t0, ok := s.origin.get().load()
	if !ok {
		return time.Time{}
	}
	return FromTimestamp(t0)
}

// T0Timestamp returns the origin in seconds since the Unix epoch.
func (s *EventStream) T0Timestamp() float64 {
	t0, _ := s.origin.get().load()
	return t0
}

func (s *EventStream) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// Add appends a pulse issued at now (seconds since the Unix epoch) lasting
// duration seconds. A nil or empty channels reuses the previous amplitudes.
func (s *EventStream) Add(now, duration float64, channels []ChannelEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(channels) == 0 {
		if len(s.events) == 0 {
			return ErrChannelsRequired
		}
		channels = s.events[len(s.events)-1].Channels
	} else if len(s.events) > 0 && !sameChannelSet(s.events[0].Channels, channels) {
		return fmt.Errorf("%w: got %d channels, expected %d", ErrChannelMismatch, len(channels), len(s.events[0].Channels))
	}

	s.origin.get().establish(s.now)
	s.events = append(s.events, Event{
		Timestamp: now,
		Duration:  duration,
		Channels:  cloneChannels(channels),
	})
	return nil
}

// AddNow is Add stamped with the stream clock.
func (s *EventStream) AddNow(duration float64, channels []ChannelEvent) error {
	return s.Add(Timestamp(s.now()), duration, channels)
}

// PushEvent implements EventSink.
func (s *EventStream) PushEvent(timestamp, duration float64, channels []ChannelEvent) error {
	return s.Add(timestamp, duration, channels)
}

// Len returns the number of events.
func (s *EventStream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.events)
}

// HasData reports whether at least one event was added.
func (s *EventStream) HasData() bool {
	return s.Len() > 0
}

// Clear drops every event, and with them the channel set. The origin is preserved.
func (s *EventStream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
}

// Channels returns the channel state of the most recent event, or nil if the
// stream is empty.
func (s *EventStream) Channels() []ChannelEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) == 0 {
		return nil
	}
	return cloneChannels(s.events[len(s.events)-1].Channels)
}

// SampleBlock returns a copy of the event at index; negative indices count
// from the end.
func (s *EventStream) SampleBlock(index int) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, err := resolveIndex(index, len(s.events))
	if err != nil {
		return Event{}, err
	}
	return s.events[i].clone(), nil
}

// SampleBlocks returns copies of the events in [lo, hi).
func (s *EventStream) SampleBlocks(lo, hi int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo, hi = resolveSlice(lo, hi, len(s.events))
	out := make([]Event, 0, hi-lo)
	for _, e := range s.events[lo:hi] {
		out = append(out, e.clone())
	}
	return out
}

// Time returns the absolute timestamp of every event.
func (s *EventStream) Time() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := make([]float64, len(s.events))
	for i, e := range s.events {
		t[i] = e.Timestamp
	}
	return t
}

// RelativeTime is Time with the origin subtracted.
func (s *EventStream) RelativeTime() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t0 := s.T0Timestamp()
	t := make([]float64, len(s.events))
	for i, e := range s.events {
		t[i] = e.Timestamp - t0
	}
	return t
}

// DurationAsArray returns the durations as a (1, N) array.
func (s *EventStream) DurationAsArray() [][]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := make([]float64, len(s.events))
	for i, e := range s.events {
		d[i] = e.Duration
	}
	return [][]float64{d}
}

// AmplitudeAsArray returns the amplitudes as a (C, N) array where row c holds
// channel c across every event. An empty stream yields shape (1, 0).
func (s *EventStream) AmplitudeAsArray() [][]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) == 0 {
		return emptyArray()
	}
	out := make([][]float64, len(s.events[0].Channels))
	for c := range out {
		out[c] = make([]float64, len(s.events))
	}
	for i, e := range s.events {
		for c, ch := range e.Channels {
			out[c][i] = ch.Amplitude
		}
	}
	return out
}

// Copy returns a stream with the same origin and copies of every event.
func (s *EventStream) Copy() *EventStream {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &EventStream{clock: s.clock}
	out.origin.o = s.origin.get().clone()
	out.events = make([]Event, len(s.events))
	for i, e := range s.events {
		out.events[i] = e.clone()
	}
	return out
}
