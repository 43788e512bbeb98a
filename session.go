// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec

import "time"

// SessionRecording is one experimental trial: a continuous stream and an
// event stream recorded against the same origin. The session owns both
// streams and their origin; moving the origin through either stream moves it
// for the other one too. Copy always copies the streams deeply.
type SessionRecording struct {
	origin     *origin
	continuous *ContinuousStream
	events     *EventStream
}

// NewSessionRecording creates a session whose streams share one origin, taken
// from WithOrigin or from the clock at construction.
func NewSessionRecording(opts ...Option) *SessionRecording {
	o := newOptions(opts)

	r := &SessionRecording{
		continuous: &ContinuousStream{clock: o.clock},
		events:     &EventStream{clock: o.clock},
	}
	r.share(newOrigin(Timestamp(o.resolveOrigin())))
	return r
}

// share makes o the origin of the session and of both streams. It must run
// before the session is handed out.
func (r *SessionRecording) share(o *origin) {
	r.origin = o
	r.continuous.origin.o = o
	r.events.origin.o = o
}

// Continuous returns the acquisition stream.
func (r *SessionRecording) Continuous() *ContinuousStream { return r.continuous }

// Events returns the stimulation stream.
func (r *SessionRecording) Events() *EventStream { return r.events }

// T0 returns the shared origin.
func (r *SessionRecording) T0() time.Time {
	t0, _ := r.origin.load()
	return FromTimestamp(t0)
}

// SetT0 moves the shared origin of both streams. It fails with
// ErrOriginLocked once either stream holds data.
func (r *SessionRecording) SetT0(t0 time.Time) error {
	if r.continuous.HasData() || r.events.HasData() {
		return ErrOriginLocked
	}
	r.origin.store(Timestamp(t0))
	return nil
}

// Copy returns a session holding deep copies of both streams under a copy of
// the shared origin.
func (r *SessionRecording) Copy() *SessionRecording {
	out := &SessionRecording{
		continuous: r.continuous.Copy(),
		events:     r.events.Copy(),
	}
	out.share(r.origin.clone())
	return out
}
