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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Decimals kept by the JSON interchange form.
const (
	TimeDecimals = 3
	DataDecimals = 6
)

// ContinuousRecord is the persisted form of a ContinuousStream.
type ContinuousRecord struct {
	T0   float64       `msgpack:"t0" json:"t0"`
	T    [][]float64   `msgpack:"t" json:"t"`
	Data [][][]float64 `msgpack:"data" json:"data"`
}

// EventRecord is the persisted form of an Event, encoded as the tuple
// [timestamp, duration, channels].
type EventRecord struct {
	_msgpack struct{} `msgpack:",as_array"`

	Timestamp float64
	Duration  float64
	Channels  []ChannelEvent
}

// MarshalJSON encodes the record as a three element array.
func (r EventRecord) MarshalJSON() ([]byte, error) {
	channels := r.Channels
	if channels == nil {
		channels = []ChannelEvent{}
	}
	return json.Marshal([]any{r.Timestamp, r.Duration, channels})
}

// EventsRecord is the persisted form of an EventStream.
type EventsRecord struct {
	T0   float64       `msgpack:"t0" json:"t0"`
	Data []EventRecord `msgpack:"data" json:"data"`
}

// SessionRecord is the persisted form of a SessionRecording.
type SessionRecord struct {
	T0         float64          `msgpack:"t0" json:"t0"`
	Continuous ContinuousRecord `msgpack:"continuous" json:"continuous"`
	Events     EventsRecord     `msgpack:"events" json:"events"`
}

// Serialize returns the full precision record of the stream. The record owns
// its slices.
func (s *ContinuousStream) Serialize() ContinuousRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := ContinuousRecord{
		T0:   s.T0Timestamp(),
		T:    make([][]float64, len(s.t)),
		Data: make([][][]float64, len(s.data)),
	}
	for i := range s.t {
		rec.T[i] = cloneVector(s.t[i])
		rec.Data[i] = cloneMatrix(s.data[i])
	}
	return rec
}

// SerializeJSON returns the record rounded for text interchange. The result
// cannot be passed back to DeserializeContinuous without loss.
func (s *ContinuousStream) SerializeJSON() ContinuousRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := ContinuousRecord{
		T0:   s.T0Timestamp(),
		T:    make([][]float64, len(s.t)),
		Data: make([][][]float64, len(s.data)),
	}
	for i := range s.t {
		rec.T[i] = roundVector(s.t[i], TimeDecimals)
		rec.Data[i] = roundMatrix(s.data[i], DataDecimals)
	}
	return rec
}

// DeserializeContinuous rebuilds a stream from a full precision record. The
// record is trusted and copied as is, without going through Add.
func DeserializeContinuous(rec ContinuousRecord) *ContinuousStream {
	s := &ContinuousStream{clock: SystemClock{}}
	s.origin.o = newOrigin(rec.T0)
	if len(rec.T) > 0 {
		s.t = make([][]float64, len(rec.T))
		s.data = make([][][]float64, len(rec.Data))
		for i := range rec.T {
			s.t[i] = cloneVector(rec.T[i])
		}
		for i := range rec.Data {
			s.data[i] = cloneMatrix(rec.Data[i])
		}
	}
	return s
}

// Serialize returns the full precision record of the stream.
func (s *EventStream) Serialize() EventsRecord {
	return s.serialize(func(e Event) EventRecord {
		return EventRecord{Timestamp: e.Timestamp, Duration: e.Duration, Channels: cloneChannels(e.Channels)}
	})
}

// SerializeJSON returns the record rounded for text interchange.
func (s *EventStream) SerializeJSON() EventsRecord {
	return s.serialize(func(e Event) EventRecord {
		channels := make([]ChannelEvent, len(e.Channels))
		for i, ch := range e.Channels {
			channels[i] = ChannelEvent{Index: ch.Index, Amplitude: round(ch.Amplitude, DataDecimals)}
		}
		return EventRecord{
			Timestamp: round(e.Timestamp, TimeDecimals),
			Duration:  round(e.Duration, TimeDecimals),
			Channels:  channels,
		}
	})
}

func (s *EventStream) serialize(convert func(Event) EventRecord) EventsRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := EventsRecord{T0: s.T0Timestamp(), Data: make([]EventRecord, len(s.events))}
	for i, e := range s.events {
		rec.Data[i] = convert(e)
	}
	return rec
}

// DeserializeEvents rebuilds a stream from a full precision record, without
// going through Add.
func DeserializeEvents(rec EventsRecord) *EventStream {
	s := &EventStream{clock: SystemClock{}}
	s.origin.o = newOrigin(rec.T0)
	if len(rec.Data) > 0 {
		s.events = make([]Event, len(rec.Data))
		for i, r := range rec.Data {
			s.events[i] = Event{Timestamp: r.Timestamp, Duration: r.Duration, Channels: cloneChannels(r.Channels)}
		}
	}
	return s
}

// Serialize returns the full precision record of the session. The session
// origin is read once and written to the session and both stream records.
func (r *SessionRecording) Serialize() SessionRecord {
	return r.record(r.continuous.Serialize(), r.events.Serialize())
}

// SerializeJSON returns the session rounded for text interchange. Rounding
// keeps NaN and infinite values as they are.
func (r *SessionRecording) SerializeJSON() SessionRecord {
	return r.record(r.continuous.SerializeJSON(), r.events.SerializeJSON())
}

func (r *SessionRecording) record(continuous ContinuousRecord, events EventsRecord) SessionRecord {
	t0, _ := r.origin.load()
	continuous.T0 = t0
	events.T0 = t0
	return SessionRecord{T0: t0, Continuous: continuous, Events: events}
}

// DeserializeSession rebuilds a session from a full precision record. The
// session origin rec.T0 is the origin of both streams; the origins of the
// stream records are ignored.
func DeserializeSession(rec SessionRecord) *SessionRecording {
	r := &SessionRecording{
		continuous: DeserializeContinuous(rec.Continuous),
		events:     DeserializeEvents(rec.Events),
	}
	r.share(newOrigin(rec.T0))
	return r
}

// WriteJSON writes the interchange form of the session to w. JSON has no
// NaN or infinity, so a session holding one fails with ErrNonFinite; the
// binary form written by Save keeps them.
func (r *SessionRecording) WriteJSON(w io.Writer, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	if err := enc.Encode(r.SerializeJSON()); err != nil {
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) {
			return fmt.Errorf("error encoding session: %w: %w", ErrNonFinite, err)
		}
		return fmt.Errorf("error encoding session: %w", err)
	}
	return nil
}

// Save writes the session to path in the binary format.
func (r *SessionRecording) Save(path string) error {
	rec := r.Serialize()
	slog.Debug("saving session", "path", path, "blocks", len(rec.Continuous.T), "events", len(rec.Events.Data))
	return saveRecord(path, &rec)
}

// LoadSession reads a session written by SessionRecording.Save.
func LoadSession(path string) (*SessionRecording, error) {
	var rec SessionRecord
	if err := loadRecord(path, &rec); err != nil {
		return nil, err
	}
	slog.Debug("loaded session", "path", path, "blocks", len(rec.Continuous.T), "events", len(rec.Events.Data))
	return DeserializeSession(rec), nil
}

// Save writes the stream to path in the binary format.
func (s *ContinuousStream) Save(path string) error {
	rec := s.Serialize()
	return saveRecord(path, &rec)
}

// LoadContinuousStream reads a stream written by ContinuousStream.Save.
func LoadContinuousStream(path string) (*ContinuousStream, error) {
	var rec ContinuousRecord
	if err := loadRecord(path, &rec); err != nil {
		return nil, err
	}
	return DeserializeContinuous(rec), nil
}

// Save writes the stream to path in the binary format.
func (s *EventStream) Save(path string) error {
	rec := s.Serialize()
	return saveRecord(path, &rec)
}

// LoadEventStream reads a stream written by EventStream.Save.
func LoadEventStream(path string) (*EventStream, error) {
	var rec EventsRecord
	if err := loadRecord(path, &rec); err != nil {
		return nil, err
	}
	return DeserializeEvents(rec), nil
}

func saveRecord(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := msgpack.NewEncoder(w).Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("error encoding record: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("error writing record: %w", err)
	}
	return f.Close()
}

func loadRecord(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(v); err != nil {
		return fmt.Errorf("error decoding record: %w", err)
	}
	return nil
}
