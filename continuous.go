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

// SampleBlock is one atomically pushed chunk of continuous data: a time vector
// and a channels x time array of the same width.
type SampleBlock struct {
	Time []float64
	Data [][]float64
}

// ContinuousStream accumulates sample blocks from an analog acquisition
// device. Block timestamps are absolute (seconds since the Unix epoch).
//
// A stream accepts a single producer. Readers may run concurrently with it:
// copying accessors observe a consistent snapshot, while the *Ref accessors
// share storage with the stream and must not be mutated by the caller unless
// that is the intent.
//
// The zero value is an empty stream without an origin; Add establishes one
// from the system clock.
type ContinuousStream struct {
	mu     sync.RWMutex
	clock  Clock
	origin lazyOrigin
	t      [][]float64
	data   [][][]float64
}

// NewContinuousStream creates an empty stream. Its origin is the one given by
// WithOrigin, or the clock's current instant.
func NewContinuousStream(opts ...Option) *ContinuousStream {
	o := newOptions(opts)
	s := &ContinuousStream{clock: o.clock}
	s.origin.o = newOrigin(Timestamp(o.resolveOrigin()))
	return s
}

// SetOrigin overwrites the origin. Existing blocks are left untouched, so
// resetting the origin after data was added is the caller's responsibility.
// On a stream owned by a SessionRecording the origin is shared with the event
// stream and moves for both.
func (s *ContinuousStream) SetOrigin(t0 time.Time) {
	s.origin.get().store(Timestamp(t0))
}

// T0 returns the origin, or the zero time if none was established.
func (s *ContinuousStream) T0() time.Time {
	t0, ok := s.origin.get().load()
	if !ok {
		return time.Time{}
	}
	return FromTimestamp(t0)
}

// T0Timestamp returns the origin in seconds since the Unix epoch.
func (s *ContinuousStream) T0Timestamp() float64 {
	t0, _ := s.origin.get().load()
	return t0
}

// Add appends a block, establishing the origin first if the stream has none.
// The slices are stored by reference. Channel counts are not validated.
func (s *ContinuousStream) Add(t []float64, data [][]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clock := s.clock
	if clock == nil {
		clock = SystemClock{}
	}
	s.origin.get().establish(clock.Now)
	s.t = append(s.t, t)
	s.data = append(s.data, data)
}

// AddSampleBlock appends a block without checking the origin. It is the
// producer hot path for streams whose origin is already set.
func (s *ContinuousStream) AddSampleBlock(t []float64, data [][]float64) {
	s.mu.Lock()
	s.t = append(s.t, t)
	s.data = append(s.data, data)
	s.mu.Unlock()
}

// PushSampleBlock implements SampleBlockSink.
func (s *ContinuousStream) PushSampleBlock(t []float64, data [][]float64) {
	s.AddSampleBlock(t, data)
}

// Len returns the number of blocks (not samples).
func (s *ContinuousStream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.t)
}

// HasData reports whether at least one block was added.
func (s *ContinuousStream) HasData() bool {
	return s.Len() > 0
}

// Clear drops every block. The origin is preserved.
func (s *ContinuousStream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.t = nil
	s.data = nil
}

// SampleBlock returns a deep copy of the block at index; negative indices
// count from the end. An empty stream yields a zero SampleBlock and no error.
func (s *ContinuousStream) SampleBlock(index int) (SampleBlock, error) {
	b, err := s.SampleBlockRef(index)
	if err != nil {
		return SampleBlock{}, err
	}
	return SampleBlock{Time: cloneVector(b.Time), Data: cloneMatrix(b.Data)}, nil
}

// SampleBlockRef is SampleBlock without the copy: the returned slices alias
// the stream's storage and writes through them are visible to every reader.
func (s *ContinuousStream) SampleBlockRef(index int) (SampleBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.t) == 0 {
		return SampleBlock{}, nil
	}
	i, err := resolveIndex(index, len(s.t))
	if err != nil {
		return SampleBlock{}, err
	}
	return SampleBlock{Time: s.t[i], Data: s.data[i]}, nil
}

// SampleBlocks returns deep copies of the blocks in [lo, hi).
func (s *ContinuousStream) SampleBlocks(lo, hi int) []SampleBlock {
	blocks := s.SampleBlocksRef(lo, hi)
	for i, b := range blocks {
		blocks[i] = SampleBlock{Time: cloneVector(b.Time), Data: cloneMatrix(b.Data)}
	}
	return blocks
}

// SampleBlocksRef returns the blocks in [lo, hi) without copying them.
func (s *ContinuousStream) SampleBlocksRef(lo, hi int) []SampleBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo, hi = resolveSlice(lo, hi, len(s.t))
	blocks := make([]SampleBlock, 0, hi-lo)
	for i := lo; i < hi; i++ {
		blocks = append(blocks, SampleBlock{Time: s.t[i], Data: s.data[i]})
	}
	return blocks
}

// Time concatenates every time vector in insertion order.
func (s *ContinuousStream) Time() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return concatTime(s.t)
}

// RelativeTime is Time with the origin subtracted.
func (s *ContinuousStream) RelativeTime() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := concatTime(s.t)
	t0 := s.T0Timestamp()
	for i := range t {
		t[i] -= t0
	}
	return t
}

// AsArray concatenates every block along the time axis into one channels x
// samples array. An empty stream yields shape (1, 0).
//
// All blocks must share the channel count of the first block; AsArray panics
// otherwise.
func (s *ContinuousStream) AsArray() [][]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return concatData(s.data)
}

// Aligned returns the relative time vector and the data array trimmed to the
// same number of samples.
func (s *ContinuousStream) Aligned() ([]float64, [][]float64) {
	s.mu.RLock()
	t := concatTime(s.t)
	data := concatData(s.data)
	s.mu.RUnlock()
	t0 := s.T0Timestamp()

	for i := range t {
		t[i] -= t0
	}
	n := len(t)
	if _, cols := Shape(data); cols < n {
		n = cols
	}
	for c := range data {
		if len(data[c]) > n {
			data[c] = data[c][:n]
		}
	}
	return t[:n], data
}

// Copy returns a stream with the same origin and deep copies of every block.
func (s *ContinuousStream) Copy() *ContinuousStream {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &ContinuousStream{clock: s.clock}
	out.origin.o = s.origin.get().clone()
	out.t = make([][]float64, len(s.t))
	out.data = make([][][]float64, len(s.data))
	for i := range s.t {
		out.t[i] = cloneVector(s.t[i])
		out.data[i] = cloneMatrix(s.data[i])
	}
	return out
}

func concatTime(blocks [][]float64) []float64 {
	var n int
	for _, t := range blocks {
		n += len(t)
	}
	out := make([]float64, 0, n)
	for _, t := range blocks {
		out = append(out, t...)
	}
	return out
}

func concatData(blocks [][][]float64) [][]float64 {
	if len(blocks) == 0 {
		return emptyArray()
	}
	channels := len(blocks[0])
	if channels == 0 {
		for i, block := range blocks {
			if len(block) != 0 {
				panic(fmt.Sprintf("gaitrec: block %d has %d channels, expected 0", i, len(block)))
			}
		}
		return emptyArray()
	}
	out := make([][]float64, channels)
	for i, block := range blocks {
		if len(block) != channels {
			panic(fmt.Sprintf("gaitrec: block %d has %d channels, expected %d", i, len(block), channels))
		}
		for c, row := range block {
			out[c] = append(out[c], row...)
		}
	}
	for c := range out {
		if out[c] == nil {
			out[c] = []float64{}
		}
	}
	return out
}
