// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec

// ChannelEvent is the state of one stimulation channel at the moment a pulse
// was issued. Vendor channel objects are converted to this type by the driver
// before they reach a stream.
type ChannelEvent struct {
	Index     int     `msgpack:"channel_index" json:"channel_index"` // Stimulator channel number
	Amplitude float64 `msgpack:"amplitude" json:"amplitude"`         // Pulse amplitude (mA)
}

// SampleBlockSink receives sample blocks from an acquisition device.
type SampleBlockSink interface {
	PushSampleBlock(t []float64, data [][]float64)
}

// EventSink receives pulses from a stimulation controller. Channels may be
// nil when the controller reports no change since the previous pulse.
type EventSink interface {
	PushEvent(timestamp, duration float64, channels []ChannelEvent) error
}

func cloneChannels(c []ChannelEvent) []ChannelEvent {
	if c == nil {
		return nil
	}
	out := make([]ChannelEvent, len(c))
	copy(out, c)
	return out
}

// sameChannelSet reports whether b names the same channels as a, in the same order.
func sameChannelSet(a, b []ChannelEvent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index {
			return false
		}
	}
	return true
}
