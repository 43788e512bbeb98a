// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenPSG/gaitrec"
)

// InspectResult summarises a saved trial.
type InspectResult struct {
	Path            string  `json:"path"`
	T0              string  `json:"t0"`
	Blocks          int     `json:"blocks"`
	Samples         int     `json:"samples"`
	Channels        int     `json:"channels"`
	Events          int     `json:"events"`
	StimChannels    []int   `json:"stim_channels"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (r InspectResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "file:          %s\n", r.Path)
	fmt.Fprintf(&sb, "t0:            %s\n", r.T0)
	fmt.Fprintf(&sb, "blocks:        %d\n", r.Blocks)
	fmt.Fprintf(&sb, "samples:       %d\n", r.Samples)
	fmt.Fprintf(&sb, "channels:      %d\n", r.Channels)
	fmt.Fprintf(&sb, "events:        %d\n", r.Events)
	fmt.Fprintf(&sb, "stim channels: %v\n", r.StimChannels)
	fmt.Fprintf(&sb, "duration:      %.3fs", r.DurationSeconds)
	return sb.String()
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inspect <file>",
		Short:         "Summarise a recorded trial",
		Example:       `  gaitrec inspect trial-0190f5c2.msgpack --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := gaitrec.LoadSession(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load trial", err)
			}
			return output(cmd, rootOpts, summarise(args[0], session))
		},
	}

	return cmd
}

func summarise(path string, session *gaitrec.SessionRecording) InspectResult {
	t, data := session.Continuous().Aligned()
	channels, samples := gaitrec.Shape(data)
	if samples == 0 {
		channels = 0
	}

	events := session.Events()
	stim := []int{}
	for _, ch := range events.Channels() {
		stim = append(stim, ch.Index)
	}

	// The trial spans from its origin to the last sample or the end of the
	// last pulse, whichever comes later.
	var end float64
	if len(t) > 0 {
		end = t[len(t)-1]
	}
	times := events.RelativeTime()
	durations := events.DurationAsArray()[0]
	for i := range times {
		end = max(end, times[i]+durations[i])
	}

	return InspectResult{
		Path:            path,
		T0:              session.T0().UTC().Format(time.RFC3339Nano),
		Blocks:          session.Continuous().Len(),
		Samples:         samples,
		Channels:        channels,
		Events:          events.Len(),
		StimChannels:    stim,
		DurationSeconds: end,
	}
}
