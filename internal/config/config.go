// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads the recorder configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete recorder configuration.
type Config struct {
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Stimulation StimulationConfig `yaml:"stimulation"`
	Output      OutputConfig      `yaml:"output"`
	EDF         EDFConfig         `yaml:"edf"`
}

// AcquisitionConfig describes the analog acquisition device.
type AcquisitionConfig struct {
	Channels     int      `yaml:"channels"`
	Labels       []string `yaml:"labels,omitempty"` // One per channel, used by the EDF export
	SampleRateHz float64  `yaml:"sample_rate_hz"`
	BlockSize    int      `yaml:"block_size"` // Samples per pushed block
}

// StimulationConfig describes the stimulation controller.
type StimulationConfig struct {
	Channels        []ChannelConfig `yaml:"channels"`
	PeriodMs        int             `yaml:"period_ms"`         // Interval between pulses
	PulseDurationMs int             `yaml:"pulse_duration_ms"` // Duration of each pulse
	AmplitudeStep   float64         `yaml:"amplitude_step"`    // Amplitude added on every ramp step (mA)
	RampEvery       int             `yaml:"ramp_every"`        // Pulses between ramp steps, 0 disables the ramp
}

// ChannelConfig is the initial state of one stimulation channel.
type ChannelConfig struct {
	Index     int     `yaml:"index"`
	Amplitude float64 `yaml:"amplitude"`
}

// OutputConfig controls where trials are written.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	JSONIndent string `yaml:"json_indent"`
}

// EDFConfig controls the EDF export.
type EDFConfig struct {
	PatientID        string `yaml:"patient_id"`
	SamplesPerRecord int    `yaml:"samples_per_record"`
}

// Default returns a configuration that records two analog channels at 2 kHz
// and stimulates two channels at 25 Hz.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a YAML configuration file. Missing values take their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Acquisition.Channels == 0 {
		cfg.Acquisition.Channels = 2
	}
	if cfg.Acquisition.SampleRateHz == 0 {
		cfg.Acquisition.SampleRateHz = 2000
	}
	if cfg.Acquisition.BlockSize == 0 {
		cfg.Acquisition.BlockSize = 20
	}
	if len(cfg.Stimulation.Channels) == 0 {
		cfg.Stimulation.Channels = []ChannelConfig{{Index: 1, Amplitude: 10}, {Index: 2, Amplitude: 10}}
	}
	if cfg.Stimulation.PeriodMs == 0 {
		cfg.Stimulation.PeriodMs = 40
	}
	if cfg.Stimulation.PulseDurationMs == 0 {
		cfg.Stimulation.PulseDurationMs = 20
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.JSONIndent == "" {
		cfg.Output.JSONIndent = "  "
	}
	if cfg.EDF.SamplesPerRecord == 0 {
		cfg.EDF.SamplesPerRecord = 100
	}
}

// Validate checks the configuration for values the recorder cannot run with.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Acquisition.Channels < 1 {
		errs = append(errs, errors.New("acquisition.channels must be positive"))
	}
	if len(cfg.Acquisition.Labels) > 0 && len(cfg.Acquisition.Labels) != cfg.Acquisition.Channels {
		errs = append(errs, fmt.Errorf("acquisition.labels has %d entries for %d channels", len(cfg.Acquisition.Labels), cfg.Acquisition.Channels))
	}
	if cfg.Acquisition.SampleRateHz <= 0 {
		errs = append(errs, errors.New("acquisition.sample_rate_hz must be positive"))
	}
	if cfg.Acquisition.BlockSize < 1 {
		errs = append(errs, errors.New("acquisition.block_size must be positive"))
	}
	if cfg.Acquisition.SampleRateHz > 0 && cfg.Acquisition.BlockSize >= 1 && cfg.Acquisition.BlockInterval() <= 0 {
		errs = append(errs, errors.New("acquisition.block_size / sample_rate_hz must be at least 1ns"))
	}

	seen := make(map[int]bool)
	for _, ch := range cfg.Stimulation.Channels {
		if seen[ch.Index] {
			errs = append(errs, fmt.Errorf("stimulation channel %d is listed twice", ch.Index))
		}
		seen[ch.Index] = true
		if ch.Amplitude < 0 {
			errs = append(errs, fmt.Errorf("stimulation channel %d has a negative amplitude", ch.Index))
		}
	}
	if cfg.Stimulation.PeriodMs < 1 {
		errs = append(errs, errors.New("stimulation.period_ms must be positive"))
	}
	if cfg.Stimulation.PulseDurationMs < 1 || cfg.Stimulation.PulseDurationMs > cfg.Stimulation.PeriodMs {
		errs = append(errs, errors.New("stimulation.pulse_duration_ms must be positive and at most period_ms"))
	}
	if cfg.Stimulation.RampEvery < 0 {
		errs = append(errs, errors.New("stimulation.ramp_every cannot be negative"))
	}
	if cfg.EDF.SamplesPerRecord < 1 {
		errs = append(errs, errors.New("edf.samples_per_record must be positive"))
	}

	return errors.Join(errs...)
}

// BlockInterval is the time covered by one acquisition block.
func (c AcquisitionConfig) BlockInterval() time.Duration {
	return time.Duration(math.Round(float64(c.BlockSize) / c.SampleRateHz * float64(time.Second)))
}

// Period is the interval between pulses.
func (c StimulationConfig) Period() time.Duration {
	return time.Duration(c.PeriodMs) * time.Millisecond
}

// PulseDuration is the duration of each pulse.
func (c StimulationConfig) PulseDuration() time.Duration {
	return time.Duration(c.PulseDurationMs) * time.Millisecond
}
