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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/OpenPSG/gaitrec"
	"github.com/OpenPSG/gaitrec/internal/config"
	"github.com/OpenPSG/gaitrec/internal/mock"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	ConfigPath string
	Duration   time.Duration
	OutDir     string
}

// RecordResult describes a saved trial.
type RecordResult struct {
	TrialID string `json:"trial_id"`
	Path    string `json:"path"`
	Blocks  int    `json:"blocks"`
	Events  int    `json:"events"`
}

func (r RecordResult) String() string {
	return fmt.Sprintf("trial %s: %d blocks, %d events\nsaved to %s", r.TrialID, r.Blocks, r.Events, r.Path)
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a trial from the simulated devices",
		Long: `Record a trial from the simulated acquisition device and stimulator.

Both devices run concurrently and push into one session recording sharing a
single time origin. Recording stops after --duration or on interrupt, and the
trial is saved as a msgpack file named after a fresh trial id.`,
		Example: `  gaitrec record --duration 30s
  gaitrec record --config trial.yaml --out ./trials`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 10*time.Second, "recording duration")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "output directory (overrides output.dir)")

	return cmd
}

func runRecord(cmd *cobra.Command, opts *RecordOptions) error {
	if opts.Duration <= 0 {
		return NewExitError(ExitCommandError, "duration must be positive")
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	outDir := cfg.Output.Dir
	if opts.OutDir != "" {
		outDir = opts.OutDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	trialID, err := uuid.NewV7()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to generate trial id", err)
	}
	logger := slog.Default().With("trial", trialID.String())

	session := gaitrec.NewSessionRecording()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	acq := mock.NewAcquisition(cfg.Acquisition)
	acq.Logger = logger
	stim := mock.NewStimulator(cfg.Stimulation)
	stim.Logger = logger

	logger.Info("recording started", "duration", opts.Duration)

	if err := record(ctx, session, acq, stim); err != nil {
		return WrapExitError(ExitFailure, "recording failed", err)
	}

	path := filepath.Join(outDir, "trial-"+trialID.String()+".msgpack")
	if err := session.Save(path); err != nil {
		return WrapExitError(ExitFailure, "failed to save trial", err)
	}

	result := RecordResult{
		TrialID: trialID.String(),
		Path:    path,
		Blocks:  session.Continuous().Len(),
		Events:  session.Events().Len(),
	}
	logger.Info("recording finished", "blocks", result.Blocks, "events", result.Events)

	return output(cmd, opts.RootOptions, result)
}

// loadConfig loads the configuration at path, or the defaults when path is
// empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// record runs both devices into session until ctx is done. A failing device
// stops the other one.
func record(ctx context.Context, session *gaitrec.SessionRecording, acq *mock.Acquisition, stim *mock.Stimulator) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		acqErr  error
		stimErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if acqErr = acq.Run(ctx, session.Continuous()); acqErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		if stimErr = stim.Run(ctx, session.Events()); stimErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	if acqErr != nil {
		return fmt.Errorf("acquisition failed: %w", acqErr)
	}
	if stimErr != nil {
		return fmt.Errorf("stimulation failed: %w", stimErr)
	}
	return nil
}
