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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenPSG/gaitrec"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	ConfigPath string
	JSONPath   string
	EDFPath    string
}

// ExportResult lists the files written by an export.
type ExportResult struct {
	Source string   `json:"source"`
	Files  []string `json:"files"`
}

func (r ExportResult) String() string {
	return fmt.Sprintf("exported %s to %s", r.Source, strings.Join(r.Files, ", "))
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a recorded trial to JSON or EDF",
		Long: `Export a recorded trial to interchange formats.

--json writes the rounded JSON interchange form of the whole session.
--edf writes the continuous data as an EDF file; stimulation events are not
included. Both exports are lossy.`,
		Example: `  gaitrec export trial.msgpack --json trial.json
  gaitrec export trial.msgpack --edf trial.edf --config trial.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&opts.JSONPath, "json", "", "write the JSON interchange form to this path")
	cmd.Flags().StringVar(&opts.EDFPath, "edf", "", "write the continuous data as EDF to this path")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions, src string) error {
	if opts.JSONPath == "" && opts.EDFPath == "" {
		return NewExitError(ExitCommandError, "nothing to export, set --json or --edf")
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	session, err := gaitrec.LoadSession(src)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load trial", err)
	}

	result := ExportResult{Source: src}

	if opts.JSONPath != "" {
		if err := writeFile(opts.JSONPath, func(f *os.File) error {
			return session.WriteJSON(f, cfg.Output.JSONIndent)
		}); err != nil {
			return WrapExitError(ExitFailure, "failed to export JSON", err)
		}
		result.Files = append(result.Files, opts.JSONPath)
	}

	if opts.EDFPath != "" {
		edfOpts := gaitrec.EDFOptions{
			PatientID:        cfg.EDF.PatientID,
			RecordingID:      strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
			Labels:           cfg.Acquisition.Labels,
			SamplesPerRecord: cfg.EDF.SamplesPerRecord,
		}
		if cfg.Acquisition.SampleRateHz > 0 {
			edfOpts.SamplePeriod = 1 / cfg.Acquisition.SampleRateHz
		}
		if err := writeFile(opts.EDFPath, func(f *os.File) error {
			return gaitrec.ExportEDF(f, session.Continuous(), edfOpts)
		}); err != nil {
			return WrapExitError(ExitFailure, "failed to export EDF", err)
		}
		result.Files = append(result.Files, opts.EDFPath)
	}

	return output(cmd, opts.RootOptions, result)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
