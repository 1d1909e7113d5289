// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getsproj/getscheck/internal/analyze"
	"github.com/getsproj/getscheck/internal/ingest"
	"github.com/getsproj/getscheck/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		format   string
		country  string
		erp      string
		webhooks bool
		sandbox  bool
		retries  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a CSV or JSON file and print the readiness report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if info.Size() > ingest.MaxBytes {
				return fmt.Errorf("%s exceeds the %d byte upload limit", args[0], ingest.MaxBytes)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			rows, err := ingest.Parse(string(data), format)
			if err != nil {
				return err
			}

			q := &analyze.Questionnaire{
				Webhooks:   webhooks,
				SandboxEnv: sandbox,
				Retries:    retries,
			}

			start := time.Now()
			result := analyze.Run(rows, q)
			rep := report.Assemble(report.NewID(), rows, result, country, erp, time.Since(start))

			out, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "input format: csv or json (default: auto-detect)")
	cmd.Flags().StringVar(&country, "country", "", "country code recorded in the report")
	cmd.Flags().StringVar(&erp, "erp", "", "ERP system recorded in the report")
	cmd.Flags().BoolVar(&webhooks, "webhooks", false, "posture: webhooks are supported")
	cmd.Flags().BoolVar(&sandbox, "sandbox-env", false, "posture: a sandbox environment exists")
	cmd.Flags().BoolVar(&retries, "retries", false, "posture: retries are implemented")
	return cmd
}
