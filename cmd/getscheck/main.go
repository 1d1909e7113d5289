// SPDX-License-Identifier: Apache-2.0

// getscheck analyzes tabular invoice data for e-invoicing readiness against
// the GETS schema, either as a one-shot CLI run, an HTTP service, or an MCP
// tool over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env file is fine; explicit environment wins either way.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "getscheck",
		Short:         "GETS e-invoicing readiness analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newAnalyzeCmd(), newMCPCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
