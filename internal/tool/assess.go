// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/getsproj/getscheck/internal/analyze"
	"github.com/getsproj/getscheck/internal/ingest"
	"github.com/getsproj/getscheck/internal/report"
)

// MetadataAssessInvoiceReadiness describes the assess_invoice_readiness tool.
var MetadataAssessInvoiceReadiness = &mcp.Tool{
	Name: "assess_invoice_readiness",
	Description: "Analyze tabular invoice data (CSV or JSON) against the GETS schema and return " +
		"an e-invoicing readiness report. The report includes field coverage " +
		"(matched/close/missing), five rule findings (totals balance, line math, ISO dates, " +
		"allowed currencies, TRN presence), weighted scores, and a prioritized gaps list. " +
		"Up to 200 rows are analyzed.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw CSV or JSON invoice data to analyze",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Format hint for the data. One of: csv, json. If omitted, auto-detection is used.",
				"enum":        []string{"csv", "json"},
			},
			"country": map[string]interface{}{
				"type":        "string",
				"description": "Optional country code recorded in the report metadata.",
			},
			"erp": map[string]interface{}{
				"type":        "string",
				"description": "Optional ERP system name recorded in the report metadata.",
			},
			"webhooks": map[string]interface{}{
				"type":        "boolean",
				"description": "Posture answer: the sender can receive webhooks.",
			},
			"sandbox_env": map[string]interface{}{
				"type":        "boolean",
				"description": "Posture answer: a sandbox environment is available.",
			},
			"retries": map[string]interface{}{
				"type":        "boolean",
				"description": "Posture answer: submission retries are implemented.",
			},
		},
	},
}

// InputAssessInvoiceReadiness is the input for the AssessInvoiceReadiness tool.
type InputAssessInvoiceReadiness struct {
	Content    string `json:"content"`
	Format     string `json:"format"`
	Country    string `json:"country"`
	ERP        string `json:"erp"`
	Webhooks   bool   `json:"webhooks"`
	SandboxEnv bool   `json:"sandbox_env"`
	Retries    bool   `json:"retries"`
}

// OutputAssessInvoiceReadiness is the output for the AssessInvoiceReadiness tool.
type OutputAssessInvoiceReadiness struct {
	// Report is the full readiness report document.
	Report report.Report `json:"report"`
	// RowsParsed is the number of rows extracted from the input.
	RowsParsed int `json:"rows_parsed"`
}

// AssessInvoiceReadiness ingests the provided invoice data, runs the full
// analysis pipeline, and returns the assembled report. Nothing is persisted.
func AssessInvoiceReadiness(ctx context.Context, _ *mcp.CallToolRequest, input InputAssessInvoiceReadiness) (*mcp.CallToolResult, OutputAssessInvoiceReadiness, error) {
	if input.Content == "" {
		return nil, OutputAssessInvoiceReadiness{}, fmt.Errorf("content is required")
	}

	rows, err := ingest.Parse(input.Content, input.Format)
	if err != nil {
		return nil, OutputAssessInvoiceReadiness{}, fmt.Errorf("ingest failed: %w", err)
	}

	q := &analyze.Questionnaire{
		Webhooks:   input.Webhooks,
		SandboxEnv: input.SandboxEnv,
		Retries:    input.Retries,
	}

	start := time.Now()
	result := analyze.Run(rows, q)
	rep := report.Assemble(report.NewID(), rows, result, input.Country, input.ERP, time.Since(start))

	return nil, OutputAssessInvoiceReadiness{
		Report:     rep,
		RowsParsed: len(rows),
	}, nil
}
