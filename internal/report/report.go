// SPDX-License-Identifier: Apache-2.0

// Package report assembles the persisted, externally visible readiness
// report from an analysis result.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getsproj/getscheck/internal/analyze"
)

// maxMissingGaps caps how many missing fields are surfaced in the gaps list.
const maxMissingGaps = 5

// CoverageOut is the external shape of the coverage partition: matched is
// flattened to target names only.
type CoverageOut struct {
	Matched []string             `json:"matched"`
	Close   []analyze.CloseField `json:"close"`
	Missing []string             `json:"missing"`
}

// Meta carries report metadata alongside the analysis output.
type Meta struct {
	RowsParsed     int    `json:"rowsParsed"`
	LinesTotal     int    `json:"linesTotal"`
	Country        string `json:"country"`
	ERP            string `json:"erp"`
	DB             string `json:"db"`
	AnalysisTime   string `json:"analysisTime"`
	ReadinessLabel string `json:"readinessLabel"`
}

// Report is the immutable document produced by one analysis call.
type Report struct {
	ReportID     string            `json:"reportId"`
	Scores       analyze.Scores    `json:"scores"`
	Coverage     CoverageOut       `json:"coverage"`
	RuleFindings []analyze.Finding `json:"ruleFindings"`
	Gaps         []string          `json:"gaps"`
	Meta         Meta              `json:"meta"`
}

// NewID returns a fresh report identifier.
func NewID() string {
	return "r_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// Assemble packages an analysis result into a report document.
func Assemble(reportID string, rows []analyze.Row, res analyze.Result, country, erp string, elapsed time.Duration) Report {
	matched := make([]string, 0, len(res.Coverage.Matched))
	for _, m := range res.Coverage.Matched {
		matched = append(matched, m.Target)
	}

	return Report{
		ReportID: reportID,
		Scores:   res.Scores,
		Coverage: CoverageOut{
			Matched: matched,
			Close:   res.Coverage.Close,
			Missing: res.Coverage.Missing,
		},
		RuleFindings: res.Findings,
		Gaps:         Gaps(res.Coverage, res.Findings),
		Meta: Meta{
			RowsParsed:     len(rows),
			LinesTotal:     CountLines(rows, res.Mapping),
			Country:        country,
			ERP:            erp,
			DB:             "sqlite",
			AnalysisTime:   fmt.Sprintf("%dms", elapsed.Milliseconds()),
			ReadinessLabel: analyze.ReadinessLabel(res.Scores.Overall),
		},
	}
}

// Gaps derives the human-readable gap list: the first five missing target
// fields, then one message per failing rule.
func Gaps(cov analyze.Coverage, findings []analyze.Finding) []string {
	gaps := []string{}

	for i, field := range cov.Missing {
		if i == maxMissingGaps {
			break
		}
		gaps = append(gaps, "Missing "+field)
	}

	for _, f := range findings {
		if f.OK {
			continue
		}
		switch f.Rule {
		case analyze.RuleCurrencyAllowed:
			if f.Value != nil {
				gaps = append(gaps, fmt.Sprintf("Invalid currency: %v", f.Value))
			}
		case analyze.RuleDateISO:
			if f.Value != nil {
				gaps = append(gaps, fmt.Sprintf("Invalid date format: %v", f.Value))
			}
		case analyze.RuleLineMath:
			gaps = append(gaps, "Line calculation errors detected")
		case analyze.RuleTotalsBalance:
			gaps = append(gaps, "Invoice total balance errors")
		case analyze.RuleTRNPresent:
			gaps = append(gaps, "Missing TRN values")
		}
	}

	return gaps
}

// CountLines counts rows carrying at least one value for a mapped target
// field in the lines category.
func CountLines(rows []analyze.Row, mapping analyze.Mapping) int {
	count := 0
	for _, row := range rows {
		for source, target := range mapping {
			if !strings.HasPrefix(target, "lines.") {
				continue
			}
			if _, ok := row[source]; ok {
				count++
				break
			}
		}
	}
	return count
}
