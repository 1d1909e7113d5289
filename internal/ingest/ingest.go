// SPDX-License-Identifier: Apache-2.0

// Package ingest converts raw CSV or JSON text into the row sets consumed
// by the analysis pipeline. Input is capped at 200 rows; type inference
// turns numeric strings into numbers so downstream sampling sees the same
// kinds a JSON payload would carry.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/getsproj/getscheck/internal/analyze"
)

// MaxRows is the upper bound on ingested rows; anything beyond it is
// silently dropped.
const MaxRows = 200

// MaxBytes is the upload size limit enforced at the transport boundary.
const MaxBytes = 5 << 20

// Parse converts raw text into rows. A "json" format hint or content that
// parses as a JSON object or array selects the JSON path; everything else
// is treated as CSV with a header row.
func Parse(text, format string) ([]analyze.Row, error) {
	if strings.EqualFold(format, "json") || looksLikeJSON(text) {
		return ParseJSON(text)
	}
	return ParseCSV(text)
}

func looksLikeJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return false
	}
	return json.Valid([]byte(trimmed))
}

// ParseJSON accepts a single object or an array of objects, sliced to the
// first MaxRows elements.
func ParseJSON(text string) ([]analyze.Row, error) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	switch v := doc.(type) {
	case map[string]any:
		return []analyze.Row{analyze.Row(v)}, nil
	case []any:
		rows := make([]analyze.Row, 0, min(len(v), MaxRows))
		for _, el := range v {
			if len(rows) == MaxRows {
				break
			}
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parse JSON: array element %d is not an object", len(rows))
			}
			rows = append(rows, analyze.Row(obj))
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("parse JSON: input must be an object or an array of objects")
	}
}

// ParseCSV reads a header row plus up to MaxRows data rows. Headers are
// trimmed; cell values are dynamically typed (numbers and booleans are
// converted, everything else stays a string). Blank lines are skipped.
func ParseCSV(text string) ([]analyze.Row, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return []analyze.Row{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]analyze.Row, 0, min(len(records)-1, MaxRows))
	for _, record := range records[1:] {
		if len(rows) == MaxRows {
			break
		}
		if isBlank(record) {
			continue
		}

		row := make(analyze.Row, len(header))
		for i, col := range header {
			if col == "" || i >= len(record) {
				continue
			}
			row[col] = typeCell(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// typeCell applies dynamic typing to a CSV cell.
func typeCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
