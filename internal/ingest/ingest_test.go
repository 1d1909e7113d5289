// SPDX-License-Identifier: Apache-2.0

package ingest_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsproj/getscheck/internal/ingest"
)

func TestParseCSV(t *testing.T) {
	t.Run("header and typed cells", func(t *testing.T) {
		rows, err := ingest.ParseCSV("invoice_id, total ,currency\nINV-1,105.5,AED\nINV-2,200,SAR\n")
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "INV-1", rows[0]["invoice_id"])
		assert.Equal(t, 105.5, rows[0]["total"], "headers are trimmed, numbers typed")
		assert.Equal(t, "AED", rows[0]["currency"])
		assert.Equal(t, 200.0, rows[1]["total"])
	})

	t.Run("empty cells stay empty strings", func(t *testing.T) {
		rows, err := ingest.ParseCSV("a,b\n1,\n")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "", rows[0]["b"])
	})

	t.Run("booleans are typed", func(t *testing.T) {
		rows, err := ingest.ParseCSV("flag\ntrue\nfalse\n")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, true, rows[0]["flag"])
		assert.Equal(t, false, rows[1]["flag"])
	})

	t.Run("quoted fields keep commas", func(t *testing.T) {
		rows, err := ingest.ParseCSV("name,city\n\"Acme, LLC\",Dubai\n")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Acme, LLC", rows[0]["name"])
	})

	t.Run("all-blank rows are skipped", func(t *testing.T) {
		rows, err := ingest.ParseCSV("a,b\n1,2\n,\n3,4\n")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("short records fill only present columns", func(t *testing.T) {
		rows, err := ingest.ParseCSV("a,b,c\n1,2\n")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1.0, rows[0]["a"])
		assert.Equal(t, 2.0, rows[0]["b"])
		_, hasC := rows[0]["c"]
		assert.False(t, hasC)
	})

	t.Run("capped at 200 rows", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("n\n")
		for i := 0; i < 250; i++ {
			fmt.Fprintf(&sb, "%d\n", i)
		}
		rows, err := ingest.ParseCSV(sb.String())
		require.NoError(t, err)
		assert.Len(t, rows, ingest.MaxRows)
	})

	t.Run("header only yields no rows", func(t *testing.T) {
		rows, err := ingest.ParseCSV("a,b\n")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("array of objects", func(t *testing.T) {
		rows, err := ingest.ParseJSON(`[{"a": 1, "b": "x"}, {"a": 2}]`)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1.0, rows[0]["a"])
		assert.Equal(t, "x", rows[0]["b"])
	})

	t.Run("single object becomes one row", func(t *testing.T) {
		rows, err := ingest.ParseJSON(`{"a": 1}`)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("capped at 200 elements", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("[")
		for i := 0; i < 250; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"n": %d}`, i)
		}
		sb.WriteString("]")

		rows, err := ingest.ParseJSON(sb.String())
		require.NoError(t, err)
		assert.Len(t, rows, ingest.MaxRows)
	})

	t.Run("scalar input is rejected", func(t *testing.T) {
		_, err := ingest.ParseJSON(`42`)
		assert.Error(t, err)
	})

	t.Run("array of scalars is rejected", func(t *testing.T) {
		_, err := ingest.ParseJSON(`[1, 2, 3]`)
		assert.Error(t, err)
	})

	t.Run("malformed input errors", func(t *testing.T) {
		_, err := ingest.ParseJSON(`{"unclosed": `)
		assert.Error(t, err)
	})
}

func TestParse_FormatSelection(t *testing.T) {
	t.Run("json hint forces JSON", func(t *testing.T) {
		_, err := ingest.Parse("not json at all", "json")
		assert.Error(t, err)
	})

	t.Run("json content auto-detected", func(t *testing.T) {
		rows, err := ingest.Parse(`  [{"a": 1}]`, "")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1.0, rows[0]["a"])
	})

	t.Run("csv by default", func(t *testing.T) {
		rows, err := ingest.Parse("a,b\n1,2\n", "")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1.0, rows[0]["a"])
	})
}
