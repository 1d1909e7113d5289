// SPDX-License-Identifier: Apache-2.0

// Package analyze implements the readiness analysis pipeline: field
// detection against the GETS schema, rule validation over mapped rows,
// and score aggregation. Every function here is pure; given the same
// rows it produces the same result.
package analyze

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/getsproj/getscheck/internal/schema"
)

// Row is a single ingested record: source column name to scalar value.
// Values are what JSON decoding produces (string, float64, bool, nil).
// Rows are read-only once ingested; the pipeline never mutates them.
type Row map[string]any

// ValueKind is the inferred runtime kind of a row value. It is the closed
// variant shared by the field mapper's type-compatibility sampling and the
// rule validator.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindNumber
	KindDate
	KindText
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// InferKind classifies a row value. Absent and blank values are KindEmpty,
// numeric values KindNumber, strings of the form YYYY-MM-DD KindDate, and
// anything else non-empty KindText.
func InferKind(v any) ValueKind {
	switch x := v.(type) {
	case nil:
		return KindEmpty
	case float64, float32, int, int32, int64:
		return KindNumber
	case string:
		if x == "" {
			return KindEmpty
		}
		if isoDateRe.MatchString(x) {
			return KindDate
		}
		return KindText
	default:
		return KindText
	}
}

// matchesType reports whether a sampled value kind satisfies the declared
// target type. Empty values always pass; they carry no type evidence.
func (k ValueKind) matchesType(t schema.ValueType) bool {
	switch k {
	case KindEmpty:
		return true
	case KindNumber:
		return t == schema.TypeNumber
	case KindDate:
		return t == schema.TypeDate
	default:
		return t == schema.TypeText
	}
}

// toNumber coerces a row value to float64 for arithmetic rules. Blank and
// absent values coerce to 0; unparseable values yield NaN, which fails any
// tolerance comparison.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// valueString renders a row value for format checks and diagnostics.
// Floats use the shortest exact representation so 20240101.0 reads as
// "20240101", not scientific notation.
func valueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// truthy mirrors the presence test the rules apply to optional values:
// absent, nil, empty string, zero and false do not count as present.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
