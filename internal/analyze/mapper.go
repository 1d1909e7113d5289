// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"math"
	"sort"
	"strings"

	"github.com/getsproj/getscheck/internal/schema"
)

// Classification thresholds and scores used by the field mapper. These are
// part of the external contract; reports produced elsewhere must classify
// the same input identically.
const (
	matchThreshold = 0.9
	closeThreshold = 0.6

	exactScore     = 1.0
	shortNameScore = 0.95
	typeBonus      = 0.2
	typeBonusCap   = 0.89
	typeBonusFloor = 0.5

	typeSampleSize     = 10
	typeSampleMinRatio = 0.7
)

// MatchedField records a high-confidence alignment of a source column to a
// target schema field.
type MatchedField struct {
	Target string `json:"target"`
	Source string `json:"source"`
}

// CloseField records the best candidate for a target field whose similarity
// fell short of the match threshold.
type CloseField struct {
	Target     string  `json:"target"`
	Candidate  string  `json:"candidate"`
	Confidence float64 `json:"confidence"`
}

// Coverage partitions the GETS schema by match quality. Every target field
// appears in exactly one of the three lists.
type Coverage struct {
	Matched []MatchedField `json:"matched"`
	Close   []CloseField   `json:"close"`
	Missing []string       `json:"missing"`
}

// Mapping maps source column names to the target fields they were matched
// to. Only matched entries participate; close and missing fields are
// excluded from rule evaluation.
type Mapping map[string]string

// DetectFields aligns the source columns of rows against the GETS schema.
// Source columns are taken from the first row's key set, in sorted order so
// ties between equally scored columns resolve deterministically. An empty
// row set reports every target field as missing. The function is total: it
// never fails, however sparse or malformed the rows.
func DetectFields(rows []Row) Coverage {
	cov := Coverage{
		Matched: []MatchedField{},
		Close:   []CloseField{},
		Missing: []string{},
	}

	if len(rows) == 0 {
		for _, f := range schema.Fields() {
			cov.Missing = append(cov.Missing, f.Name)
		}
		return cov
	}

	sourceCols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		sourceCols = append(sourceCols, col)
	}
	sort.Strings(sourceCols)

	for _, field := range schema.Fields() {
		bestCol := ""
		bestScore := 0.0
		for _, col := range sourceCols {
			score := similarity(col, field, rows)
			if score > bestScore {
				bestScore = score
				bestCol = col
			}
		}

		switch {
		case bestScore >= matchThreshold:
			cov.Matched = append(cov.Matched, MatchedField{Target: field.Name, Source: bestCol})
		case bestScore >= closeThreshold:
			cov.Close = append(cov.Close, CloseField{
				Target:     field.Name,
				Candidate:  bestCol,
				Confidence: math.Round(bestScore*100) / 100,
			})
		default:
			cov.Missing = append(cov.Missing, field.Name)
		}
	}

	return cov
}

// BuildMapping derives the source-to-target mapping from the matched
// portion of a coverage result.
func BuildMapping(cov Coverage) Mapping {
	m := make(Mapping, len(cov.Matched))
	for _, match := range cov.Matched {
		m[match.Source] = match.Target
	}
	return m
}

// invert returns the target-to-source view of the mapping, precomputed once
// per analysis so rules resolve fields in O(1).
func (m Mapping) invert() map[string]string {
	inv := make(map[string]string, len(m))
	for source, target := range m {
		inv[target] = source
	}
	return inv
}

// similarity scores a source column against a target field on [0,1]:
// 1.0 for an exact normalized match, 0.95 when the column equals or contains
// the last segment of the target path and its sampled values are
// type-compatible, otherwise normalized Levenshtein similarity with a +0.2
// type-compatibility bonus (capped at 0.89) when above 0.5.
func similarity(sourceCol string, field schema.Field, rows []Row) float64 {
	normSource := normalizeName(sourceCol)
	normTarget := normalizeName(field.Name)

	if normSource == normTarget {
		return exactScore
	}

	segments := strings.Split(field.Name, ".")
	normShort := normalizeName(segments[len(segments)-1])
	if normSource == normShort || strings.Contains(normSource, normShort) {
		if typeCompatible(rows, sourceCol, field.Type) {
			return shortNameScore
		}
	}

	maxLen := max(len(normSource), len(normTarget))
	if maxLen == 0 {
		return 0
	}
	sim := 1 - float64(levenshtein(normSource, normTarget))/float64(maxLen)

	if sim > typeBonusFloor && typeCompatible(rows, sourceCol, field.Type) {
		return math.Min(sim+typeBonus, typeBonusCap)
	}
	return sim
}

// normalizeName lowercases a field name and strips whitespace, underscores,
// hyphens and dots, so "Total_Excl_VAT" and "invoice.total_excl_vat"
// compare on equal footing.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r == '_' || r == '-' || r == '.':
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// typeCompatible samples up to the first ten rows of a source column and
// reports whether at least 70% of the sampled values are either empty or of
// the target field's declared type.
func typeCompatible(rows []Row, sourceCol string, want schema.ValueType) bool {
	sample := min(typeSampleSize, len(rows))
	if sample == 0 {
		return false
	}

	compatible := 0
	for i := 0; i < sample; i++ {
		if InferKind(rows[i][sourceCol]).matchesType(want) {
			compatible++
		}
	}
	return float64(compatible)/float64(sample) >= typeSampleMinRatio
}

// levenshtein computes the edit distance between two strings over runes.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
