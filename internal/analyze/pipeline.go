// SPDX-License-Identifier: Apache-2.0

package analyze

// Result is the output of one analysis run: the coverage partition, the
// derived field mapping, the five rule findings in fixed order, and the
// aggregated scores. All of it is recomputed on every call; nothing is
// cached across runs.
type Result struct {
	Coverage Coverage
	Mapping  Mapping
	Findings []Finding
	Scores   Scores
}

// Run executes the full pipeline over an ingested row set: field detection,
// rule validation over the derived mapping, then score aggregation. It is
// total over any structurally valid row set; sparse or type-inconsistent
// data degrades to low scores rather than an error.
func Run(rows []Row, q *Questionnaire) Result {
	cov := DetectFields(rows)
	mapping := BuildMapping(cov)
	findings := RunAllRules(rows, mapping)
	scores := CalculateScores(rows, cov, findings, q)

	return Result{
		Coverage: cov,
		Mapping:  mapping,
		Findings: findings,
		Scores:   scores,
	}
}
