// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"math"

	"github.com/getsproj/getscheck/internal/schema"
)

// Component weights of the overall score. They sum to 1.0.
const (
	weightData     = 0.25
	weightCoverage = 0.35
	weightRules    = 0.30
	weightPosture  = 0.10
)

// Coverage scoring counts a matched field as a full hit and a close field
// as half a hit, against the fixed schema size.
const (
	matchedWeight = 1.0
	closeWeight   = 0.5
)

const postureQuestions = 3

// Questionnaire holds the three technical-readiness answers. Keys absent
// from the incoming JSON default to false.
type Questionnaire struct {
	Webhooks   bool `json:"webhooks"`
	SandboxEnv bool `json:"sandbox_env"`
	Retries    bool `json:"retries"`
}

// Scores are the four component scores and their weighted composite, each
// on [0,100].
type Scores struct {
	Data     int `json:"data"`
	Coverage int `json:"coverage"`
	Rules    int `json:"rules"`
	Posture  int `json:"posture"`
	Overall  int `json:"overall"`
}

// CalculateScores combines data completeness, schema coverage, rule
// compliance and the posture questionnaire into the weighted composite.
// A nil questionnaire scores posture as 0.
func CalculateScores(rows []Row, cov Coverage, findings []Finding, q *Questionnaire) Scores {
	s := Scores{
		Data:     dataScore(rows),
		Coverage: coverageScore(cov),
		Rules:    rulesScore(findings),
		Posture:  postureScore(q),
	}
	s.Overall = overallScore(s.Data, s.Coverage, s.Rules, s.Posture)
	return s
}

// dataScore is the percentage of non-empty scalar values across all rows.
func dataScore(rows []Row) int {
	if len(rows) == 0 {
		return 0
	}

	total, filled := 0, 0
	for _, row := range rows {
		for _, v := range row {
			total++
			if v != nil && v != "" {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return round(float64(filled) / float64(total) * 100)
}

// coverageScore weighs matched and close fields against the fixed schema
// size, clamped at 100. Overlapping matched and close entries can push the
// raw value past 100 before the clamp; that clamp-only behavior is part of
// the contract.
func coverageScore(cov Coverage) int {
	raw := (float64(len(cov.Matched))*matchedWeight + float64(len(cov.Close))*closeWeight) /
		float64(schema.Size) * 100
	return round(math.Min(raw, 100))
}

func rulesScore(findings []Finding) int {
	if len(findings) == 0 {
		return 0
	}
	passed := 0
	for _, f := range findings {
		if f.OK {
			passed++
		}
	}
	return round(float64(passed) / float64(len(findings)) * 100)
}

func postureScore(q *Questionnaire) int {
	if q == nil {
		return 0
	}
	yes := 0
	for _, answer := range []bool{q.Webhooks, q.SandboxEnv, q.Retries} {
		if answer {
			yes++
		}
	}
	return round(float64(yes) / postureQuestions * 100)
}

func overallScore(data, coverage, rules, posture int) int {
	return round(weightData*float64(data) +
		weightCoverage*float64(coverage) +
		weightRules*float64(rules) +
		weightPosture*float64(posture))
}

// ReadinessLabel buckets an overall score into the three-tier readiness
// classification.
func ReadinessLabel(overall int) string {
	switch {
	case overall >= 75:
		return "High"
	case overall >= 50:
		return "Medium"
	default:
		return "Low"
	}
}

func round(f float64) int {
	return int(math.Round(f))
}
