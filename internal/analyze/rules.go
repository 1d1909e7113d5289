// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"math"
	"strings"
)

// RuleID identifies one of the five fixed consistency rules.
type RuleID string

const (
	RuleTotalsBalance   RuleID = "TOTALS_BALANCE"
	RuleLineMath        RuleID = "LINE_MATH"
	RuleDateISO         RuleID = "DATE_ISO"
	RuleCurrencyAllowed RuleID = "CURRENCY_ALLOWED"
	RuleTRNPresent      RuleID = "TRN_PRESENT"
)

// arithmeticTolerance is the maximum absolute difference allowed by the
// balance and line-math rules.
const arithmeticTolerance = 0.01

// allowedCurrencies are the currency codes accepted by CURRENCY_ALLOWED,
// compared case-insensitively.
var allowedCurrencies = map[string]bool{
	"AED": true,
	"SAR": true,
	"MYR": true,
	"USD": true,
}

// Finding is the outcome of one rule over the whole row set. Diagnostic
// fields are populated only on failure, and only those applicable to the
// rule; row references are 1-based.
type Finding struct {
	Rule RuleID `json:"rule"`
	OK   bool   `json:"ok"`

	Expected     *float64 `json:"expected,omitempty"`
	Got          *float64 `json:"got,omitempty"`
	ExampleRow   int      `json:"exampleRow,omitempty"`
	ExampleLine  int      `json:"exampleLine,omitempty"`
	Value        any      `json:"value,omitempty"`
	MissingCount int      `json:"missingCount,omitempty"`
}

// RunAllRules evaluates the five consistency rules in their fixed order.
// Every rule runs over the full row set; rows missing a mapped field for a
// rule are excluded from that rule's tally rather than counted as failures.
func RunAllRules(rows []Row, mapping Mapping) []Finding {
	inv := mapping.invert()
	return []Finding{
		checkTotalsBalance(rows, inv),
		checkLineMath(rows, inv),
		checkDateISO(rows, inv),
		checkCurrencyAllowed(rows, inv),
		checkTRNPresent(rows, inv),
	}
}

// fieldValue resolves a row's value for a target field through the inverted
// mapping. The second return is false when no source column maps to the
// target or the row lacks that column.
func fieldValue(row Row, inv map[string]string, target string) (any, bool) {
	source, ok := inv[target]
	if !ok {
		return nil, false
	}
	v, ok := row[source]
	return v, ok
}

// checkTotalsBalance verifies total_excl_vat + vat_amount = total_incl_vat
// within tolerance, over rows where all three fields are present. It passes
// only when at least one row was checked and none failed.
func checkTotalsBalance(rows []Row, inv map[string]string) Finding {
	f := Finding{Rule: RuleTotalsBalance}
	checked, failed := 0, 0

	for i, row := range rows {
		excl, okExcl := fieldValue(row, inv, "invoice.total_excl_vat")
		vat, okVAT := fieldValue(row, inv, "invoice.vat_amount")
		incl, okIncl := fieldValue(row, inv, "invoice.total_incl_vat")
		if !okExcl || !okVAT || !okIncl {
			continue
		}

		expected := toNumber(excl) + toNumber(vat)
		got := toNumber(incl)
		if math.Abs(expected-got) <= arithmeticTolerance {
			checked++
			continue
		}

		failed++
		if f.ExampleRow == 0 {
			f.Expected = &expected
			f.Got = &got
			f.ExampleRow = i + 1
		}
	}

	f.OK = failed == 0 && checked > 0
	return f
}

// checkLineMath verifies qty * unit_price = line_total within tolerance,
// with the same pass semantics as checkTotalsBalance.
func checkLineMath(rows []Row, inv map[string]string) Finding {
	f := Finding{Rule: RuleLineMath}
	checked, failed := 0, 0

	for i, row := range rows {
		qty, okQty := fieldValue(row, inv, "lines.qty")
		price, okPrice := fieldValue(row, inv, "lines.unit_price")
		total, okTotal := fieldValue(row, inv, "lines.line_total")
		if !okQty || !okPrice || !okTotal {
			continue
		}

		expected := toNumber(qty) * toNumber(price)
		got := toNumber(total)
		if math.Abs(expected-got) <= arithmeticTolerance {
			checked++
			continue
		}

		failed++
		if f.ExampleLine == 0 {
			f.Expected = &expected
			f.Got = &got
			f.ExampleLine = i + 1
		}
	}

	f.OK = failed == 0 && checked > 0
	return f
}

// checkDateISO requires every present issue_date value to be of the form
// YYYY-MM-DD. Vacuously true when the field is never present.
func checkDateISO(rows []Row, inv map[string]string) Finding {
	f := Finding{Rule: RuleDateISO, OK: true}

	for i, row := range rows {
		v, ok := fieldValue(row, inv, "invoice.issue_date")
		if !ok || !truthy(v) {
			continue
		}
		if isoDateRe.MatchString(valueString(v)) {
			continue
		}
		if f.OK {
			f.OK = false
			f.Value = v
			f.ExampleRow = i + 1
		}
	}

	return f
}

// checkCurrencyAllowed requires every present currency value to be one of
// the allowed codes, case-insensitively. Vacuously true when the field is
// never present.
func checkCurrencyAllowed(rows []Row, inv map[string]string) Finding {
	f := Finding{Rule: RuleCurrencyAllowed, OK: true}

	for i, row := range rows {
		v, ok := fieldValue(row, inv, "invoice.currency")
		if !ok || !truthy(v) {
			continue
		}
		if allowedCurrencies[strings.ToUpper(valueString(v))] {
			continue
		}
		if f.OK {
			f.OK = false
			f.Value = v
			f.ExampleRow = i + 1
		}
	}

	return f
}

// checkTRNPresent requires both buyer.trn and seller.trn to be present and
// non-blank on every row. The diagnostic carries the violating row count
// rather than an example row.
func checkTRNPresent(rows []Row, inv map[string]string) Finding {
	missing := 0

	for _, row := range rows {
		buyer, okBuyer := fieldValue(row, inv, "buyer.trn")
		seller, okSeller := fieldValue(row, inv, "seller.trn")

		if !okBuyer || !okSeller || !truthy(buyer) || !truthy(seller) ||
			strings.TrimSpace(valueString(buyer)) == "" ||
			strings.TrimSpace(valueString(seller)) == "" {
			missing++
		}
	}

	return Finding{
		Rule:         RuleTRNPresent,
		OK:           missing == 0,
		MissingCount: missing,
	}
}
