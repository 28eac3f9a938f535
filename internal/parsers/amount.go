// Package parsers provides the ingestion layer for loosely formatted
// spreadsheet exports: locale-aware numeric parsing, header resolution by
// alias matching, and a generic table loader for semicolon-delimited Latin-1
// CSV and XLSX files.
//
// The numeric parsing intentionally reproduces the heuristics of the tool
// this service replaces. ParseAmount resolves the ambiguous case where both
// ',' and '.' appear by treating whichever separator appears last as the
// decimal point; ParseAmountBR is the trusted-format path for sources known
// to use the Brazilian convention (decimal comma, thousands dot). The
// heuristic is best effort: "1.234" parses as 1234 even though a US-locale
// writer meant 1.234. Downstream compatibility depends on keeping it.
package parsers

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "order-allocation-service/pkg/errors"
)

// ParseAmount parses a free-form numeric string, resolving regional
// decimal/thousands separator ambiguity by the last-separator-wins rule:
//
//	"15.406,15" -> 15406.15  (comma last, Brazilian)
//	"15,406.15" -> 15406.15  (dot last, US)
//	"1234,56"   -> 1234.56
//	"1234.56"   -> 1234.56
//
// Empty input yields zero without error.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}

	hasComma := strings.Contains(text, ",")
	hasDot := strings.Contains(text, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(text, ",") > strings.LastIndex(text, ".") {
			// Brazilian: dot is thousands, comma is decimal
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			// US: comma is thousands
			text = strings.ReplaceAll(text, ",", "")
		}
	case hasComma:
		text = strings.ReplaceAll(text, ",", ".")
	default:
		// Only dot (or neither): nothing to transform
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, apperrors.ParseError(apperrors.CodeInvalidAmount, "amount", text, err)
	}
	return value, nil
}

// ParseAmountBR parses a value from a source already known to use the
// Brazilian convention: every dot is a thousands separator and the comma is
// the decimal point, regardless of ordering. This is the trusted-format path;
// no ambiguity resolution is applied.
func ParseAmountBR(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}

	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")

	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, apperrors.ParseError(apperrors.CodeInvalidAmount, "amount", text, err)
	}
	return value, nil
}

// CoerceDecimal parses a plain decimal-point numeric string, substituting
// zero for anything unparsable. Used for stock quantities, where row-level
// dirt must never abort a run.
func CoerceDecimal(text string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero
	}
	return value
}

// CoerceDecimalBR parses a Brazilian-convention numeric string, substituting
// zero for anything unparsable. Used for order quantities, which arrive from
// decimal-comma exports.
func CoerceDecimalBR(text string) decimal.Decimal {
	value, err := ParseAmountBR(text)
	if err != nil {
		return decimal.Zero
	}
	return value
}
