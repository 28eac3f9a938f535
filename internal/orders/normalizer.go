// Package orders turns raw order tables into normalized order lines ready
// for allocation.
package orders

import (
	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
	"order-allocation-service/internal/parsers"
	apperrors "order-allocation-service/pkg/errors"
	"order-allocation-service/pkg/logger"
)

// Normalizer converts one order table at a time. Unlike stock, every order
// file must carry its own product and quantity columns; a file that does not
// is rejected so the caller can skip it and keep processing the rest.
type Normalizer struct {
	logger logger.Logger
}

// NewNormalizer creates an order normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		logger: logger.GetGlobalLogger().WithComponent("order_normalizer"),
	}
}

// Normalize extracts order lines from a table. sourceName tags every line
// with its originating file and doubles as the customer label when no
// customer column resolves.
//
// Monetary derivation prefers the total column: unit price is recovered as
// total divided by quantity (a zero quantity divides by one instead). With
// only a unit price column the total is quantity times unit. With neither,
// both stay zero. Lines with non-positive quantities are dropped.
func (n *Normalizer) Normalize(table *parsers.Table, sourceName string) ([]*models.OrderLine, error) {
	productCol, okProduct := parsers.ResolveField(table.Headers, parsers.FieldProduct)
	quantityCol, okQuantity := parsers.ResolveField(table.Headers, parsers.FieldQuantity)

	var missing []string
	if !okProduct {
		missing = append(missing, string(parsers.FieldProduct))
	}
	if !okQuantity {
		missing = append(missing, string(parsers.FieldQuantity))
	}
	if len(missing) > 0 {
		return nil, apperrors.SchemaError(sourceName, missing)
	}

	customerCol, hasCustomer := parsers.ResolveField(table.Headers, parsers.FieldCustomer)
	unitCol, hasUnit := parsers.ResolveField(table.Headers, parsers.FieldUnitPrice)
	totalCol, hasTotal := parsers.ResolveField(table.Headers, parsers.FieldTotal)

	// Numeric cells follow the source format: decimal-comma in CSV exports,
	// typed dot-decimal in XLSX.
	coerce := parsers.CoerceDecimal
	if table.DecimalComma() {
		coerce = parsers.CoerceDecimalBR
	}

	lines := make([]*models.OrderLine, 0, table.Len())
	dropped := 0
	for _, row := range table.Rows {
		code := models.NormalizeProductCode(table.Value(row, productCol))
		quantity := coerce(table.Value(row, quantityCol))
		if code == "" || !quantity.IsPositive() {
			dropped++
			continue
		}

		line := &models.OrderLine{
			ProductCode:       code,
			QuantityRequested: quantity,
			SourceFile:        sourceName,
		}

		// The customer is whatever digits the cell holds, even none; the
		// file name stands in only when no customer column resolves.
		line.CustomerID = sourceName
		if hasCustomer {
			line.CustomerID = models.DigitsOnly(table.Value(row, customerCol))
		}

		switch {
		case hasTotal:
			line.LineTotal = coerce(table.Value(row, totalCol))
			divisor := quantity
			if divisor.IsZero() {
				divisor = decimal.NewFromInt(1)
			}
			line.UnitPrice = line.LineTotal.Div(divisor)
		case hasUnit:
			line.UnitPrice = coerce(table.Value(row, unitCol))
			line.LineTotal = quantity.Mul(line.UnitPrice)
		}

		lines = append(lines, line)
	}

	n.logger.WithFields(logger.Fields{
		"source":       sourceName,
		"lines":        len(lines),
		"dropped_rows": dropped,
		"has_customer": hasCustomer,
		"has_unit":     hasUnit,
		"has_total":    hasTotal,
	}).Info("Normalized order table")

	return lines, nil
}
