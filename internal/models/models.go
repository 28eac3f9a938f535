// Package models defines the record types flowing through an allocation run:
// normalized stock rows, normalized order lines and the per-line allocation
// outcome.
package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Pool identifies an inventory source that can fulfill an order line.
type Pool string

const (
	// PoolQM is the first-priority stock pool
	PoolQM Pool = "QM"
	// PoolMF is the second-priority stock pool
	PoolMF Pool = "MF"
	// PoolNone marks a line no pool could fulfill
	PoolNone Pool = "NO_STOCK"
)

// String returns the string representation of the pool
func (p Pool) String() string {
	return string(p)
}

// IsFulfilling reports whether the pool actually fulfills lines (NO_STOCK
// does not).
func (p Pool) IsFulfilling() bool {
	return p == PoolQM || p == PoolMF
}

// PriorityOrder is the fixed order in which pools are checked during
// allocation. QM strictly before MF; this is a priority rule, not best fit.
var PriorityOrder = []Pool{PoolQM, PoolMF}

// StockRecord is one normalized stock row. Records are derived from raw
// spreadsheet rows, never mutated, and discarded once aggregated.
type StockRecord struct {
	ProductCode string          `json:"product_code"`
	Pool        string          `json:"pool"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Validate performs basic validation on the StockRecord
func (s *StockRecord) Validate() error {
	if s.ProductCode == "" {
		return fmt.Errorf("stock record product code cannot be empty")
	}
	if s.Quantity.IsNegative() {
		return fmt.Errorf("stock record quantity cannot be negative")
	}
	return nil
}

// String returns a string representation of the StockRecord
func (s *StockRecord) String() string {
	return fmt.Sprintf("StockRecord{Product: %s, Pool: %s, Qty: %s}",
		s.ProductCode, s.Pool, s.Quantity.String())
}

// OrderLine is one normalized order row. Lines with a non-positive requested
// quantity are dropped during normalization and never reach allocation.
type OrderLine struct {
	CustomerID        string          `json:"customer_id"`
	ProductCode       string          `json:"product_code"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	SourceFile        string          `json:"source_file"`
}

// Validate performs basic validation on the OrderLine
func (l *OrderLine) Validate() error {
	if l.ProductCode == "" {
		return fmt.Errorf("order line product code cannot be empty")
	}
	if !l.QuantityRequested.IsPositive() {
		return fmt.Errorf("order line quantity must be positive, got %s", l.QuantityRequested)
	}
	if l.SourceFile == "" {
		return fmt.Errorf("order line source file cannot be empty")
	}
	return nil
}

// String returns a string representation of the OrderLine
func (l *OrderLine) String() string {
	return fmt.Sprintf("OrderLine{Customer: %s, Product: %s, Qty: %s, Total: %s, Source: %s}",
		l.CustomerID, l.ProductCode, l.QuantityRequested.String(),
		l.LineTotal.StringFixed(2), l.SourceFile)
}

// AllocationRecord is the outcome of allocating one order line. It is
// immutable once produced and is the unit of all downstream reporting and
// export grouping. LineTotal is carried verbatim from the order line even
// when the line is unfulfillable, for lost-sales reporting.
type AllocationRecord struct {
	CustomerID        string          `json:"customer_id"`
	ProductCode       string          `json:"product_code"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	FulfillingPool    Pool            `json:"fulfilling_pool"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	LineTotal         decimal.Decimal `json:"line_total"`
	SourceFile        string          `json:"source_file"`
}

// IsFulfilled reports whether a pool was found for the line
func (r *AllocationRecord) IsFulfilled() bool {
	return r.FulfillingPool.IsFulfilling()
}

// String returns a string representation of the AllocationRecord
func (r *AllocationRecord) String() string {
	return fmt.Sprintf("AllocationRecord{Product: %s, Qty: %s, Pool: %s, Available: %s}",
		r.ProductCode, r.QuantityRequested.String(), r.FulfillingPool,
		r.AvailableQuantity.String())
}

// Normalization helpers shared by the stock and order pipelines.

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeProductCode trims, upper-cases and strips leading zeros so that
// "007" and "7" collide on the same code. An all-zeros code normalizes to
// the empty string and is dropped by callers.
func NormalizeProductCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return strings.TrimLeft(code, "0")
}

// NormalizePool trims and upper-cases a pool label
func NormalizePool(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// DigitsOnly strips every non-digit character, used for CNPJ/CPF customer
// identifiers and phone numbers.
func DigitsOnly(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}
