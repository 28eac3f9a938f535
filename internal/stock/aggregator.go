// Package stock builds the aggregated stock index an allocation run decides
// against: every stock table merged, normalized and collapsed to one summed
// quantity per (product, pool).
//
// The index is built once per run and read-only afterwards. It is never
// decremented as order lines are allocated; see the allocator package for
// the snapshot semantics.
package stock

import (
	"sort"

	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
	"order-allocation-service/internal/parsers"
	apperrors "order-allocation-service/pkg/errors"
	"order-allocation-service/pkg/logger"
)

// Key identifies one aggregated stock bucket.
type Key struct {
	ProductCode string
	Pool        string
}

// Entry is one aggregated stock position.
type Entry struct {
	ProductCode string          `json:"product_code"`
	Pool        string          `json:"pool"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AggregatedStock maps (product, pool) to the summed on-hand quantity. Once
// built it is treated as an immutable snapshot; sharing it read-only across
// goroutines is safe.
type AggregatedStock struct {
	quantities map[Key]decimal.Decimal
	products   map[string]bool
}

func newAggregatedStock() *AggregatedStock {
	return &AggregatedStock{
		quantities: make(map[Key]decimal.Decimal),
		products:   make(map[string]bool),
	}
}

func (as *AggregatedStock) add(record *models.StockRecord) {
	key := Key{ProductCode: record.ProductCode, Pool: record.Pool}
	as.quantities[key] = as.quantities[key].Add(record.Quantity)
	as.products[record.ProductCode] = true
}

// Quantity returns the aggregated quantity for a product in a pool and
// whether that bucket exists.
func (as *AggregatedStock) Quantity(productCode, pool string) (decimal.Decimal, bool) {
	qty, ok := as.quantities[Key{ProductCode: productCode, Pool: pool}]
	return qty, ok
}

// HasProduct reports whether any pool holds the product.
func (as *AggregatedStock) HasProduct(productCode string) bool {
	return as.products[productCode]
}

// Len returns the number of (product, pool) buckets.
func (as *AggregatedStock) Len() int {
	return len(as.quantities)
}

// Entries returns all buckets sorted by product code then pool, for
// deterministic previews and reports.
func (as *AggregatedStock) Entries() []Entry {
	entries := make([]Entry, 0, len(as.quantities))
	for key, qty := range as.quantities {
		entries = append(entries, Entry{ProductCode: key.ProductCode, Pool: key.Pool, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ProductCode != entries[j].ProductCode {
			return entries[i].ProductCode < entries[j].ProductCode
		}
		return entries[i].Pool < entries[j].Pool
	})
	return entries
}

// Clone returns a mutable deep copy of the quantity map, used by the
// decrement-on-allocate variant so the snapshot itself stays untouched.
func (as *AggregatedStock) Clone() map[Key]decimal.Decimal {
	copied := make(map[Key]decimal.Decimal, len(as.quantities))
	for key, qty := range as.quantities {
		copied[key] = qty
	}
	return copied
}

// resolvedColumns holds the per-table outcome of schema resolution.
type resolvedColumns struct {
	product  string
	quantity string
	pool     string
}

// Aggregator merges stock tables into an AggregatedStock.
type Aggregator struct {
	logger logger.Logger
}

// NewAggregator creates a stock aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		logger: logger.GetGlobalLogger().WithComponent("stock_aggregator"),
	}
}

// Aggregate normalizes every stock table and collapses the rows to
// (product, pool) sums.
//
// The required-column check runs across the union of all tables' resolved
// columns: the run fails only when a required field resolves in no table at
// all, matching the aggregate nature of stock. A single table missing the
// quantity column contributes zero quantities; one missing the pool column
// contributes an empty pool label; one missing the product column
// contributes no rows.
func (a *Aggregator) Aggregate(tables []*parsers.Table) (*AggregatedStock, error) {
	if len(tables) == 0 {
		return nil, apperrors.EmptyInputError("stock")
	}

	resolved := make([]resolvedColumns, len(tables))
	union := resolvedColumns{}
	for i, table := range tables {
		cols := resolvedColumns{}
		if col, ok := parsers.ResolveField(table.Headers, parsers.FieldProduct); ok {
			cols.product = col
			union.product = col
		}
		if col, ok := parsers.ResolveField(table.Headers, parsers.FieldQuantity); ok {
			cols.quantity = col
			union.quantity = col
		}
		if col, ok := parsers.ResolveField(table.Headers, parsers.FieldPool); ok {
			cols.pool = col
			union.pool = col
		}
		resolved[i] = cols
	}

	var missing []string
	if union.product == "" {
		missing = append(missing, string(parsers.FieldProduct))
	}
	if union.quantity == "" {
		missing = append(missing, string(parsers.FieldQuantity))
	}
	if union.pool == "" {
		missing = append(missing, string(parsers.FieldPool))
	}
	if len(missing) > 0 {
		return nil, apperrors.SchemaError("stock tables", missing)
	}

	aggregated := newAggregatedStock()
	dropped := 0
	total := 0
	for i, table := range tables {
		cols := resolved[i]
		for _, row := range table.Rows {
			total++
			code := models.NormalizeProductCode(table.Value(row, cols.product))
			if code == "" {
				dropped++
				continue
			}

			record := &models.StockRecord{
				ProductCode: code,
				Pool:        models.NormalizePool(table.Value(row, cols.pool)),
				Quantity:    parsers.CoerceDecimal(table.Value(row, cols.quantity)),
			}
			aggregated.add(record)
		}
	}

	// Stock on hand is non-negative; a bucket driven negative by dirty
	// source rows is floored at zero.
	for key, qty := range aggregated.quantities {
		if qty.IsNegative() {
			a.logger.WithFields(logger.Fields{
				"product": key.ProductCode,
				"pool":    key.Pool,
				"sum":     qty.String(),
			}).Warn("Negative aggregated quantity floored to zero")
			aggregated.quantities[key] = decimal.Zero
		}
	}

	a.logger.WithFields(logger.Fields{
		"tables":       len(tables),
		"rows":         total,
		"dropped_rows": dropped,
		"buckets":      aggregated.Len(),
	}).Info("Aggregated stock tables")

	return aggregated, nil
}
