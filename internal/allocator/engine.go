// Package allocator decides, line by line, which stock pool fulfills each
// order line and assembles the allocation run end to end.
package allocator

import (
	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
	"order-allocation-service/internal/stock"
)

// EngineConfig holds allocation behavior switches.
type EngineConfig struct {
	// DecrementOnAllocate makes each allocation consume quantity from a
	// working copy of the stock, so later lines see the remainder. Off by
	// default: every line is judged against the full opening snapshot.
	DecrementOnAllocate bool
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DecrementOnAllocate: false,
	}
}

// Engine assigns order lines to pools. Pools are tried in fixed priority
// order and the first one holding at least the requested quantity wins;
// partial coverage never fulfills a line.
type Engine struct {
	config    *EngineConfig
	snapshot  *stock.AggregatedStock
	remaining map[stock.Key]decimal.Decimal
}

// NewEngine creates an engine bound to an aggregated stock snapshot.
func NewEngine(config *EngineConfig, snapshot *stock.AggregatedStock) *Engine {
	if config == nil {
		config = DefaultEngineConfig()
	}
	e := &Engine{
		config:   config,
		snapshot: snapshot,
	}
	if config.DecrementOnAllocate {
		e.remaining = snapshot.Clone()
	}
	return e
}

func (e *Engine) available(productCode string, pool models.Pool) (decimal.Decimal, bool) {
	if e.remaining != nil {
		qty, ok := e.remaining[stock.Key{ProductCode: productCode, Pool: string(pool)}]
		return qty, ok
	}
	return e.snapshot.Quantity(productCode, string(pool))
}

// Allocate decides the fulfilling pool for one order line. Lines no pool can
// fully cover come back marked NO_STOCK with zero available quantity; the
// requested quantity and monetary values are carried through unchanged either
// way.
func (e *Engine) Allocate(line *models.OrderLine) *models.AllocationRecord {
	record := &models.AllocationRecord{
		CustomerID:        line.CustomerID,
		ProductCode:       line.ProductCode,
		QuantityRequested: line.QuantityRequested,
		UnitPrice:         line.UnitPrice,
		LineTotal:         line.LineTotal,
		SourceFile:        line.SourceFile,
		FulfillingPool:    models.PoolNone,
		AvailableQuantity: decimal.Zero,
	}

	for _, pool := range models.PriorityOrder {
		qty, ok := e.available(line.ProductCode, pool)
		if !ok || qty.LessThan(line.QuantityRequested) {
			continue
		}
		record.FulfillingPool = pool
		record.AvailableQuantity = qty
		if e.remaining != nil {
			key := stock.Key{ProductCode: line.ProductCode, Pool: string(pool)}
			e.remaining[key] = qty.Sub(line.QuantityRequested)
		}
		break
	}

	return record
}

// AllocateAll runs every line through the engine in input order. Input order
// matters only when DecrementOnAllocate is set.
func (e *Engine) AllocateAll(lines []*models.OrderLine) []*models.AllocationRecord {
	records := make([]*models.AllocationRecord, 0, len(lines))
	for _, line := range lines {
		records = append(records, e.Allocate(line))
	}
	return records
}
