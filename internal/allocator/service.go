package allocator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
	"order-allocation-service/internal/orders"
	"order-allocation-service/internal/parsers"
	"order-allocation-service/internal/stock"
	apperrors "order-allocation-service/pkg/errors"
	"order-allocation-service/pkg/logger"
)

// AllocationRequest describes one allocation run. A nil Engine config runs
// with the defaults.
type AllocationRequest struct {
	StockFiles   []string
	OrderFiles   []string
	Engine       *EngineConfig
	ShowProgress bool
}

// SkippedFile records an order file dropped from a run and why.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// AllocationSummary aggregates a run's outcome. Revenue rollups are keyed by
// pool and zero-filled, so a pool that fulfilled nothing still shows 0.
type AllocationSummary struct {
	TotalLines       int                        `json:"total_lines"`
	FulfilledLines   int                        `json:"fulfilled_lines"`
	UnfulfilledLines int                        `json:"unfulfilled_lines"`
	RevenueByPool    map[string]decimal.Decimal `json:"revenue_by_pool"`
	FulfillableTotal decimal.Decimal            `json:"fulfillable_total"`
	GrandTotal       decimal.Decimal            `json:"grand_total"`
}

// NewAllocationSummary computes the summary for a set of allocation records.
func NewAllocationSummary(records []*models.AllocationRecord) *AllocationSummary {
	summary := &AllocationSummary{
		RevenueByPool: map[string]decimal.Decimal{
			string(models.PoolQM):   decimal.Zero,
			string(models.PoolMF):   decimal.Zero,
			string(models.PoolNone): decimal.Zero,
		},
	}

	for _, record := range records {
		summary.TotalLines++
		pool := string(record.FulfillingPool)
		summary.RevenueByPool[pool] = summary.RevenueByPool[pool].Add(record.LineTotal)
		summary.GrandTotal = summary.GrandTotal.Add(record.LineTotal)
		if record.IsFulfilled() {
			summary.FulfilledLines++
			summary.FulfillableTotal = summary.FulfillableTotal.Add(record.LineTotal)
		} else {
			summary.UnfulfilledLines++
		}
	}

	return summary
}

// AllocationResult is the complete outcome of a run.
type AllocationResult struct {
	RunID         string                     `json:"run_id"`
	Records       []*models.AllocationRecord `json:"records"`
	Summary       *AllocationSummary         `json:"summary"`
	SkippedFiles  []SkippedFile              `json:"skipped_files,omitempty"`
	StockSnapshot *stock.AggregatedStock     `json:"-"`
	ProcessedAt   time.Time                  `json:"processed_at"`
	Duration      time.Duration              `json:"duration"`
}

// AllocationService wires loading, aggregation, normalization and the engine
// into one run.
type AllocationService struct {
	loader     *parsers.TableLoader
	aggregator *stock.Aggregator
	normalizer *orders.Normalizer
	logger     logger.Logger
}

// NewAllocationService creates the service. A nil loader gets the default
// semicolon/Latin-1 configuration.
func NewAllocationService(loader *parsers.TableLoader) *AllocationService {
	if loader == nil {
		loader = parsers.NewTableLoader(nil)
	}
	return &AllocationService{
		loader:     loader,
		aggregator: stock.NewAggregator(),
		normalizer: orders.NewNormalizer(),
		logger:     logger.GetGlobalLogger().WithComponent("allocation_service"),
	}
}

// ProcessAllocation executes a complete run: load and aggregate stock, then
// normalize and allocate each order file. An order file whose schema cannot
// be resolved is skipped with a warning rather than failing the run; stock
// problems are fatal because every order line depends on the snapshot.
func (s *AllocationService) ProcessAllocation(ctx context.Context, request *AllocationRequest) (*AllocationResult, error) {
	if request == nil || len(request.StockFiles) == 0 {
		return nil, apperrors.EmptyInputError("stock")
	}
	if len(request.OrderFiles) == 0 {
		return nil, apperrors.EmptyInputError("orders")
	}

	start := time.Now()
	runID := uuid.New().String()
	log := s.logger.WithField("run_id", runID)
	log.WithFields(logger.Fields{
		"stock_files": len(request.StockFiles),
		"order_files": len(request.OrderFiles),
	}).Info("Starting allocation run")

	stockTables, err := s.loader.LoadAll(request.StockFiles)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.aggregator.Aggregate(stockTables)
	if err != nil {
		return nil, err
	}

	engine := NewEngine(request.Engine, snapshot)

	var tracker *logger.ProgressTracker
	if request.ShowProgress {
		tracker = logger.NewProgressTracker("allocate_orders", int64(len(request.OrderFiles)), 0)
	}

	result := &AllocationResult{
		RunID:         runID,
		StockSnapshot: snapshot,
		ProcessedAt:   start,
	}

	for _, path := range request.OrderFiles {
		select {
		case <-ctx.Done():
			if tracker != nil {
				tracker.CompleteWithError(ctx.Err())
			}
			return nil, apperrors.Wrap(ctx.Err(), apperrors.CategoryInternal,
				apperrors.CodeProcessingError, "allocation run cancelled")
		default:
		}

		table, err := s.loader.Load(path)
		if err != nil {
			if tracker != nil {
				tracker.CompleteWithError(err)
			}
			return nil, err
		}

		lines, err := s.normalizer.Normalize(table, table.Name)
		if err != nil {
			if !apperrors.IsSchemaError(err) {
				if tracker != nil {
					tracker.CompleteWithError(err)
				}
				return nil, err
			}
			log.WithError(err).WithField("file_path", path).Warn("Skipping order file")
			result.SkippedFiles = append(result.SkippedFiles, SkippedFile{
				File:   table.Name,
				Reason: err.Error(),
			})
			if tracker != nil {
				tracker.Increment()
			}
			continue
		}

		result.Records = append(result.Records, engine.AllocateAll(lines)...)
		if tracker != nil {
			tracker.Increment()
		}
	}

	if tracker != nil {
		tracker.Complete()
	}

	result.Summary = NewAllocationSummary(result.Records)
	result.Duration = time.Since(start)

	log.WithFields(logger.Fields{
		"lines":         result.Summary.TotalLines,
		"fulfilled":     result.Summary.FulfilledLines,
		"unfulfilled":   result.Summary.UnfulfilledLines,
		"skipped_files": len(result.SkippedFiles),
		"duration":      result.Duration.String(),
	}).Info("Allocation run completed")

	return result, nil
}
