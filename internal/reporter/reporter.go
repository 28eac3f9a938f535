// Package reporter renders allocation results for people and for downstream
// systems.
//
// Two surfaces live here: run reports (console, JSON or CSV summaries of an
// allocation run) and exports (per source-file, per-pool CSV partitions in
// the regional number format, optionally bundled into a zip archive).
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"order-allocation-service/internal/allocator"
	"order-allocation-service/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeRecords      bool `json:"include_records"`
	IncludeUnfulfilled  bool `json:"include_unfulfilled"`
	IncludeSkipped      bool `json:"include_skipped"`
	IncludeStockPreview bool `json:"include_stock_preview"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		IncludeRecords:      false,
		IncludeUnfulfilled:  true,
		IncludeSkipped:      true,
		IncludeStockPreview: false,
		CSVDelimiter:        ';',
		CSVHeaders:          true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates allocation run reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders an allocation result to the provided writer
func (rg *ReportGenerator) GenerateReport(result *allocator.AllocationResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("allocation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *allocator.AllocationResult, writer io.Writer) error {
	fmt.Fprintf(writer, "ALLOCATION REPORT\n")
	fmt.Fprintf(writer, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Processing Duration: %v\n\n", result.Duration)

	summary := result.Summary

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "%-25s %d\n", "Order Lines:", summary.TotalLines)
	fmt.Fprintf(writer, "%-25s %d (%.1f%%)\n", "Fulfilled:", summary.FulfilledLines,
		percentage(summary.FulfilledLines, summary.TotalLines))
	fmt.Fprintf(writer, "%-25s %d (%.1f%%)\n", "Without Stock:", summary.UnfulfilledLines,
		percentage(summary.UnfulfilledLines, summary.TotalLines))
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== REVENUE BY POOL ===\n")
	for _, pool := range models.PriorityOrder {
		fmt.Fprintf(writer, "%-25s %s\n", string(pool)+":",
			FormatBR(summary.RevenueByPool[string(pool)]))
	}
	fmt.Fprintf(writer, "%-25s %s\n", string(models.PoolNone)+":",
		FormatBR(summary.RevenueByPool[string(models.PoolNone)]))
	fmt.Fprintf(writer, "%-25s %s\n", "Fulfillable Total:", FormatBR(summary.FulfillableTotal))
	fmt.Fprintf(writer, "%-25s %s\n", "Grand Total:", FormatBR(summary.GrandTotal))
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeStockPreview && result.StockSnapshot != nil {
		fmt.Fprintf(writer, "=== AGGREGATED STOCK ===\n")
		fmt.Fprintf(writer, "%-15s %-10s %12s\n", "Product", "Pool", "Quantity")
		for _, entry := range result.StockSnapshot.Entries() {
			fmt.Fprintf(writer, "%-15s %-10s %12s\n",
				entry.ProductCode, entry.Pool, entry.Quantity.String())
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeSkipped && len(result.SkippedFiles) > 0 {
		fmt.Fprintf(writer, "=== SKIPPED ORDER FILES ===\n")
		for _, skipped := range result.SkippedFiles {
			fmt.Fprintf(writer, "%-30s %s\n", skipped.File, skipped.Reason)
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnfulfilled {
		unfulfilled := filterUnfulfilled(result.Records)
		if len(unfulfilled) > 0 {
			fmt.Fprintf(writer, "=== LINES WITHOUT STOCK ===\n")
			fmt.Fprintf(writer, "%-20s %-15s %12s %15s %s\n",
				"Customer", "Product", "Requested", "Value", "Source")
			for _, record := range unfulfilled {
				fmt.Fprintf(writer, "%-20s %-15s %12s %15s %s\n",
					record.CustomerID,
					record.ProductCode,
					record.QuantityRequested.String(),
					FormatBR(record.LineTotal),
					record.SourceFile)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeRecords {
		fmt.Fprintf(writer, "=== ALLOCATIONS ===\n")
		fmt.Fprintf(writer, "%-20s %-15s %12s %-10s %12s\n",
			"Customer", "Product", "Requested", "Pool", "Available")
		for _, record := range result.Records {
			fmt.Fprintf(writer, "%-20s %-15s %12s %-10s %12s\n",
				record.CustomerID,
				record.ProductCode,
				record.QuantityRequested.String(),
				string(record.FulfillingPool),
				record.AvailableQuantity.String())
		}
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(result *allocator.AllocationResult, writer io.Writer) error {
	output := map[string]interface{}{
		"run_id":       result.RunID,
		"processed_at": result.ProcessedAt.Format(time.RFC3339),
		"duration":     result.Duration.String(),
		"summary":      result.Summary,
	}
	if rg.config.IncludeSkipped && len(result.SkippedFiles) > 0 {
		output["skipped_files"] = result.SkippedFiles
	}
	if rg.config.IncludeStockPreview && result.StockSnapshot != nil {
		output["stock"] = result.StockSnapshot.Entries()
	}
	if rg.config.IncludeRecords {
		output["records"] = result.Records
	} else if rg.config.IncludeUnfulfilled {
		output["unfulfilled"] = filterUnfulfilled(result.Records)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func (rg *ReportGenerator) generateCSVReport(result *allocator.AllocationResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(exportHeader); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	records := result.Records
	if !rg.config.IncludeRecords && rg.config.IncludeUnfulfilled {
		records = filterUnfulfilled(records)
	}
	for _, record := range records {
		if err := csvWriter.Write(exportRow(record)); err != nil {
			return fmt.Errorf("failed to write allocation record: %w", err)
		}
	}

	return csvWriter.Error()
}

func filterUnfulfilled(records []*models.AllocationRecord) []*models.AllocationRecord {
	var out []*models.AllocationRecord
	for _, record := range records {
		if !record.IsFulfilled() {
			out = append(out, record)
		}
	}
	return out
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
