package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"order-allocation-service/internal/allocator"
	"order-allocation-service/internal/models"
	"order-allocation-service/internal/parsers"
	"order-allocation-service/internal/stock"
)

func buildResult() *allocator.AllocationResult {
	records := []*models.AllocationRecord{
		{
			CustomerID:        "11222333000144",
			ProductCode:       "100",
			QuantityRequested: decimal.NewFromInt(5),
			UnitPrice:         decimal.NewFromInt(20),
			FulfillingPool:    models.PoolQM,
			AvailableQuantity: decimal.NewFromInt(5),
			LineTotal:         decimal.NewFromInt(100),
			SourceFile:        "pedido.csv",
		},
		{
			CustomerID:        "11222333000144",
			ProductCode:       "200",
			QuantityRequested: decimal.NewFromInt(10),
			FulfillingPool:    models.PoolNone,
			LineTotal:         decimal.NewFromInt(230),
			SourceFile:        "pedido.csv",
		},
	}
	return &allocator.AllocationResult{
		RunID:       "run-1",
		Records:     records,
		Summary:     allocator.NewAllocationSummary(records),
		ProcessedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:    250 * time.Millisecond,
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(buildResult(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"ALLOCATION REPORT",
		"Run ID: run-1",
		"=== SUMMARY ===",
		"=== REVENUE BY POOL ===",
		"=== LINES WITHOUT STOCK ===",
		"100,00",
		"330,00",
		"200",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console report missing %q", want)
		}
	}

	// MF fulfilled nothing but its rollup line still appears, zero-filled.
	if !strings.Contains(out, "MF:") {
		t.Error("console report missing zero-filled MF rollup")
	}
}

func TestGenerateJSONReport(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{
		Format:             FormatJSON,
		IncludeUnfulfilled: true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(buildResult(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded["run_id"] != "run-1" {
		t.Errorf("run_id = %v, want run-1", decoded["run_id"])
	}
	if _, ok := decoded["summary"]; !ok {
		t.Error("JSON report missing summary")
	}
	if _, ok := decoded["unfulfilled"]; !ok {
		t.Error("JSON report missing unfulfilled lines")
	}
}

func TestGenerateCSVReport(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{
		Format:         FormatCSV,
		IncludeRecords: true,
		CSVDelimiter:   ';',
		CSVHeaders:     true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(buildResult(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 records", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Cnpj;Codigo;") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[2], "NO_STOCK") {
		t.Errorf("second record should be unfulfilled: %q", lines[2])
	}
}

func TestConsoleReportStockPreview(t *testing.T) {
	table := parsers.NewTable("estoque.csv",
		[]string{"PRODUTO", "QTDE", "GRUPO"},
		[][]string{{"100", "5", "QM"}})
	snapshot, err := stock.NewAggregator().Aggregate([]*parsers.Table{table})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	result := buildResult()
	result.StockSnapshot = snapshot

	generator, err := NewReportGenerator(&ReportConfig{
		Format:              FormatConsole,
		IncludeStockPreview: true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(result, &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "=== AGGREGATED STOCK ===") {
		t.Error("console report missing stock preview section")
	}
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := NewReportGenerator(&ReportConfig{Format: "xml"})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
