package reporter

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestFormatBR(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0,00"},
		{"1", "1,00"},
		{"10.5", "10,50"},
		{"999.99", "999,99"},
		{"1000", "1.000,00"},
		{"15406.15", "15.406,15"},
		{"1234567.8", "1.234.567,80"},
		{"-1234.5", "-1.234,50"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatBR(dec(t, tt.input)); got != tt.want {
				t.Errorf("FormatBR(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatQuantityBR(t *testing.T) {
	if got := formatQuantityBR(dec(t, "5")); got != "5" {
		t.Errorf("formatQuantityBR(5) = %q, want 5", got)
	}
	if got := formatQuantityBR(dec(t, "1000.5")); got != "1000,5" {
		t.Errorf("formatQuantityBR(1000.5) = %q, want 1000,5", got)
	}
}

func record(file string, pool models.Pool, product string) *models.AllocationRecord {
	return &models.AllocationRecord{
		CustomerID:        "11222333000144",
		ProductCode:       product,
		QuantityRequested: decimal.NewFromInt(2),
		UnitPrice:         decimal.NewFromInt(10),
		FulfillingPool:    pool,
		AvailableQuantity: decimal.NewFromInt(5),
		LineTotal:         decimal.NewFromInt(20),
		SourceFile:        file,
	}
}

func TestPartitionRecords(t *testing.T) {
	records := []*models.AllocationRecord{
		record("pedido_a.csv", models.PoolQM, "1"),
		record("pedido_a.csv", models.PoolMF, "2"),
		record("pedido_b.csv", models.PoolQM, "3"),
		record("pedido_a.csv", models.PoolQM, "4"),
		record("pedido_b.csv", models.PoolNone, "5"),
	}

	partitions := PartitionRecords(records)
	if len(partitions) != 4 {
		t.Fatalf("got %d partitions, want 4", len(partitions))
	}

	names := make([]string, len(partitions))
	for i, p := range partitions {
		names[i] = p.Name()
	}
	want := []string{
		"pedido_a_MF.csv",
		"pedido_a_QM.csv",
		"pedido_b_NO_STOCK.csv",
		"pedido_b_QM.csv",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("partition %d = %s, want %s", i, names[i], want[i])
		}
	}

	// Records keep input order within a partition.
	for _, p := range partitions {
		if p.Name() == "pedido_a_QM.csv" {
			if len(p.Records) != 2 || p.Records[0].ProductCode != "1" || p.Records[1].ProductCode != "4" {
				t.Errorf("pedido_a_QM records out of order: %+v", p.Records)
			}
		}
	}
}

func TestPartitionNameStripsExtension(t *testing.T) {
	tests := []struct {
		file string
		pool models.Pool
		want string
	}{
		{"pedido.csv", models.PoolQM, "pedido_QM.csv"},
		{"pedido.xlsx", models.PoolMF, "pedido_MF.csv"},
		{"sem_extensao", models.PoolNone, "sem_extensao_NO_STOCK.csv"},
	}
	for _, tt := range tests {
		p := &Partition{SourceFile: tt.file, Pool: tt.pool}
		if got := p.Name(); got != tt.want {
			t.Errorf("Name(%s, %s) = %q, want %q", tt.file, tt.pool, got, tt.want)
		}
	}
}

func TestWriteExportCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteExportCSV(&buf, []*models.AllocationRecord{
		{
			CustomerID:        "11222333000144",
			ProductCode:       "123",
			QuantityRequested: dec(t, "2"),
			UnitPrice:         dec(t, "1500.5"),
			FulfillingPool:    models.PoolQM,
			AvailableQuantity: dec(t, "10"),
			LineTotal:         dec(t, "3001"),
			SourceFile:        "pedido.csv",
		},
	})
	if err != nil {
		t.Fatalf("WriteExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != strings.Join(exportHeader, ";") {
		t.Errorf("header = %q", lines[0])
	}
	want := "11222333000144;123;2;1.500,50;QM;10;3.001,00;pedido.csv"
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestWriteExportCSVKeepsUTF8(t *testing.T) {
	rec := record("pedido_ação.csv", models.PoolQM, "1")

	var buf bytes.Buffer
	if err := WriteExportCSV(&buf, []*models.AllocationRecord{rec}); err != nil {
		t.Fatalf("WriteExportCSV() error = %v", err)
	}

	if !utf8.Valid(buf.Bytes()) {
		t.Fatalf("output is not valid UTF-8: %q", buf.Bytes())
	}
	if !strings.Contains(buf.String(), ";pedido_ação.csv") {
		t.Errorf("output missing accented file name: %q", buf.String())
	}
}

func TestWriteArchive(t *testing.T) {
	partitions := PartitionRecords([]*models.AllocationRecord{
		record("pedido_a.csv", models.PoolQM, "1"),
		record("pedido_b.csv", models.PoolMF, "2"),
	})

	var buf bytes.Buffer
	if err := WriteArchive(&buf, partitions); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("got %d entries, want 2", len(reader.File))
	}
	if reader.File[0].Name != "pedido_a_QM.csv" || reader.File[1].Name != "pedido_b_MF.csv" {
		t.Errorf("entries = %s, %s", reader.File[0].Name, reader.File[1].Name)
	}

	entry, err := reader.File[0].Open()
	if err != nil {
		t.Fatalf("opening entry: %v", err)
	}
	defer entry.Close()
	var content bytes.Buffer
	if _, err := content.ReadFrom(entry); err != nil {
		t.Fatalf("reading entry: %v", err)
	}
	if !strings.Contains(content.String(), "11222333000144;1;") {
		t.Errorf("entry content = %q", content.String())
	}
}
