package reporter

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
)

// exportHeader matches the column layout consumed by the downstream billing
// spreadsheet.
var exportHeader = []string{
	"Cnpj",
	"Codigo",
	"Quantidade_Pedido",
	"Valor_Unitario",
	"Empresa_Atendimento",
	"Qtde_Disponivel",
	"Valor_Item",
	"Arquivo_Pedido",
}

// FormatBR renders a monetary amount with '.' thousands separators and a ','
// decimal mark, always with two decimal places.
func FormatBR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	integer, fraction := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	out := grouped.String() + "," + fraction
	if negative {
		out = "-" + out
	}
	return out
}

// formatQuantityBR renders a quantity with a ',' decimal mark and no
// grouping. Integral quantities stay bare.
func formatQuantityBR(quantity decimal.Decimal) string {
	return strings.Replace(quantity.String(), ".", ",", 1)
}

func exportRow(record *models.AllocationRecord) []string {
	return []string{
		record.CustomerID,
		record.ProductCode,
		formatQuantityBR(record.QuantityRequested),
		FormatBR(record.UnitPrice),
		string(record.FulfillingPool),
		formatQuantityBR(record.AvailableQuantity),
		FormatBR(record.LineTotal),
		record.SourceFile,
	}
}

// Partition is one export file: the allocation records of a single source
// order file fulfilled by a single pool.
type Partition struct {
	SourceFile string
	Pool       models.Pool
	Records    []*models.AllocationRecord
}

// Name returns the export file name: the source file without its extension,
// suffixed with the pool label.
func (p *Partition) Name() string {
	base := strings.TrimSuffix(p.SourceFile, filepath.Ext(p.SourceFile))
	return fmt.Sprintf("%s_%s.csv", base, string(p.Pool))
}

// PartitionRecords splits allocation records by (source file, fulfilling
// pool), preserving the input order of records within each partition.
// Partitions come back sorted by source file then pool.
func PartitionRecords(records []*models.AllocationRecord) []*Partition {
	type key struct {
		file string
		pool models.Pool
	}
	byKey := make(map[key]*Partition)
	for _, record := range records {
		k := key{file: record.SourceFile, pool: record.FulfillingPool}
		partition, ok := byKey[k]
		if !ok {
			partition = &Partition{SourceFile: record.SourceFile, Pool: record.FulfillingPool}
			byKey[k] = partition
		}
		partition.Records = append(partition.Records, record)
	}

	partitions := make([]*Partition, 0, len(byKey))
	for _, partition := range byKey {
		partitions = append(partitions, partition)
	}
	sort.Slice(partitions, func(i, j int) bool {
		if partitions[i].SourceFile != partitions[j].SourceFile {
			return partitions[i].SourceFile < partitions[j].SourceFile
		}
		return partitions[i].Pool < partitions[j].Pool
	})
	return partitions
}

// WriteExportCSV writes one partition in the downstream format: semicolon
// delimited, UTF-8, comma decimals.
func WriteExportCSV(writer io.Writer, records []*models.AllocationRecord) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = ';'

	if err := csvWriter.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write export headers: %w", err)
	}
	for _, record := range records {
		if err := csvWriter.Write(exportRow(record)); err != nil {
			return fmt.Errorf("failed to write export record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteArchive bundles every partition into a zip archive, one CSV per
// (source file, pool) pair.
func WriteArchive(writer io.Writer, partitions []*Partition) error {
	archive := zip.NewWriter(writer)

	for _, partition := range partitions {
		entry, err := archive.Create(partition.Name())
		if err != nil {
			return fmt.Errorf("failed to create archive entry %s: %w", partition.Name(), err)
		}
		if err := WriteExportCSV(entry, partition.Records); err != nil {
			return fmt.Errorf("failed to write archive entry %s: %w", partition.Name(), err)
		}
	}

	return archive.Close()
}
