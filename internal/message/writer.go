package message

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"order-allocation-service/internal/models"
	"order-allocation-service/internal/reporter"
)

var csvHeader = []string{"Cnpj", "Codigo", "Produto", "Quantidade", "Valor_Unitario", "Total"}

// formatTaxID wraps the digits in a spreadsheet text guard so leading zeros
// and long numbers survive opening the file in Excel.
func formatTaxID(taxID string) string {
	return fmt.Sprintf(`="%s"`, models.DigitsOnly(taxID))
}

// formatCode left-pads the product code with zeros to seven digits. The
// trailing space keeps spreadsheets from re-interpreting it as a number.
func formatCode(code string) string {
	if len(code) < 7 {
		code = strings.Repeat("0", 7-len(code)) + code
	}
	return code + " "
}

// WriteOrderCSV writes the converted order in the layout the allocation
// pipeline ingests: semicolon delimited, one row per item, monetary values
// in the regional comma-decimal format.
func WriteOrderCSV(writer io.Writer, order *Order) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = ';'

	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	taxID := formatTaxID(order.Customer.TaxID)
	for _, item := range order.Items {
		row := []string{
			taxID,
			formatCode(item.Code),
			item.Description,
			item.Quantity.String(),
			reporter.FormatBR(item.UnitPrice),
			reporter.FormatBR(item.Total),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write item row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
