// Package message converts pasted order messages into structured orders and
// the semicolon-delimited CSV the allocation pipeline ingests.
//
// The expected message layout is the one produced by the ordering chatbot: a
// customer block of labeled lines, an item block bracketed by the
// "ITENS DO PEDIDO" and "TOTAL DO PEDIDO" markers, and a grand total line.
package message

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"order-allocation-service/internal/models"
	"order-allocation-service/internal/parsers"
	apperrors "order-allocation-service/pkg/errors"
)

// LineItem is one product entry extracted from the item block.
type LineItem struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Customer holds the labeled fields of the customer block. Fields absent
// from the message stay empty.
type Customer struct {
	Name              string `json:"name"`
	TaxID             string `json:"tax_id"`
	StateRegistration string `json:"state_registration"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Address           string `json:"address"`
}

// Order is a fully parsed order message.
type Order struct {
	Customer   Customer        `json:"customer"`
	Items      []LineItem      `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

var (
	itemBlockPattern = regexp.MustCompile(`(?s)📦\s*\*ITENS DO PEDIDO\*(.*?)💰\s*\*TOTAL DO PEDIDO`)
	itemPattern      = regexp.MustCompile(`\*\s*(.*?)\s*\*\s*\n` +
		`Cód:\s*(\d+)\s*\n` +
		`(\d+)\s*x\s*R\$\s*([\d,.]+)\s*=\s*\*R\$\s*([\d,.]+)\*`)
	grandTotalPattern = regexp.MustCompile(`TOTAL DO PEDIDO:\s*R\$\s*([\d,.]+)`)

	customerPatterns = []struct {
		assign  func(*Customer, string)
		pattern *regexp.Regexp
	}{
		{func(c *Customer, v string) { c.Name = v }, regexp.MustCompile(`Razão Social:\s*(.*)`)},
		{func(c *Customer, v string) { c.TaxID = v }, regexp.MustCompile(`CNPJ:\s*([\d./-]+)`)},
		{func(c *Customer, v string) { c.StateRegistration = v }, regexp.MustCompile(`IE:\s*(.*)`)},
		{func(c *Customer, v string) { c.Phone = v }, regexp.MustCompile(`Telefone:\s*([\d()+\s-]+)`)},
		{func(c *Customer, v string) { c.Email = v }, regexp.MustCompile(`E-mail:\s*(.*)`)},
		{func(c *Customer, v string) { c.Address = v }, regexp.MustCompile(`Endereço:\s*(.*)`)},
	}
)

// ParseOrderMessage extracts the customer, the item list and the grand total
// from a pasted order message. A message without a recognizable item block
// is rejected.
func ParseOrderMessage(text string) (*Order, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.EmptyInputError("order message")
	}

	order := &Order{}
	for _, field := range customerPatterns {
		if match := field.pattern.FindStringSubmatch(text); match != nil {
			field.assign(&order.Customer, strings.TrimSpace(match[1]))
		}
	}

	block := itemBlockPattern.FindStringSubmatch(text)
	if block == nil {
		return nil, apperrors.New(apperrors.CategoryParse, apperrors.CodeInvalidData,
			"message contains no item block").
			WithSuggestion("paste the full order message, including the item and total markers")
	}

	for _, match := range itemPattern.FindAllStringSubmatch(block[1], -1) {
		description, code, qty := match[1], match[2], match[3]

		quantity, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, apperrors.ParseError(apperrors.CodeInvalidAmount, "quantity", qty, err)
		}
		unit, err := parsers.ParseAmount(match[4])
		if err != nil {
			return nil, apperrors.ParseError(apperrors.CodeInvalidAmount, "unit_price", match[4], err)
		}
		total, err := parsers.ParseAmount(match[5])
		if err != nil {
			return nil, apperrors.ParseError(apperrors.CodeInvalidAmount, "total", match[5], err)
		}

		order.Items = append(order.Items, LineItem{
			Code:        strings.TrimSpace(code),
			Description: strings.TrimSpace(description),
			Quantity:    quantity,
			UnitPrice:   unit,
			Total:       total,
		})
	}

	if len(order.Items) == 0 {
		return nil, apperrors.New(apperrors.CategoryParse, apperrors.CodeInvalidData,
			"item block contains no parseable items")
	}

	if match := grandTotalPattern.FindStringSubmatch(text); match != nil {
		if total, err := parsers.ParseAmount(match[1]); err == nil {
			order.GrandTotal = total
		}
	}

	return order, nil
}

// FileName returns the conventional name for the converted CSV: the
// customer's tax ID and phone, digits only, joined by an underscore.
func (o *Order) FileName() string {
	return models.DigitsOnly(o.Customer.TaxID) + "_" + models.DigitsOnly(o.Customer.Phone) + ".csv"
}
