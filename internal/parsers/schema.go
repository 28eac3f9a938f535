package parsers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Semantic fields resolvable from table headers.
type Field string

const (
	FieldProduct   Field = "product"
	FieldQuantity  Field = "quantity"
	FieldPool      Field = "pool"
	FieldCustomer  Field = "customer"
	FieldUnitPrice Field = "unit_price"
	FieldTotal     Field = "total"
)

// Alias sets per semantic field. Matching is by substring containment over
// the accent-stripped, upper-cased header, so alias "TOTAL" matches a header
// "VALOR TOTAL NF". The over-matching is a compatibility requirement; a
// stricter matcher can replace ResolveColumn without touching callers.
var (
	ProductAliases   = []string{"PRODUTO", "CODIGO", "COD_PROD", "CODPROD"}
	QuantityAliases  = []string{"QTDE", "QUANTIDADE", "SALDO", "QTD"}
	PoolAliases      = []string{"LK-GRUPO", "GRUPO", "EMPRESA", "LKGRUPO"}
	CustomerAliases  = []string{"CNPJ", "CNPJ_CLIENTE", "CPF_CNPJ", "CLIENTE"}
	UnitPriceAliases = []string{"VALOR_UNITARIO", "VALOR", "PRECO", "VL_UNIT"}
	TotalAliases     = []string{"TOTAL", "VALOR_TOTAL", "VL_TOTAL"}
)

// AliasesFor returns the alias set for a semantic field.
func AliasesFor(field Field) []string {
	switch field {
	case FieldProduct:
		return ProductAliases
	case FieldQuantity:
		return QuantityAliases
	case FieldPool:
		return PoolAliases
	case FieldCustomer:
		return CustomerAliases
	case FieldUnitPrice:
		return UnitPriceAliases
	case FieldTotal:
		return TotalAliases
	default:
		return nil
	}
}

// accent-stripping transformer: decompose, drop combining marks, recompose
var headerFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader folds a header to its comparison form: accents decomposed
// to base ASCII letters, upper-cased, surrounding whitespace removed.
func NormalizeHeader(header string) string {
	folded, _, err := transform.String(headerFolder, header)
	if err != nil {
		folded = header
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}

// ResolveColumn returns the first original header whose normalized form
// contains any of the given aliases, and whether one was found.
func ResolveColumn(headers []string, aliases []string) (string, bool) {
	for _, header := range headers {
		normalized := NormalizeHeader(header)
		for _, alias := range aliases {
			if strings.Contains(normalized, alias) {
				return header, true
			}
		}
	}
	return "", false
}

// ResolveField resolves the column for a semantic field, by that field's
// fixed alias set.
func ResolveField(headers []string, field Field) (string, bool) {
	return ResolveColumn(headers, AliasesFor(field))
}
