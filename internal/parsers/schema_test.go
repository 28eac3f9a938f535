package parsers

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Código", "CODIGO"},
		{"  produto ", "PRODUTO"},
		{"Descrição do Item", "DESCRICAO DO ITEM"},
		{"LK-GRUPO", "LK-GRUPO"},
		{"Preço Unitário", "PRECO UNITARIO"},
		{"plain", "PLAIN"},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.input); got != tt.expected {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		aliases  []string
		expected string
		found    bool
	}{
		{
			name:     "exact match",
			headers:  []string{"Produto", "Qtde", "LK-GRUPO"},
			aliases:  ProductAliases,
			expected: "Produto",
			found:    true,
		},
		{
			name:     "accented header resolves",
			headers:  []string{"Código do Produto", "Saldo"},
			aliases:  ProductAliases,
			expected: "Código do Produto",
			found:    true,
		},
		{
			name:     "substring containment",
			headers:  []string{"VALOR TOTAL NF"},
			aliases:  TotalAliases,
			expected: "VALOR TOTAL NF",
			found:    true,
		},
		{
			name:     "first matching header wins",
			headers:  []string{"CODPROD", "PRODUTO"},
			aliases:  ProductAliases,
			expected: "CODPROD",
			found:    true,
		},
		{
			name:    "no match",
			headers: []string{"Descrição", "Observação"},
			aliases: QuantityAliases,
			found:   false,
		},
		{
			name:     "case insensitive",
			headers:  []string{"quantidade"},
			aliases:  QuantityAliases,
			expected: "quantidade",
			found:    true,
		},
		{
			name:     "pool aliases",
			headers:  []string{"Filial", "Empresa"},
			aliases:  PoolAliases,
			expected: "Empresa",
			found:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ResolveColumn(tt.headers, tt.aliases)
			if found != tt.found {
				t.Fatalf("ResolveColumn found = %v, want %v", found, tt.found)
			}
			if got != tt.expected {
				t.Errorf("ResolveColumn = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestResolveField(t *testing.T) {
	headers := []string{"CNPJ_CLIENTE", "Código", "Quantidade", "Valor_Unitario", "Total"}

	cases := []struct {
		field    Field
		expected string
	}{
		{FieldCustomer, "CNPJ_CLIENTE"},
		{FieldProduct, "Código"},
		{FieldQuantity, "Quantidade"},
		{FieldUnitPrice, "Valor_Unitario"},
		{FieldTotal, "Total"},
	}

	for _, tc := range cases {
		got, found := ResolveField(headers, tc.field)
		if !found {
			t.Errorf("expected field %s to resolve", tc.field)
			continue
		}
		if got != tc.expected {
			t.Errorf("ResolveField(%s) = %q, want %q", tc.field, got, tc.expected)
		}
	}

	if _, found := ResolveField(headers, FieldPool); found {
		t.Error("pool field must not resolve from order headers")
	}
}
