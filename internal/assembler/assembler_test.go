package assembler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractinvoice/internal/assembler"
	"contractinvoice/internal/domain"
	"contractinvoice/internal/prompt"
)

var wellFormed = map[domain.Category]string{
	domain.CategoryInvoiceInformation: `{
		"invoice_number": "INV-2024-001",
		"invoice_date": "2024-03-01",
		"due_date": "2024-03-31",
		"bill_to": {
			"client_name": "Acme Ltd",
			"company_name": "Acme Ltd",
			"address": "1 Main St, Bucharest",
			"contact_information": {"email": "billing@acme.test", "phone": "+40 700 000 000"},
			"banking_information": {"bank_name": "First Bank", "account_name": "Acme Ltd", "iban": "RO49AAAA1B31007593840000", "swift_bic": "AAAAROBU"}
		},
		"bill_from": {
			"provider_name": "Jane Doe",
			"company_name": "Doe Consulting SRL",
			"address": "2 Side St, Cluj",
			"contact_information": {"email": "jane@doe.test", "phone": "+40 711 111 111"},
			"banking_information": {"bank_name": "Second Bank", "account_name": "Doe Consulting SRL", "iban": "RO09BBBB1B31007593840001", "swift_bic": "BBBBROBU"}
		},
		"payment_terms": "Net 30"
	}`,
	domain.CategoryServiceDetails: `{"service_details": [
		{"description": "Monthly maintenance", "unit_of_measure": "month", "quantity": 1, "rate_per_unit": 500, "total_amount": 500},
		{"description": "On-site support", "unit_of_measure": "days", "quantity": 2, "rate_per_unit": 120.5, "total_amount": 241.00}
	]}`,
	domain.CategoryCalculationDetails: `{"calculation_details": {
		"subtotal": 500,
		"taxes": {"tax_rate": "19%", "tax_amount": 95},
		"total_amount_due": 595,
		"currency": "EUR",
		"exchange_rate": {"rate": 4.97, "from_currency": "EUR", "to_currency": "RON"}
	}}`,
	domain.CategoryPaymentInstructions: `{"payment_instructions": {
		"bank_name": "Second Bank",
		"account_name": "Doe Consulting SRL",
		"iban": "RO09BBBB1B31007593840001",
		"swift_bic": "BBBBROBU",
		"payment_due_date": "2024-03-31",
		"late_payment_penalties": "0.1% per day"
	}}`,
	domain.CategorySpecialConditions: `{"special_conditions": {
		"pro_rata_billing": "First month billed pro rata",
		"early_payment_discounts": "2% within 10 days",
		"late_payment_penalties": "0.1% per day",
		"contract_references": "Annex 1 <SLA> & Annex 2"
	}}`,
	domain.CategoryCustomerInformation: `{"customer_information": {
		"customer_name": "Acme Ltd",
		"customer_address": "1 Main St, Bucharest",
		"customer_contact": {"phone": "+40 700 000 000", "email": "billing@acme.test"},
		"vat_or_tax_id": "RO1234567"
	}}`,
	domain.CategoryAdditionalInformation: `{"additional_information": {
		"category_name": "Termination",
		"details": "30 days written notice",
		"relevance": "Limits the number of remaining invoices",
		"notice_period_days": 30
	}}`,
}

func extractionResult(fragments map[domain.Category]string) *domain.ExtractionResult {
	res := &domain.ExtractionResult{Primary: "PRIMARY", Fragments: map[domain.Category]domain.Fragment{}}
	for cat, text := range fragments {
		res.Fragments[cat] = domain.Fragment{Category: cat, Text: text}
	}
	return res
}

func newAssembler(t *testing.T) *assembler.Assembler {
	t.Helper()
	a, err := assembler.New(nil, nil, nil)
	require.NoError(t, err)
	return a
}

func decodeNumbers(t *testing.T, b []byte) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

// assertSupplied checks that every value in want is present and equal in got.
func assertSupplied(t *testing.T, want, got any, path string) {
	t.Helper()
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		require.True(t, ok, "%s: expected object, got %T", path, got)
		for k, v := range w {
			require.Contains(t, g, k, path)
			assertSupplied(t, v, g[k], path+"."+k)
		}
	case []any:
		g, ok := got.([]any)
		require.True(t, ok, "%s: expected array, got %T", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			assertSupplied(t, w[i], g[i], path)
		}
	case json.Number:
		g, ok := got.(json.Number)
		require.True(t, ok, "%s: expected number, got %T", path, got)
		wf, _ := w.Float64()
		gf, _ := g.Float64()
		assert.Equal(t, wf, gf, path)
	default:
		assert.Equal(t, want, got, path)
	}
}

// assertDocumented checks that every documented key exists, at any depth.
func assertDocumented(t *testing.T, fields []prompt.FieldSpec, obj map[string]any, path string) {
	t.Helper()
	for _, f := range fields {
		v, ok := obj[f.Key]
		require.True(t, ok, "%s.%s missing", path, f.Key)
		switch {
		case f.List:
			items, ok := v.([]any)
			require.True(t, ok, "%s.%s: expected array", path, f.Key)
			for _, item := range items {
				assertDocumented(t, f.Children, item.(map[string]any), path+"."+f.Key+"[]")
			}
		case f.IsObject():
			m, ok := v.(map[string]any)
			require.True(t, ok, "%s.%s: expected object", path, f.Key)
			assertDocumented(t, f.Children, m, path+"."+f.Key)
		default:
			assert.NotNil(t, v, "%s.%s", path, f.Key)
		}
	}
}

func TestParseFragment_EmptyObjectHasEveryDocumentedKey(t *testing.T) {
	a := newAssembler(t)
	for _, cat := range domain.AllCategories() {
		t.Run(string(cat), func(t *testing.T) {
			p, err := prompt.Default().Secondary(cat)
			require.NoError(t, err)

			obj, err := a.ParseFragment(cat, `{}`)
			require.NoError(t, err)
			require.Contains(t, obj, string(cat))

			if p.Section.List {
				assert.Equal(t, []any{}, obj[string(cat)])
				return
			}
			section := obj[string(cat)].(map[string]any)
			assertDocumented(t, p.Section.Children, section, string(cat))
			for _, f := range p.Section.Children {
				if !f.IsObject() {
					assert.Equal(t, domain.NotAvailable, section[f.Key], f.Key)
				}
			}
		})
	}
}

func TestParseFragment_WellFormedKeepsValuesAndFillsRest(t *testing.T) {
	a := newAssembler(t)
	for _, cat := range domain.AllCategories() {
		t.Run(string(cat), func(t *testing.T) {
			p, err := prompt.Default().Secondary(cat)
			require.NoError(t, err)

			obj, err := a.ParseFragment(cat, wellFormed[cat])
			require.NoError(t, err)

			supplied := decodeNumbers(t, []byte(wellFormed[cat])).(map[string]any)
			if p.Wrapped {
				assertSupplied(t, supplied[string(cat)], obj[string(cat)], string(cat))
			} else {
				assertSupplied(t, supplied, obj[string(cat)], string(cat))
			}
			if section, ok := obj[string(cat)].(map[string]any); ok {
				assertDocumented(t, p.Section.Children, section, string(cat))
			}
		})
	}
}

func TestParseFragment_PartialNestedObjects(t *testing.T) {
	a := newAssembler(t)
	obj, err := a.ParseFragment(domain.CategoryInvoiceInformation, `{
		"invoice_number": "F-7",
		"bill_to": {"client_name": "Acme", "contact_information": "n/a", "banking_information": {"iban": "RO49"}},
		"bill_from": null
	}`)
	require.NoError(t, err)

	section := obj["invoice_information"].(map[string]any)
	assert.Equal(t, "F-7", section["invoice_number"])
	assert.Equal(t, domain.NotAvailable, section["due_date"])

	billTo := section["bill_to"].(map[string]any)
	assert.Equal(t, "Acme", billTo["client_name"])
	assert.Equal(t, "n/a", billTo["contact_information"])
	banking := billTo["banking_information"].(map[string]any)
	assert.Equal(t, "RO49", banking["iban"])
	assert.Equal(t, domain.NotAvailable, banking["bank_name"])

	billFrom := section["bill_from"].(map[string]any)
	assert.Equal(t, domain.NotAvailable, billFrom["provider_name"])
	assert.Equal(t, domain.NotAvailable, billFrom["banking_information"].(map[string]any)["swift_bic"])
}

func TestParseFragment_UnwrapTolerance(t *testing.T) {
	a := newAssembler(t)

	// wrapped when it should not be
	obj, err := a.ParseFragment(domain.CategoryInvoiceInformation, `{"invoice_information": {"invoice_number": "X-1"}}`)
	require.NoError(t, err)
	assert.Equal(t, "X-1", obj["invoice_information"].(map[string]any)["invoice_number"])

	// not wrapped when it should be
	obj, err = a.ParseFragment(domain.CategoryCalculationDetails, `{"total_amount_due": 500, "currency": "EUR"}`)
	require.NoError(t, err)
	calc := obj["calculation_details"].(map[string]any)
	assert.Equal(t, json.Number("500"), calc["total_amount_due"])

	// a single line item
	obj, err = a.ParseFragment(domain.CategoryServiceDetails, `{"description": "Hosting", "total_amount": 10}`)
	require.NoError(t, err)
	lines := obj["service_details"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "Hosting", lines[0].(map[string]any)["description"])
	assert.Equal(t, domain.NotAvailable, lines[0].(map[string]any)["quantity"])

	// service_details that is not a list
	obj, err = a.ParseFragment(domain.CategoryServiceDetails, `{"service_details": "none"}`)
	require.NoError(t, err)
	assert.Equal(t, []any{}, obj["service_details"])
}

func TestParseFragment_CleansBeforeParsing(t *testing.T) {
	a := newAssembler(t)
	obj, err := a.ParseFragment(domain.CategoryCustomerInformation,
		"\"{\\\"customer_information\\\": {\\\"customer_name\\\": \\\"Societatea Română\\\",\n\\\"customer_address\\\": \\\"Brașov\\\"}}\"")
	require.NoError(t, err)

	section := obj["customer_information"].(map[string]any)
	assert.Equal(t, "Societatea Romana", section["customer_name"])
	assert.Equal(t, "Brasov", section["customer_address"])
}

func TestParseFragment_Errors(t *testing.T) {
	a := newAssembler(t)

	cases := map[string]string{
		"not json":      `Here is the JSON you asked for`,
		"array root":    `[{"subtotal": 1}]`,
		"string root":   `"just text"`,
		"trailing data": `{"a": 1} {"b": 2}`,
		"control char":  "{\"calculation_details\": {\"subtotal\": \"5\x010\"}}",
		"truncated":     `{"calculation_details": {"subtotal": 500,`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.ParseFragment(domain.CategoryCalculationDetails, text)
			var fpe *domain.FragmentParseError
			require.True(t, errors.As(err, &fpe), "got %v", err)
			assert.Equal(t, domain.CategoryCalculationDetails, fpe.Category)
			assert.Equal(t, text, fpe.Raw)
		})
	}

	_, err := a.ParseFragment(domain.Category("shipping"), `{}`)
	var fpe *domain.FragmentParseError
	assert.True(t, errors.As(err, &fpe))
}

func TestAssemble_RoundTrip(t *testing.T) {
	a := newAssembler(t)
	record, err := a.Assemble(extractionResult(wellFormed))
	require.NoError(t, err)
	assert.Empty(t, record.Incomplete)

	out, err := json.Marshal(record)
	require.NoError(t, err)
	got := decodeNumbers(t, out).(map[string]any)

	for _, cat := range domain.AllCategories() {
		p, err := prompt.Default().Secondary(cat)
		require.NoError(t, err)
		supplied := decodeNumbers(t, []byte(wellFormed[cat])).(map[string]any)
		if p.Wrapped {
			assertSupplied(t, supplied[string(cat)], got[string(cat)], string(cat))
		} else {
			assertSupplied(t, supplied, got[string(cat)], string(cat))
		}
	}

	assert.Equal(t, "Acme Ltd", record.InvoiceInformation.BillTo.ClientName.String())
	assert.Equal(t, "595", record.CalculationDetails.TotalAmountDue.String())
	assert.Equal(t, "Annex 1 <SLA> & Annex 2", record.SpecialConditions.ContractReferences.String())
	assert.Equal(t, "30", record.AdditionalInformation["notice_period_days"].String())
	require.Len(t, record.ServiceDetails, 2)
	assert.Equal(t, "120.5", record.ServiceDetails[1].RatePerUnit.String())
}

func TestAssemble_KeepsUndocumentedKeysAndPlainValues(t *testing.T) {
	a := newAssembler(t)
	fragments := map[domain.Category]string{}
	for cat, text := range wellFormed {
		fragments[cat] = text
	}
	fragments[domain.CategoryCalculationDetails] = `{"calculation_details": {"subtotal": "500", "discount": "10%", "taxes": "19% VAT included"}}`
	fragments[domain.CategoryInvoiceInformation] = `{"invoice_number": "INV-9", "purchase_order": "PO-77",
		"bill_to": {"client_name": "Acme Ltd", "registration_number": "J40/1/2020",
			"banking_information": {"iban": "RO49", "bank_code": "RNCB"}}}`
	fragments[domain.CategoryServiceDetails] = `{"service_details": [
		{"description": "Hosting", "total_amount": 10, "period": {"from": "2024-03", "to": "2024-04"}},
		"Support, billed hourly"]}`

	record, err := a.Assemble(extractionResult(fragments))
	require.NoError(t, err)

	out, err := json.Marshal(record)
	require.NoError(t, err)
	got := decodeNumbers(t, out).(map[string]any)

	calc := got["calculation_details"].(map[string]any)
	assert.Equal(t, "500", calc["subtotal"])
	assert.Equal(t, "10%", calc["discount"])
	assert.Equal(t, "19% VAT included", calc["taxes"])
	assert.Equal(t, domain.NotAvailable, calc["total_amount_due"])

	inv := got["invoice_information"].(map[string]any)
	assert.Equal(t, "PO-77", inv["purchase_order"])
	billTo := inv["bill_to"].(map[string]any)
	assert.Equal(t, "J40/1/2020", billTo["registration_number"])
	banking := billTo["banking_information"].(map[string]any)
	assert.Equal(t, "RNCB", banking["bank_code"])
	assert.Equal(t, domain.NotAvailable, banking["swift_bic"])

	lines := got["service_details"].([]any)
	require.Len(t, lines, 2)
	assert.Equal(t, map[string]any{"from": "2024-03", "to": "2024-04"}, lines[0].(map[string]any)["period"])
	assert.Equal(t, "Support, billed hourly", lines[1])

	assert.Equal(t, "10%", record.CalculationDetails.Extra["discount"].String())
	assert.Equal(t, "19% VAT included", record.CalculationDetails.Taxes.Literal.String())
	assert.Equal(t, "Support, billed hourly", record.ServiceDetails[1].Literal.String())
}

func TestAssemble_PlainAdditionalInformation(t *testing.T) {
	a := newAssembler(t)
	fragments := map[domain.Category]string{}
	for cat, text := range wellFormed {
		fragments[cat] = text
	}
	fragments[domain.CategoryAdditionalInformation] = `{"additional_information": "Auto-renews yearly"}`

	record, err := a.Assemble(extractionResult(fragments))
	require.NoError(t, err)
	assert.Equal(t, "Auto-renews yearly", record.AdditionalInformation["details"].String())
	assert.Equal(t, domain.NotAvailable, record.AdditionalInformation["relevance"].String())
}

func TestAssemble_ControlCharacterFailsOneCategoryOnly(t *testing.T) {
	fragments := map[domain.Category]string{}
	for k, v := range wellFormed {
		fragments[k] = v
	}
	fragments[domain.CategoryCalculationDetails] = "{\"calculation_details\": {\"subtotal\": \"500\x00\", \"currency\": \"EUR\"}}"

	a := newAssembler(t)
	record, err := a.Assemble(extractionResult(fragments))
	require.NotNil(t, record)

	var asmErr *domain.AssemblyError
	require.True(t, errors.As(err, &asmErr))
	assert.Equal(t, []domain.Category{domain.CategoryCalculationDetails}, asmErr.Categories())

	var fpe *domain.FragmentParseError
	require.True(t, errors.As(err, &fpe))
	assert.Equal(t, domain.CategoryCalculationDetails, fpe.Category)

	assert.Equal(t, []domain.Category{domain.CategoryCalculationDetails}, record.Incomplete)
	require.NotNil(t, record.CalculationDetails)
	assert.Equal(t, domain.NotAvailable, record.CalculationDetails.Subtotal.String())
	assert.Equal(t, domain.NotAvailable, record.CalculationDetails.Taxes.TaxRate.String())

	assert.Equal(t, "INV-2024-001", record.InvoiceInformation.InvoiceNumber.String())
	assert.Len(t, record.ServiceDetails, 2)
	assert.Equal(t, "Second Bank", record.PaymentInstructions.BankName.String())
	assert.Equal(t, "2% within 10 days", record.SpecialConditions.EarlyPaymentDiscounts.String())
	assert.Equal(t, "RO1234567", record.CustomerInformation.VATOrTaxID.String())
	assert.Equal(t, "Termination", record.AdditionalInformation["category_name"].String())
}

func TestAssemble_MissingFragments(t *testing.T) {
	a := newAssembler(t)
	record, err := a.Assemble(extractionResult(map[domain.Category]string{
		domain.CategoryInvoiceInformation: wellFormed[domain.CategoryInvoiceInformation],
	}))

	var asmErr *domain.AssemblyError
	require.True(t, errors.As(err, &asmErr))
	assert.Len(t, asmErr.Failures, 6)
	assert.Len(t, record.Incomplete, 6)

	assert.NotNil(t, record.ServiceDetails)
	assert.Empty(t, record.ServiceDetails)
	assert.Equal(t, domain.NotAvailable, record.CustomerInformation.CustomerContact.Email.String())
	assert.Equal(t, domain.NotAvailable, record.AdditionalInformation["details"].String())
}

func TestNew_CustomCleaner(t *testing.T) {
	a, err := assembler.New(prompt.Default(), assembler.Chain(assembler.CodeFenceCleaner{}, assembler.DiacriticCleaner{}), nil)
	require.NoError(t, err)

	obj, err := a.ParseFragment(domain.CategorySpecialConditions, "```json\n{\"special_conditions\": {\"pro_rata_billing\": \"da\"}}\n```")
	require.NoError(t, err)
	assert.Equal(t, "da", obj["special_conditions"].(map[string]any)["pro_rata_billing"])

	// the default cleaner does not strip fences
	_, err = newAssembler(t).ParseFragment(domain.CategorySpecialConditions, "```json\n{}\n```")
	assert.Error(t, err)
}
