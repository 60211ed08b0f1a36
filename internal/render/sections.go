package render

import (
	"sort"
	"strings"
	"unicode"

	"contractinvoice/internal/domain"
)

type row struct {
	label  string
	value  string
	indent bool
}

type section struct {
	title string
	rows  []row
}

func kv(label string, v domain.Value) row {
	return row{label: label, value: v.String()}
}

func indented(label string, v domain.Value) row {
	return row{label: label, value: v.String(), indent: true}
}

func validateRecord(r *domain.InvoiceRecord) error {
	if r == nil {
		return &domain.RenderError{Section: "record", Reason: "record is nil"}
	}
	missing := func(name string) error {
		return &domain.RenderError{Section: name, Reason: "section missing"}
	}
	switch {
	case r.InvoiceInformation == nil:
		return missing(string(domain.CategoryInvoiceInformation))
	case r.ServiceDetails == nil:
		return missing(string(domain.CategoryServiceDetails))
	case r.CalculationDetails == nil:
		return missing(string(domain.CategoryCalculationDetails))
	case r.PaymentInstructions == nil:
		return missing(string(domain.CategoryPaymentInstructions))
	case r.SpecialConditions == nil:
		return missing(string(domain.CategorySpecialConditions))
	case r.CustomerInformation == nil:
		return missing(string(domain.CategoryCustomerInformation))
	case r.AdditionalInformation == nil:
		return missing(string(domain.CategoryAdditionalInformation))
	}
	return nil
}

// extraRows renders keys the model added beyond the documented ones, by key.
func extraRows(e domain.Extra, indent bool) []row {
	rows := make([]row, 0, len(e))
	for _, k := range e.Keys() {
		rows = append(rows, row{label: humanize(k), value: e[k].String(), indent: indent})
	}
	return rows
}

// object renders a nested object as its documented rows plus extras, or as a
// single row when the model sent a plain value instead.
func object(label string, literal domain.Value, extra domain.Extra, indent bool, rows ...row) []row {
	if literal.IsSet() {
		return []row{{label: label, value: literal.String(), indent: indent}}
	}
	return append(rows, extraRows(extra, indent)...)
}

func contactRows(c domain.ContactInformation) []row {
	return object("Contact", c.Literal, c.Extra, true,
		indented("Email", c.Email),
		indented("Phone", c.Phone),
	)
}

func bankingRows(b domain.BankingInformation) []row {
	return object("Banking", b.Literal, b.Extra, true,
		indented("Bank Name", b.BankName),
		indented("Account Name", b.AccountName),
		indented("IBAN", b.IBAN),
		indented("SWIFT/BIC", b.SwiftBIC),
	)
}

func lineRows(l domain.ServiceLine) []row {
	return object("Service", l.Literal, l.Extra, false,
		kv("Description", l.Description),
		indented("Unit of Measure", l.UnitOfMeasure),
		indented("Quantity", l.Quantity),
		indented("Rate per Unit", l.RatePerUnit),
		indented("Total Amount", l.TotalAmount),
	)
}

// sections lists the record in drawing order. Bill From mirrors Bill To.
func sections(r *domain.InvoiceRecord) []section {
	inv := r.InvoiceInformation
	var out []section
	if inv.Literal.IsSet() {
		out = []section{{title: "Invoice Details", rows: []row{kv("Details", inv.Literal)}}}
	} else {
		billTo, billFrom := inv.BillTo, inv.BillFrom
		out = []section{
			{title: "Invoice Details", rows: object("Details", domain.Value{}, inv.Extra, false,
				kv("Invoice Number", inv.InvoiceNumber),
				kv("Invoice Date", inv.InvoiceDate),
				kv("Due Date", inv.DueDate),
			)},
			{title: "Bill To", rows: object("Details", billTo.Literal, billTo.Extra, false,
				kv("Client Name", billTo.ClientName),
				kv("Company Name", billTo.CompanyName),
				kv("Address", billTo.Address),
			)},
			{title: "Contact Information", rows: contactRows(billTo.ContactInformation)},
			{title: "Banking Information", rows: bankingRows(billTo.BankingInformation)},
			{title: "Bill From", rows: object("Details", billFrom.Literal, billFrom.Extra, false,
				kv("Provider Name", billFrom.ProviderName),
				kv("Company Name", billFrom.CompanyName),
				kv("Address", billFrom.Address),
			)},
			{title: "Contact Information", rows: contactRows(billFrom.ContactInformation)},
			{title: "Banking Information", rows: bankingRows(billFrom.BankingInformation)},
			{title: "Payment Terms", rows: []row{kv("Terms", inv.PaymentTerms)}},
		}
	}

	var lines []row
	for _, l := range r.ServiceDetails {
		lines = append(lines, lineRows(l)...)
	}
	out = append(out, section{title: "Service Details", rows: lines})

	calc := r.CalculationDetails
	var calcRows []row
	calcRows = append(calcRows, kv("Subtotal", calc.Subtotal))
	calcRows = append(calcRows, object("Taxes", calc.Taxes.Literal, calc.Taxes.Extra, false,
		kv("Tax Rate", calc.Taxes.TaxRate),
		kv("Tax Amount", calc.Taxes.TaxAmount),
	)...)
	calcRows = append(calcRows, kv("Total Amount Due", calc.TotalAmountDue), kv("Currency", calc.Currency))
	calcRows = append(calcRows, object("Exchange Rate", calc.ExchangeRate.Literal, calc.ExchangeRate.Extra, false,
		kv("Exchange Rate", calc.ExchangeRate.Rate),
		indented("From Currency", calc.ExchangeRate.FromCurrency),
		indented("To Currency", calc.ExchangeRate.ToCurrency),
	)...)
	out = append(out, section{title: "Calculation Details", rows: object("Details", calc.Literal, calc.Extra, false, calcRows...)})

	pay := r.PaymentInstructions
	out = append(out, section{title: "Payment Instructions", rows: object("Details", pay.Literal, pay.Extra, false,
		kv("Bank Name", pay.BankName),
		kv("Account Name", pay.AccountName),
		kv("IBAN", pay.IBAN),
		kv("SWIFT/BIC", pay.SwiftBIC),
		kv("Payment Due Date", pay.PaymentDueDate),
		kv("Late Payment Penalties", pay.LatePaymentPenalties),
	)})

	sc := r.SpecialConditions
	out = append(out, section{title: "Special Conditions", rows: object("Details", sc.Literal, sc.Extra, false,
		kv("Pro Rata Billing", sc.ProRataBilling),
		kv("Early Payment Discounts", sc.EarlyPaymentDiscounts),
		kv("Late Payment Penalties", sc.LatePaymentPenalties),
		kv("Contract References", sc.ContractReferences),
	)})

	cust := r.CustomerInformation
	custRows := []row{kv("Customer Name", cust.CustomerName), kv("Customer Address", cust.CustomerAddress)}
	custRows = append(custRows, object("Contact", cust.CustomerContact.Literal, cust.CustomerContact.Extra, true,
		indented("Phone", cust.CustomerContact.Phone),
		indented("Email", cust.CustomerContact.Email),
	)...)
	custRows = append(custRows, kv("VAT/Tax ID", cust.VATOrTaxID))
	out = append(out, section{title: "Customer Information", rows: object("Details", cust.Literal, cust.Extra, false, custRows...)})

	out = append(out, section{title: "Additional Information", rows: additionalRows(r.AdditionalInformation)})
	return out
}

var additionalKnown = []struct{ key, label string }{
	{"category_name", "Category"},
	{"details", "Details"},
	{"relevance", "Relevance"},
}

// additionalRows renders the documented keys first, then any others by key.
func additionalRows(info domain.AdditionalInformation) []row {
	rows := make([]row, 0, len(info))
	seen := make(map[string]bool, len(additionalKnown))
	for _, k := range additionalKnown {
		seen[k.key] = true
		rows = append(rows, kv(k.label, info[k.key]))
	}
	var extra []string
	for k := range info {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		rows = append(rows, kv(humanize(k), info[k]))
	}
	return rows
}

// humanize turns notice_period_days into Notice Period Days.
func humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
