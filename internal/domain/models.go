package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// NotAvailable is the sentinel stored for any leaf the model did not supply.
const NotAvailable = "N/A"

// ExtractionRequest carries the raw contract text for one uploaded document.
type ExtractionRequest struct {
	RawText string
}

// PrimaryResult is the free-form output of the primary prompt. It is shared,
// read-only, by every secondary prompt.
type PrimaryResult string

// Fragment is one category's raw completion text, not yet validated.
type Fragment struct {
	Category Category
	Text     string
}

// ExtractionResult is everything the orchestrator produced for one document.
type ExtractionResult struct {
	Primary   PrimaryResult
	Fragments map[Category]Fragment
}

// Value is a JSON leaf. It keeps the exact JSON the model returned (string,
// number, bool, or even a nested structure) and serialises as "N/A" when unset.
type Value struct {
	raw json.RawMessage
}

// Text builds a Value holding a JSON string.
func Text(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: b}
}

// RawValue builds a Value from already-encoded JSON. Empty input or null yields an unset Value.
func RawValue(raw []byte) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Value{}
	}
	cp := make([]byte, len(trimmed))
	copy(cp, trimmed)
	return Value{raw: cp}
}

// IsSet reports whether the model supplied this leaf.
func (v Value) IsSet() bool {
	return len(v.raw) > 0
}

// String returns the display form: strings unquoted, anything else as compact JSON.
func (v Value) String() string {
	if !v.IsSet() {
		return NotAvailable
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v.raw); err != nil {
		return string(v.raw)
	}
	return buf.String()
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return json.Marshal(NotAvailable)
	}
	return v.raw, nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	*v = RawValue(b)
	return nil
}

// ContactInformation holds a party's contact details.
type ContactInformation struct {
	Email Value `json:"email"`
	Phone Value `json:"phone"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// BankingInformation holds a party's bank account details.
type BankingInformation struct {
	BankName    Value `json:"bank_name"`
	AccountName Value `json:"account_name"`
	IBAN        Value `json:"iban"`
	SwiftBIC    Value `json:"swift_bic"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// BillTo is the invoiced client.
type BillTo struct {
	ClientName         Value              `json:"client_name"`
	CompanyName        Value              `json:"company_name"`
	Address            Value              `json:"address"`
	ContactInformation ContactInformation `json:"contact_information"`
	BankingInformation BankingInformation `json:"banking_information"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// BillFrom is the invoicing provider.
type BillFrom struct {
	ProviderName       Value              `json:"provider_name"`
	CompanyName        Value              `json:"company_name"`
	Address            Value              `json:"address"`
	ContactInformation ContactInformation `json:"contact_information"`
	BankingInformation BankingInformation `json:"banking_information"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// InvoiceInformation is the invoice metadata plus both parties.
type InvoiceInformation struct {
	InvoiceNumber Value    `json:"invoice_number"`
	InvoiceDate   Value    `json:"invoice_date"`
	DueDate       Value    `json:"due_date"`
	BillTo        BillTo   `json:"bill_to"`
	BillFrom      BillFrom `json:"bill_from"`
	PaymentTerms  Value    `json:"payment_terms"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// ServiceLine is one billed product or service.
type ServiceLine struct {
	Description   Value `json:"description"`
	UnitOfMeasure Value `json:"unit_of_measure"`
	Quantity      Value `json:"quantity"`
	RatePerUnit   Value `json:"rate_per_unit"`
	TotalAmount   Value `json:"total_amount"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// Taxes holds the applied tax rate and amount.
type Taxes struct {
	TaxRate   Value `json:"tax_rate"`
	TaxAmount Value `json:"tax_amount"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// ExchangeRate describes a currency conversion, if any.
type ExchangeRate struct {
	Rate         Value `json:"rate"`
	FromCurrency Value `json:"from_currency"`
	ToCurrency   Value `json:"to_currency"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// CalculationDetails holds the invoice totals for the current billing period.
type CalculationDetails struct {
	Subtotal       Value        `json:"subtotal"`
	Taxes          Taxes        `json:"taxes"`
	TotalAmountDue Value        `json:"total_amount_due"`
	Currency       Value        `json:"currency"`
	ExchangeRate   ExchangeRate `json:"exchange_rate"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// PaymentInstructions tells the client where and when to pay.
type PaymentInstructions struct {
	BankName             Value `json:"bank_name"`
	AccountName          Value `json:"account_name"`
	IBAN                 Value `json:"iban"`
	SwiftBIC             Value `json:"swift_bic"`
	PaymentDueDate       Value `json:"payment_due_date"`
	LatePaymentPenalties Value `json:"late_payment_penalties"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// SpecialConditions lists billing clauses worth surfacing on the invoice.
type SpecialConditions struct {
	ProRataBilling        Value `json:"pro_rata_billing"`
	EarlyPaymentDiscounts Value `json:"early_payment_discounts"`
	LatePaymentPenalties  Value `json:"late_payment_penalties"`
	ContractReferences    Value `json:"contract_references"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// CustomerContact is the customer's phone and email.
type CustomerContact struct {
	Phone Value `json:"phone"`
	Email Value `json:"email"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// CustomerInformation is the detailed Bill To customer record.
type CustomerInformation struct {
	CustomerName    Value           `json:"customer_name"`
	CustomerAddress Value           `json:"customer_address"`
	CustomerContact CustomerContact `json:"customer_contact"`
	VATOrTaxID      Value           `json:"vat_or_tax_id"`

	Extra   Extra `json:"-"`
	Literal Value `json:"-"`
}

// AdditionalInformation is open-ended: the documented keys are always present,
// anything else the model detected is kept as-is.
type AdditionalInformation map[string]Value

// InvoiceRecord is the canonical merged invoice. Sections are pointers so that
// a record missing a whole section (as opposed to a leaf) can be detected.
type InvoiceRecord struct {
	InvoiceInformation    *InvoiceInformation   `json:"invoice_information"`
	ServiceDetails        []ServiceLine         `json:"service_details"`
	CalculationDetails    *CalculationDetails   `json:"calculation_details"`
	PaymentInstructions   *PaymentInstructions  `json:"payment_instructions"`
	SpecialConditions     *SpecialConditions    `json:"special_conditions"`
	CustomerInformation   *CustomerInformation  `json:"customer_information"`
	AdditionalInformation AdditionalInformation `json:"additional_information"`

	// Incomplete lists sections filled with defaults because their fragment failed to parse.
	Incomplete []Category `json:"-"`
}

// RenderedInvoice is a finished PDF and the filename it is stored under.
type RenderedInvoice struct {
	Filename  string
	Bytes     []byte
	Pages     int
	CreatedAt time.Time
}
