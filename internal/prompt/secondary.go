package prompt

import (
	"strings"

	"contractinvoice/internal/domain"
)

// InstallmentScoping is appended to every secondary prompt so that amounts
// reflect a single billing period of recurring or installment contracts.
const InstallmentScoping = "If the contract specifies **installments** or **recurring payments**, make sure every amount reflects only the current billing period (e.g., the monthly payment) and not the total contract value."

// JSONOnly is the reply constraint shared by every secondary prompt.
const JSONOnly = "Return Only JSON, and nothing else."

// SecondaryPrompt is one category's extraction template plus the shape of the JSON it demands.
type SecondaryPrompt struct {
	Category    domain.Category
	Title       string
	Instruction string
	// Section describes the category's content. Wrapped means the reply nests
	// it under the category key, e.g. {"calculation_details": {...}}.
	Section FieldSpec
	Wrapped bool
}

// Root returns the top-level keys of the expected reply.
func (p SecondaryPrompt) Root() []FieldSpec {
	if p.Wrapped {
		return []FieldSpec{p.Section}
	}
	return p.Section.Children
}

// Template renders the full prompt text. The primary result is appended after it.
func (p SecondaryPrompt) Template() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(p.Title)
	b.WriteString("\n\nPrompt:\n")
	b.WriteString(p.Instruction)
	b.WriteString("\n\n")
	b.WriteString(renderShape(p.Root()))
	b.WriteString("\n\n")
	b.WriteString(InstallmentScoping)
	b.WriteString("\n")
	b.WriteString(JSONOnly)
	b.WriteString("\nThink carefully.\n")
	return b.String()
}

// JSONSchema returns the JSON Schema the reply is checked against.
func (p SecondaryPrompt) JSONSchema() map[string]any {
	return jsonSchema(string(p.Category), p.Root())
}

func contact() FieldSpec {
	return object("contact_information",
		leaf("email", "Email address."),
		leaf("phone", "Phone number."),
	)
}

func banking() FieldSpec {
	return object("banking_information",
		leaf("bank_name", "Bank name (if provided)."),
		leaf("account_name", "Account name (if provided)."),
		leaf("iban", "IBAN (if provided)."),
		leaf("swift_bic", "SWIFT/BIC code (if provided)."),
	)
}

func secondaryPrompts() []SecondaryPrompt {
	return []SecondaryPrompt{
		{
			Category:    domain.CategoryInvoiceInformation,
			Title:       "1. Invoice Information & Client Data",
			Instruction: "Based on the extracted invoice information, please provide detailed data for the following fields in JSON format. If the contract specifies **recurring payments** or **installments**, make sure the invoice reflects only the amount for the current billing period, not the total contract value.",
			Section: object(string(domain.CategoryInvoiceInformation),
				leaf("invoice_number", "Identify the invoice number."),
				leaf("invoice_date", "Specify the date the invoice was issued. If the info is missing or is unclear, use the current day."),
				leaf("due_date", "Extract the payment due date. If the info is missing, but the invoice date is clearly specified as a date of the month, select the last day of the month of the invoice_date."),
				object("bill_to",
					leaf("client_name", "Client's full name."),
					leaf("company_name", "Company name."),
					leaf("address", "Full address."),
					contact(),
					banking(),
				),
				object("bill_from",
					leaf("provider_name", "Provider's full name."),
					leaf("company_name", "Company name."),
					leaf("address", "Full address."),
					contact(),
					banking(),
				),
				leaf("payment_terms", "Identify any payment terms (e.g., Net 30, early payment discounts, penalties for late payment)."),
			),
		},
		{
			Category:    domain.CategoryServiceDetails,
			Title:       "2. Description or Details of Products/Services",
			Instruction: "Please extract detailed information about the products or services provided, and format the data in JSON in a table-like structure as follows. If the contract involves **installments** or **recurring services**, ensure the **quantity** reflects the current billing period (e.g., one month) and the **total amount** corresponds to the installment amount.",
			Wrapped:     true,
			Section: list(string(domain.CategoryServiceDetails),
				leaf("description", "Provide a description of the product or service listed on the invoice."),
				leaf("unit_of_measure", "Identify the unit of measurement (e.g., days, hours, service, month)."),
				leaf("quantity", "How many units or services were provided (e.g., number of days, number of products)."),
				leaf("rate_per_unit", "Extract the rate per unit (e.g., rate per day, service, hour)."),
				leaf("total_amount", "Calculate and extract the total amount for each service or product for this billing period (e.g., monthly installment)."),
			),
		},
		{
			Category:    domain.CategoryCalculationDetails,
			Title:       "3. Calculation Details",
			Instruction: "Please extract detailed calculations from the invoice and format the data in JSON as follows:",
			Wrapped:     true,
			Section: object(string(domain.CategoryCalculationDetails),
				leaf("subtotal", "What is the subtotal before taxes or additional fees?"),
				object("taxes",
					leaf("tax_rate", "Identify the tax rate applied (if any, e.g., VAT, sales tax)."),
					leaf("tax_amount", "Provide the calculated tax amount."),
				),
				leaf("total_amount_due", "What is the final total amount due after applying all fees, taxes, and discounts?"),
				leaf("currency", "Specify the currency in which the invoice is issued (e.g., EUR, USD, MDL)."),
				object("exchange_rate",
					leaf("rate", "If a currency conversion is involved, extract the exchange rate used."),
					leaf("from_currency", "Identify the original currency (if applicable)."),
					leaf("to_currency", "Identify the converted currency (if applicable)."),
				),
			),
		},
		{
			Category:    domain.CategoryPaymentInstructions,
			Title:       "4. Payment Instructions",
			Instruction: "Please extract the payment instructions from the invoice and format the data in JSON as follows:",
			Wrapped:     true,
			Section: object(string(domain.CategoryPaymentInstructions),
				leaf("bank_name", "What is the name of the bank where the payment should be sent?"),
				leaf("account_name", "What is the account holder's name for the payment?"),
				leaf("iban", "Extract the IBAN if provided."),
				leaf("swift_bic", "Extract the SWIFT/BIC code for international payments."),
				leaf("payment_due_date", "Reinforce when the payment is due."),
				leaf("late_payment_penalties", "Identify any penalties for late payment (e.g., interest rates)."),
			),
		},
		{
			Category:    domain.CategorySpecialConditions,
			Title:       "5. Special Conditions or Clauses",
			Instruction: "Please extract any special conditions or clauses related to this invoice and format the data in JSON as follows:",
			Wrapped:     true,
			Section: object(string(domain.CategorySpecialConditions),
				leaf("pro_rata_billing", "Is there any mention of pro rata billing? If so, provide details."),
				leaf("early_payment_discounts", "Are there any discounts or incentives for early payment? Provide details."),
				leaf("late_payment_penalties", "What are the penalties for late payments (e.g., interest rates, fees)?"),
				leaf("contract_references", "Identify any references to other contracts, agreements, or annexes that are important for this invoice."),
			),
		},
		{
			Category:    domain.CategoryCustomerInformation,
			Title:       "6. Customer Information",
			Instruction: "Please extract the detailed customer (Bill To) information from the invoice and format the data in JSON as follows:",
			Wrapped:     true,
			Section: object(string(domain.CategoryCustomerInformation),
				leaf("customer_name", "Full name of the customer or business entity."),
				leaf("customer_address", "Full address of the customer."),
				object("customer_contact",
					leaf("phone", "Phone number, if available."),
					leaf("email", "Email address, if available."),
				),
				leaf("vat_or_tax_id", "Extract the VAT or tax ID if applicable."),
			),
		},
		{
			Category:    domain.CategoryAdditionalInformation,
			Title:       "7. Additional Detected Information",
			Instruction: "Please review the main extracted data and provide any additional important information not covered in the above sections. If you identify new categories or unusual details, create a new category and explain its relevance. Format the additional information in JSON as follows:",
			Wrapped:     true,
			Section: object(string(domain.CategoryAdditionalInformation),
				leaf("category_name", "Provide the name of the newly identified category, if applicable."),
				leaf("details", "Provide detailed information about the newly identified category or unusual detail."),
				leaf("relevance", "Explain why this information is relevant or important for the invoice."),
			),
		},
	}
}
