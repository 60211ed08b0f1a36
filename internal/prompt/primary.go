package prompt

// primaryTemplate asks the model to reorganise the contract into seven
// categories. It is self-contained; the contract text is appended after it.
const primaryTemplate = `
Analyze the following contract and extract the following information categorized into the specified sections. Do not translate the fields or terms - retain them in the original language of the contract. If any important information that doesn't fit into these categories is detected, create a new category and add it accordingly:

1. Contract Information:
Contract Dates: What are the start and end dates of the contract (e.g., contract period from [start date] to [end date])?
Service Periods: What are the specific periods for service delivery or recurring services?
Referenced Contracts or Agreements: Are there any contract numbers, annexes, or additional agreements referenced?

2. Billing and Payment Terms:
Billing Rates: What are the daily, monthly, or other specified billing rates? Include details on total contract value, if applicable. If the contract specifies payments in installments (e.g., monthly payments over time), indicate both the **total contract value** and the **individual installment amount**.
Pro Rata Billing: Are there any conditions for partial or pro rata billing?
Penalties and Fees: Are there penalties for late payments (e.g., interest rates, fees)?
Payment Schedules: What are the payment due dates (e.g., initial, interim, final)? Are there invoicing stages (e.g., advance, interim, and final payments)? If installments are specified, indicate how frequently payments are due (e.g., monthly, quarterly).
Payment Instructions: What are the bank details (IBAN, SWIFT) or other payment instructions? Are there any special conditions for payment (e.g., currencies or documentation required for payments)?

3. Customer Information:
Customer Details: Who is the customer (name, company, address)?
Customer Contact Information: Provide the customer's phone number, email, and any other relevant contact details.
Special Instructions: Are there any customer-specific billing or payment preferences?

4. Service or Product Descriptions:
Services Provided: What are the services or products being provided under this contract? Include any clear descriptions tied to deliverables or milestones.
Service Period: What are the specific timeframes for each service or product (if applicable)?

5. Tax and Legal Requirements:
Tax Information: Are there any VAT details, tax codes, or specific tax-related clauses?
Currency Exchange Rates: If applicable, what are the currency exchange rates or conversion guidelines?
Legal Terms: Are there any specific legal clauses or compliance requirements related to payments or tax obligations?

6. Additional Conditions:
Billing Models: Is there any mention of blended rate models, multipliers, or staged payments? Specify if the contract involves **installments** or **recurring payments** and how often they are billed (e.g., monthly, quarterly).
Required Documentation: What documentation (e.g., timesheets, receipts, summaries) is required for invoicing or payments?
Special Clauses: Are there any unusual or custom clauses related to billing, payments, or contract obligations (e.g., termination conditions, service-specific clauses)?

7. Additional Detected Information:
If you detect any important details that do not fit into the categories above, please create a new category and provide the relevant information.
Important: Keep all extracted information in its original language and format. Do not translate any terms or field names. Think carefully about how to handle contracts that specify **recurring or installment payments**.
Think carefully.
`
