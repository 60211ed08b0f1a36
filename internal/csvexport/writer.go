package csvexport

import (
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"

	"contractinvoice/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (17 columns).
var columns = []string{
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Client",
	"Provider",
	"Payment Terms",
	"Line",
	"Description",
	"Unit of Measure",
	"Quantity",
	"Rate per Unit",
	"Line Total",
	"Subtotal",
	"Tax Rate",
	"Tax Amount",
	"Total Amount Due",
	"Currency",
}

// Writer wraps csv.Writer for exporting invoice records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the 17-column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecord writes one row per service line. Invoice and total columns
// repeat on every row; a record without service lines still gets one row.
func (w *Writer) WriteRecord(record *domain.InvoiceRecord) error {
	for _, row := range recordToRows(record) {
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func recordToRows(record *domain.InvoiceRecord) [][]string {
	base := make([]string, len(columns))
	if inv := record.InvoiceInformation; inv != nil {
		base[0] = cell(inv.InvoiceNumber)
		base[1] = cell(inv.InvoiceDate)
		base[2] = cell(inv.DueDate)
		base[3] = firstSet(inv.BillTo.ClientName, inv.BillTo.CompanyName)
		base[4] = firstSet(inv.BillFrom.CompanyName, inv.BillFrom.ProviderName)
		base[5] = cell(inv.PaymentTerms)
	}
	if calc := record.CalculationDetails; calc != nil {
		base[12] = cell(calc.Subtotal)
		base[13] = firstSet(calc.Taxes.Literal, calc.Taxes.TaxRate)
		base[14] = cell(calc.Taxes.TaxAmount)
		base[15] = cell(calc.TotalAmountDue)
		base[16] = cell(calc.Currency)
	}

	if len(record.ServiceDetails) == 0 {
		return [][]string{base}
	}
	rows := make([][]string, 0, len(record.ServiceDetails))
	for i, line := range record.ServiceDetails {
		row := make([]string, len(base))
		copy(row, base)
		row[6] = strconv.Itoa(i + 1)
		row[7] = firstSet(line.Literal, line.Description)
		row[8] = cell(line.UnitOfMeasure)
		row[9] = cell(line.Quantity)
		row[10] = cell(line.RatePerUnit)
		row[11] = cell(line.TotalAmount)
		rows = append(rows, row)
	}
	return rows
}

// cell renders unset and "N/A" leaves as empty cells.
func cell(v domain.Value) string {
	s := v.String()
	if s == domain.NotAvailable {
		return ""
	}
	return s
}

func firstSet(vals ...domain.Value) string {
	for _, v := range vals {
		if s := cell(v); s != "" {
			return s
		}
	}
	return ""
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename maps an invoice file to its CSV download name.
// Format: {sanitized_invoice_stem}.csv
func BuildFilename(invoiceFile string) string {
	stem := invoiceFile
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	sanitized := SanitizeFilename(stem)
	if sanitized == "" {
		sanitized = "invoice"
	}
	return sanitized + ".csv"
}
