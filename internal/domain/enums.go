package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Category names one of the seven secondary extraction passes. The string
// value is also the JSON key of the section in the exported invoice record.
type Category string

const (
	CategoryInvoiceInformation    Category = "invoice_information"
	CategoryServiceDetails        Category = "service_details"
	CategoryCalculationDetails    Category = "calculation_details"
	CategoryPaymentInstructions   Category = "payment_instructions"
	CategorySpecialConditions     Category = "special_conditions"
	CategoryCustomerInformation   Category = "customer_information"
	CategoryAdditionalInformation Category = "additional_information"
)

// AllCategories returns the seven categories in canonical order.
func AllCategories() []Category {
	return []Category{
		CategoryInvoiceInformation,
		CategoryServiceDetails,
		CategoryCalculationDetails,
		CategoryPaymentInstructions,
		CategorySpecialConditions,
		CategoryCustomerInformation,
		CategoryAdditionalInformation,
	}
}

// Valid reports whether c is one of the seven known categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// OutputMode selects between free text and JSON-constrained completions.
type OutputMode string

const (
	OutputFreeText OutputMode = "text"
	OutputJSON     OutputMode = "json"
)

// FileType identifies a supported upload format.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeImage FileType = "image"
	FileTypeXLSX  FileType = "xlsx"
	FileTypeXLS   FileType = "xls"
)

// AllowedExtensions maps lower-case extensions (without the dot) to file types.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"docx": FileTypeDOCX,
	"jpg":  FileTypeImage,
	"jpeg": FileTypeImage,
	"png":  FileTypeImage,
	"xlsx": FileTypeXLSX,
	"xls":  FileTypeXLS,
}

// FileTypeOf maps a filename to its upload type by extension, case-insensitively.
func FileTypeOf(name string) (FileType, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	t, ok := AllowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(name))
	}
	return t, nil
}

// Area is a storage namespace for pipeline artifacts.
type Area string

const (
	AreaUploads  Area = "uploads"
	AreaText     Area = "text"
	AreaInvoices Area = "invoices"
)
