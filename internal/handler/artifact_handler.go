package handler

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"contractinvoice/internal/csvexport"
	"contractinvoice/internal/domain"
	"contractinvoice/internal/service"
)

// ArtifactHandler serves stored invoices, texts and records by filename.
type ArtifactHandler struct {
	svc service.ConversionService
}

// NewArtifactHandler creates a new ArtifactHandler.
func NewArtifactHandler(svc service.ConversionService) *ArtifactHandler {
	return &ArtifactHandler{svc: svc}
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, data)
}

// DownloadInvoice handles GET /api/download-invoice/:filename
// @Summary Download an invoice
// @Tags artifacts
// @Produce application/pdf
// @Param filename path string true "Invoice file name"
// @Success 200 {file} file "Invoice PDF"
// @Failure 400 {object} APIResponse "Invalid filename"
// @Failure 404 {object} APIResponse "File not found"
// @Router /api/download-invoice/{filename} [get]
func (h *ArtifactHandler) DownloadInvoice(c *gin.Context) {
	name := c.Param("filename")
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		HandleError(c, domain.ErrArtifactNotFound)
		return
	}
	data, err := h.svc.Download(c.Request.Context(), domain.AreaInvoices, name)
	if err != nil {
		HandleError(c, err)
		return
	}
	attachment(c, name, "application/pdf", data)
}

// DownloadText handles GET /api/download-text/:filename
// @Summary Download extracted text
// @Tags artifacts
// @Produce plain
// @Param filename path string true "Text file name"
// @Success 200 {file} file "Extracted text"
// @Failure 400 {object} APIResponse "Invalid filename"
// @Failure 404 {object} APIResponse "File not found"
// @Router /api/download-text/{filename} [get]
func (h *ArtifactHandler) DownloadText(c *gin.Context) {
	name := c.Param("filename")
	data, err := h.svc.Download(c.Request.Context(), domain.AreaText, name)
	if err != nil {
		HandleError(c, err)
		return
	}
	attachment(c, name, "text/plain; charset=utf-8", data)
}

// InvoiceRecord handles GET /api/invoice-record/:filename
// @Summary Get the structured record of an invoice
// @Tags artifacts
// @Produce json
// @Param filename path string true "Invoice file name"
// @Success 200 {object} APIResponse{data=domain.InvoiceRecord} "Invoice record"
// @Failure 400 {object} APIResponse "Invalid filename"
// @Failure 404 {object} APIResponse "File not found"
// @Router /api/invoice-record/{filename} [get]
func (h *ArtifactHandler) InvoiceRecord(c *gin.Context) {
	record, err := h.svc.Record(c.Request.Context(), c.Param("filename"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// InvoiceCSV handles GET /api/invoice-csv/:filename
// @Summary Export an invoice record as CSV
// @Tags artifacts
// @Produce text/csv
// @Param filename path string true "Invoice file name"
// @Success 200 {file} file "CSV with a header row and one record row"
// @Failure 400 {object} APIResponse "Invalid filename"
// @Failure 404 {object} APIResponse "File not found"
// @Router /api/invoice-csv/{filename} [get]
func (h *ArtifactHandler) InvoiceCSV(c *gin.Context) {
	name := c.Param("filename")
	record, err := h.svc.Record(c.Request.Context(), name)
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WriteRecord(record); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}
	attachment(c, csvexport.BuildFilename(name), "text/csv; charset=utf-8", buf.Bytes())
}
