package handler

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/service"
)

// ConvertResponse lists where the produced artifacts can be downloaded.
type ConvertResponse struct {
	InvoiceURL         string            `json:"invoiceUrl"`
	TextURL            string            `json:"textUrl,omitempty"`
	RecordURL          string            `json:"recordUrl,omitempty"`
	CSVURL             string            `json:"csvUrl,omitempty"`
	Pages              int               `json:"pages"`
	Warnings           []string          `json:"warnings"`
	IncompleteSections []domain.Category `json:"incompleteSections"`
}

// ConvertHandler handles the conversion endpoints.
type ConvertHandler struct {
	svc            service.ConversionService
	maxUploadBytes int64
	baseURL        string
}

// NewConvertHandler creates a new ConvertHandler. maxUploadBytes <= 0 disables
// the size check; baseURL, if set, prefixes the returned download URLs.
func NewConvertHandler(svc service.ConversionService, maxUploadBytes int64, baseURL string) *ConvertHandler {
	return &ConvertHandler{svc: svc, maxUploadBytes: maxUploadBytes, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (h *ConvertHandler) toResponse(out *service.ConvertOutput) ConvertResponse {
	downloadURL := func(route, name string) string {
		return fmt.Sprintf("%s/api/%s/%s", h.baseURL, route, url.PathEscape(name))
	}
	resp := ConvertResponse{
		InvoiceURL:         downloadURL("download-invoice", out.InvoiceFile),
		Pages:              out.Pages,
		Warnings:           out.Warnings,
		IncompleteSections: out.Incomplete,
	}
	if out.TextFile != "" {
		resp.TextURL = downloadURL("download-text", out.TextFile)
	}
	if out.RecordFile != "" {
		resp.RecordURL = downloadURL("invoice-record", out.InvoiceFile)
		resp.CSVURL = downloadURL("invoice-csv", out.InvoiceFile)
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if resp.IncompleteSections == nil {
		resp.IncompleteSections = []domain.Category{}
	}
	return resp
}

// readLimited reads at most max bytes (0 = unlimited) and reports ErrFileTooLarge beyond that.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

// ConvertContract handles POST /api/convert-contract
// @Summary Convert a contract
// @Description Extract text from an uploaded contract (PDF, DOCX, image or spreadsheet) and render a structured invoice
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param contract formData file true "Contract to convert"
// @Success 200 {object} APIResponse{data=ConvertResponse} "Invoice rendered"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 422 {object} APIResponse "No text could be extracted"
// @Failure 502 {object} APIResponse "Model backend failed"
// @Failure 504 {object} APIResponse "Processing timed out"
// @Router /api/convert-contract [post]
func (h *ConvertHandler) ConvertContract(c *gin.Context) {
	fh, err := c.FormFile("contract")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "NO_FILE", "no file part named contract")
		return
	}
	if strings.TrimSpace(fh.Filename) == "" {
		RespondError(c, http.StatusBadRequest, "NO_FILE", "no selected file")
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read uploaded file")
		return
	}
	defer f.Close()

	body, err := readLimited(f, h.maxUploadBytes)
	if err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.svc.Convert(c.Request.Context(), service.ConvertInput{Filename: fh.Filename, Body: body})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, h.toResponse(out))
}

// ConvertText handles POST /api/convert-text. The text comes from a file part
// named text, or from a form field text with an optional name field.
// @Summary Convert plain text
// @Description Render text verbatim into an invoice PDF without calling the model
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param text formData string true "Text to render, or a text file part of the same name"
// @Param name formData string false "Base name for the produced files"
// @Success 200 {object} APIResponse{data=ConvertResponse} "Invoice rendered"
// @Failure 400 {object} APIResponse "No text provided"
// @Failure 413 {object} APIResponse "File too large"
// @Router /api/convert-text [post]
func (h *ConvertHandler) ConvertText(c *gin.Context) {
	var input service.ConvertTextInput
	if fh, err := c.FormFile("text"); err == nil {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read uploaded file")
			return
		}
		defer f.Close()
		data, err := readLimited(f, h.maxUploadBytes)
		if err != nil {
			HandleError(c, err)
			return
		}
		input = service.ConvertTextInput{Text: string(data), Basename: fh.Filename}
	} else {
		input = service.ConvertTextInput{Text: c.PostForm("text"), Basename: c.PostForm("name")}
	}

	if strings.TrimSpace(input.Text) == "" {
		RespondError(c, http.StatusBadRequest, "NO_TEXT", "no text provided")
		return
	}

	out, err := h.svc.ConvertText(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, h.toResponse(out))
}
