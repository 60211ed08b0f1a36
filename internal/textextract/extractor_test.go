package textextract_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/textextract"
)

type stubRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func TestFileTypeOfAllowedExtensions(t *testing.T) {
	tests := []struct {
		name string
		want domain.FileType
	}{
		{"contract.pdf", domain.FileTypePDF},
		{"Contract.PDF", domain.FileTypePDF},
		{"a/b/contract.docx", domain.FileTypeDOCX},
		{"scan.jpg", domain.FileTypeImage},
		{"scan.JPEG", domain.FileTypeImage},
		{"scan.png", domain.FileTypeImage},
		{"rates.xlsx", domain.FileTypeXLSX},
		{"rates.xls", domain.FileTypeXLS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.FileTypeOf(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, name := range []string{"notes.txt", "contract", "archive.zip", "doc.doc"} {
		_, err := domain.FileTypeOf(name)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType, name)
	}
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	reg := textextract.New(textextract.Config{}, nil)
	_, err := reg.Extract(context.Background(), "contract.odt")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestRegistry_ImageUsesTesseract(t *testing.T) {
	runner := &stubRunner{stdout: "Service Agreement\nFee: 500 EUR\n"}
	reg := textextract.New(textextract.Config{Language: "ron", TessdataDir: "/usr/share/tessdata"}, nil,
		textextract.WithRunner(runner))

	text, err := reg.Extract(context.Background(), "/tmp/scan.png")
	require.NoError(t, err)
	assert.Equal(t, "Service Agreement\nFee: 500 EUR\n", text)
	assert.Equal(t, "tesseract", runner.name)
	assert.Equal(t, []string{"/tmp/scan.png", "stdout", "-l", "ron", "--tessdata-dir", "/usr/share/tessdata"}, runner.args)
}

func TestRegistry_ImageRunnerFailure(t *testing.T) {
	runner := &stubRunner{stderr: "Error opening data file", err: errors.New("exit status 1")}
	reg := textextract.New(textextract.Config{Tesseract: "/opt/bin/tesseract"}, nil, textextract.WithRunner(runner))

	_, err := reg.Extract(context.Background(), "scan.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
	assert.Equal(t, "/opt/bin/tesseract", runner.name)
	assert.Equal(t, []string{"scan.jpg", "stdout", "-l", "eng"}, runner.args)
}

func TestRegistry_WithExtractorOverride(t *testing.T) {
	boom := errors.New("corrupt")
	reg := textextract.New(textextract.Config{}, nil,
		textextract.WithExtractor(domain.FileTypePDF, func(context.Context, string) (string, error) {
			return "", boom
		}))

	_, err := reg.Extract(context.Background(), "contract.pdf")
	assert.ErrorIs(t, err, boom)
}

func writeDOCX(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	if body != "" {
		w, err := zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestRegistry_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.docx")
	writeDOCX(t, path, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Service</w:t></w:r><w:r><w:t xml:space="preserve"> Agreement</w:t></w:r></w:p>
    <w:p><w:r><w:t>Fee</w:t><w:tab/><w:t>500 EUR</w:t></w:r></w:p>
    <w:p/>
    <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two &amp; more</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	reg := textextract.New(textextract.Config{}, nil)
	text, err := reg.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Service Agreement\nFee\t500 EUR\n\nLine one\nLine two & more\n", text)
}

func TestRegistry_DOCXWithoutBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	writeDOCX(t, path, "")

	reg := textextract.New(textextract.Config{}, nil)
	_, err := reg.Extract(context.Background(), path)
	assert.ErrorContains(t, err, "word/document.xml")
}

func TestRegistry_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Service"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Rate"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Maintenance"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 500))
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "Net 30"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	reg := textextract.New(textextract.Config{}, nil)
	text, err := reg.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Service\tRate\nMaintenance\t500\nNet 30\n", text)
}

func TestRegistry_PDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract.pdf")
	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Text(72, 72, "ServiceAgreement")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Text(72, 72, "MonthlyFee")
	require.NoError(t, doc.OutputFileAndClose(path))

	reg := textextract.New(textextract.Config{}, nil)
	text, err := reg.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "ServiceAgreement")
	assert.Contains(t, text, "MonthlyFee")
}

func TestRegistry_CorruptFilesFail(t *testing.T) {
	dir := t.TempDir()
	reg := textextract.New(textextract.Config{}, nil)
	for _, name := range []string{"bad.pdf", "bad.docx", "bad.xlsx", "bad.xls"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("not a real document"), 0o600))
		_, err := reg.Extract(context.Background(), path)
		assert.Error(t, err, name)
	}
}
