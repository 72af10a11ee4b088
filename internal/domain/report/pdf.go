package report

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/go-pdf/fpdf"
)

// A4 portrait, in mm.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

const reportImage = "report"

// Paginate returns the vertical offset of the content image on each page.
// The first page shows it from the top; every further page shifts it up by
// one page height for as long as content remains.
func Paginate(contentHeight, pageHeight float64) []float64 {
	offsets := []float64{0}
	for left := contentHeight - pageHeight; left >= 0; left -= pageHeight {
		offsets = append(offsets, left-contentHeight)
	}
	return offsets
}

// PDFMeta is written into the document information dictionary.
type PDFMeta struct {
	Title   string
	Creator string
	Created time.Time
}

// WritePDF places the PNG, contentHeight mm tall and a page wide, on one
// page per offset. The image is embedded once and reused.
func WritePDF(w io.Writer, png []byte, contentHeight float64, offsets []float64, meta PDFMeta) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator(meta.Creator, true)
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(reportImage, opts, bytes.NewReader(png))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("register image: %w", err)
	}

	for _, y := range offsets {
		pdf.AddPage()
		pdf.ImageOptions(reportImage, 0, y, PageWidthMM, contentHeight, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w", err)
	}
	return pdf.Output(w)
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName is {student name with whitespace runs as "_"}_medicoes_{UTC date}.pdf.
func FileName(studentName string, now time.Time) string {
	return whitespace.ReplaceAllString(studentName, "_") + "_medicoes_" + now.UTC().Format("2006-01-02") + ".pdf"
}
