package certificate

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	courseModels "studysync/models/course"
)

// RenderPDF writes a landscape A4 certificate built from the snapshot fields.
func RenderPDF(w io.Writer, cert *courseModels.Certificate, appName string) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetAuthor(appName, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()

	// border
	pdf.SetDrawColor(27, 42, 74)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(15, 15, pageW-30, pageH-30, "D")

	pdf.SetTextColor(27, 42, 74)
	pdf.SetY(32)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(appName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 34)
	pdf.CellFormat(0, 20, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "BI", 30)
	pdf.CellFormat(0, 18, tr(cert.LearnerName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, tr(cert.CourseName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Final quiz score: %d%%", cert.FinalScore), "", 1, "C", false, 0, "")
	if cert.InstructorName != "" {
		pdf.CellFormat(0, 8, tr("Instructor: "+cert.InstructorName), "", 1, "C", false, 0, "")
	}

	pdf.SetY(pageH - 45)
	pdf.SetX(20)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat((pageW-40)/2, 6, "Completed on "+cert.CompletionDate.Format("02 January 2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat((pageW-40)/2, 6, "Certificate ID: "+cert.CertificateID, "", 1, "R", false, 0, "")

	if cert.Status == courseModels.CertificateRevoked {
		pdf.SetTextColor(200, 30, 30)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetY(pageH - 35)
		pdf.CellFormat(0, 8, "REVOKED", "", 1, "C", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "rendering certificate pdf")
	}
	return nil
}
