package infra

// pdf.go renders the warranty certificate sent to the vehicle owner once a
// warranty is approved: an A4 page with the owner and vehicle details, a table
// of the covered car parts and the expiry date of each.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ewarranty/internal/model"

	"github.com/go-pdf/fpdf"
)

// CertificateFileName is the file written for a warranty number.
func CertificateFileName(warrantyNo string) string {
	return fmt.Sprintf("warranty_%s.pdf", warrantyNo)
}

// GenerateWarrantyCertificatePDF writes the certificate into storagePath and
// returns its path. w must have Shop and Parts (with CarPart and
// ProductAllocation.Product) preloaded.
func GenerateWarrantyCertificatePDF(w *model.Warranty, companyName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, CertificateFileName(w.WarrantyNo))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 10, companyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 7, "Certificate of Warranty", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "Warranty No: "+w.WarrantyNo, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// ── Owner and vehicle ────────────────────────────────────────────────────
	rows := [][2]string{
		{"Owner", w.ClientName},
		{"Contact", w.ClientContact},
		{"Vehicle", w.CarBrand + " " + w.CarModel},
		{"Colour", w.CarColour},
		{"Plate No", w.CarPlateNo},
		{"Chassis No", w.CarChassisNo},
		{"Installed On", w.InstallationDate.Format("02 Jan 2006")},
	}
	if w.Shop != nil {
		rows = append(rows, [2]string{"Installer", w.Shop.CompanyName + " (" + w.Shop.BranchCode + ")"})
	}
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, r[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW-40, 6, r[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Covered parts ────────────────────────────────────────────────────────
	col := []float64{contentW * 0.25, contentW * 0.35, contentW * 0.2, contentW * 0.2}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col[0], 7, "Car Part", "1", 0, "L", false, 0, "")
	pdf.CellFormat(col[1], 7, "Film", "1", 0, "L", false, 0, "")
	pdf.CellFormat(col[2], 7, "Serial No", "1", 0, "L", false, 0, "")
	pdf.CellFormat(col[3], 7, "Valid Until", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for i := range w.Parts {
		p := &w.Parts[i]
		if p.Warranty == nil {
			p.Warranty = w
		}
		part, film, serial, until := "", "", "", ""
		if p.CarPart != nil {
			part = p.CarPart.Name
		}
		if p.ProductAllocation != nil && p.ProductAllocation.Product != nil {
			film = p.ProductAllocation.Product.DisplayName()
			serial = p.ProductAllocation.Product.FilmSerialNumber
		}
		if exp, ok := p.ExpiresAt(); ok {
			until = exp.Format("02 Jan 2006")
		}
		pdf.CellFormat(col[0], 6, part, "1", 0, "L", false, 0, "")
		pdf.CellFormat(col[1], 6, film, "1", 0, "L", false, 0, "")
		pdf.CellFormat(col[2], 6, serial, "1", 0, "L", false, 0, "")
		pdf.CellFormat(col[3], 6, until, "1", 1, "L", false, 0, "")
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(contentW, 4,
		"Coverage applies to the listed parts only and is void if the film is removed or "+
			"reinstalled by a party other than an authorised installer.", "", "L", false)
	pdf.CellFormat(contentW, 5, "Issued "+time.Now().Format("02 Jan 2006"), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
