// Package invoice renders bills for people: the printable PDF and the text
// shared with a customer.
package invoice

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"billweave-backend/models"
	"billweave-backend/utils"

	"github.com/phpdave11/gofpdf"
)

const (
	fontFamily  = "Helvetica"
	marginLeft  = 20.0
	marginRight = 190.0
	dateLayout  = "02/01/2006"
)

// Item table column widths (mm); they fill the 170 mm between the margins.
var columnWidths = [4]float64{62, 18, 45, 45}

// ShopInfo is the letterhead printed on an invoice.
type ShopInfo struct {
	Name  string
	Email string
	// Location is used for the bill date; nil means UTC.
	Location *time.Location
}

// FileName is the download name of bill's PDF.
func FileName(bill *models.Bill) string {
	return "BillWeave_" + bill.BillNumber + ".pdf"
}

// RenderPDF writes bill as a one-or-more page A4 PDF to w.
func RenderPDF(w io.Writer, bill *models.Bill, shop ShopInfo) error {
	return render(w, bill, shop, true)
}

func render(w io.Writer, bill *models.Bill, shop ShopInfo, compress bool) error {
	loc := shop.Location
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetTitle("BillWeave Invoice "+bill.BillNumber, true)
	pdf.SetMargins(marginLeft, 15, 210-marginRight)
	pdf.SetAutoPageBreak(true, 32)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-22)
		pdf.SetFont(fontFamily, "B", 10)
		pdf.CellFormat(0, 6, "Thank You for your Business..!", "", 1, "C", false, 0, "")
		pdf.SetFont(fontFamily, "", 9)
		pdf.CellFormat(0, 5, "This bill is generated @ BillWeave", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Header
	pdf.SetFont(fontFamily, "B", 20)
	pdf.SetY(14)
	pdf.CellFormat(0, 10, tr(shop.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	if shop.Email != "" {
		pdf.CellFormat(0, 6, tr("Email: "+shop.Email), "", 1, "C", false, 0, "")
	}
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, 32, marginRight, 32)

	// Bill info
	pdf.SetFont(fontFamily, "", 11)
	pdf.SetY(37)
	for _, line := range []string{
		"Bill No: " + bill.BillNumber,
		"Date: " + bill.CreatedAt.In(loc).Format(dateLayout),
		"Customer: " + bill.CustomerName,
		"Phone: " + bill.CustomerPhone,
	} {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	// Items
	pdf.SetY(70)
	header := [4]string{"Item", "Qty", "Price(Rs.)", "Amount(Rs.)"}
	align := [4]string{"L", "C", "R", "R"}
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(0, 0, 0)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range header {
		pdf.CellFormat(columnWidths[i], 9, h, "1", 0, align[i], true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	for n, it := range bill.Items {
		style := ""
		row := [4]string{tr(it.Name), strconv.Itoa(it.Quantity), utils.Money(it.Price), utils.Money(it.Total)}
		for i, cell := range row {
			// The amount of the last row is bold, as a visual lead-in to the totals.
			if i == 3 && n == len(bill.Items)-1 {
				style = "B"
			}
			pdf.SetFont(fontFamily, style, 9)
			pdf.CellFormat(columnWidths[i], 8, cell, "1", 0, align[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Totals
	const labelX, labelW, amountW = 130.0, 30.0, 30.0
	pdf.Ln(6)
	pdf.SetFont(fontFamily, "", 11)
	totals := []struct{ label, amount string }{
		{"Subtotal:", "Rs." + utils.Money(bill.Subtotal)},
		{fmt.Sprintf("GST (%s%%):", bill.TaxPercentage.String()), "Rs." + utils.Money(bill.Tax)},
	}
	for _, t := range totals {
		pdf.SetX(labelX)
		pdf.CellFormat(labelW, 8, t.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 8, t.amount, "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont(fontFamily, "B", 11)
	pdf.SetX(labelX)
	pdf.CellFormat(labelW, 8, "Total:", "", 0, "L", false, 0, "")
	pdf.CellFormat(amountW, 8, "Rs."+utils.Money(bill.Total), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render invoice %s: %w", bill.BillNumber, err)
	}
	return pdf.Output(w)
}
