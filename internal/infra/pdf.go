package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"cuentame/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerarComprobantePDF writes an A5 receipt for the order into dir
// (created if needed) and returns the file path. Lines must be preloaded.
func GenerarComprobantePDF(orden *model.OrdenCompra, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(dir, fmt.Sprintf("orden_%s.pdf", orden.ID))

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, "Cuenta-Me", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Comprobante de orden de compra"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Orden "+orden.ID.String(), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, orden.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Estado: "+orden.Estado, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Entrega: "+orden.TipoEntrega, "", 1, "L", false, 0, "")
	if d := orden.Direccion; d != nil {
		dir := d.CallePrincipal
		if d.CalleSecundaria != nil && *d.CalleSecundaria != "" {
			dir += " y " + *d.CalleSecundaria
		}
		dir += " " + d.NumeroCasa + ", " + d.Parroquia
		pdf.MultiCell(contentW, 4, tr(fmt.Sprintf("%s: %s", d.Alias, dir)), "", "L", false)
	}
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Lines ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.12
	col3 := contentW * 0.19
	col4 := contentW * 0.19

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, tr("Artículo"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "P. Unit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, l := range orden.Lineas {
		nombre := nombreLinea(l)
		if r := []rune(nombre); len(r) > 34 {
			nombre = string(r[:33]) + "..."
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("%d", l.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+l.PrecioUnitario.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, "$"+l.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2+col3, 7, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 7, "$"+orden.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por elegir un regalo hecho a mano!"), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func nombreLinea(l model.OrdenLinea) string {
	switch {
	case l.CajaPredefinida != nil:
		return l.CajaPredefinida.Nombre
	case l.CajaPersonalizada != nil:
		return l.CajaPersonalizada.Nombre
	case l.Producto != nil:
		return l.Producto.Nombre
	}
	return l.Tipo
}
