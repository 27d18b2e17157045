// Package export renders purchase orders into files for external systems.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/erp/procurement/internal/domain/procurement"
)

// ConcurContentType is the MIME type of a Concur export
const ConcurContentType = "text/csv; charset=utf-8"

// ConcurHeader is the first row of every Concur export
var ConcurHeader = []string{"PO Number", "Supplier", "Item Name", "SKU", "Quantity", "Unit Price", "Total Price"}

// ConcurFilename returns the download name for an order's Concur export
func ConcurFilename(o *procurement.PurchaseOrder) string {
	return fmt.Sprintf("%s_concur_export.csv", o.ExportID())
}

// ConcurCSV writes one row per order line. The PO Number column carries the
// line's Concur reference once linked and the order's display ID before that.
// Fields are quoted per RFC 4180.
func ConcurCSV(o *procurement.PurchaseOrder) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ConcurHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, line := range o.Lines {
		poNumber := line.ConcurPONumber
		if poNumber == "" {
			poNumber = o.ExportID()
		}
		row := []string{
			poNumber,
			o.SupplierName,
			line.ItemName,
			line.SKU,
			strconv.Itoa(line.QuantityOrdered),
			line.UnitPrice.StringFixed(2),
			line.TotalPrice.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write line %s: %w", line.SKU, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
