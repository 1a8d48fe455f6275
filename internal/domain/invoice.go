package domain

import (
	"strconv"
	"strings"
	"time"
)

// Invoice is the printable record of an order.
type Invoice struct {
	InvoiceNumber string        `json:"invoiceNumber"`
	OrderID       string        `json:"orderId"`
	IssuedAt      time.Time     `json:"issuedAt"`
	BillTo        *Address      `json:"billTo,omitempty"`
	Lines         []InvoiceLine `json:"lines"`
	Total         int64         `json:"total"`
	PaymentMethod string        `json:"paymentMethod"`
	PaymentStatus string        `json:"paymentStatus"`
}

// InvoiceLine is one row of an invoice.
type InvoiceLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
}

// NewInvoice derives an invoice from a loaded order. The number is stable
// for a given order: INV-<order date>-<first 8 hex digits of the id>.
func NewInvoice(o *Order) *Invoice {
	lines := make([]InvoiceLine, len(o.Items))
	for i, it := range o.Items {
		name := it.ProductName
		if name == "" {
			name = "Product #" + strconv.FormatInt(it.ProductID, 10)
		}
		lines[i] = InvoiceLine{
			Name:      name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			LineTotal: it.LineTotal(),
		}
	}

	short := strings.ReplaceAll(o.ID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}

	return &Invoice{
		InvoiceNumber: "INV-" + o.CreatedAt.UTC().Format("20060102") + "-" + strings.ToUpper(short),
		OrderID:       o.ID,
		IssuedAt:      o.CreatedAt,
		BillTo:        o.ShippingAddress,
		Lines:         lines,
		Total:         o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
	}
}
