// Package order provides sale and purchase orders whose totals are always
// recomputed in full from the current line set.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Kind distinguishes sales from purchases.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// Valid reports whether k is a known order kind.
func (k Kind) Valid() bool {
	return k == KindSale || k == KindPurchase
}

// Status is the order lifecycle state. Draft orders accept line changes;
// finalized orders are immutable and have produced their ledger movements.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// Line is one order position. LineTotal is derived, never entered.
type Line struct {
	ID        id.ID `db:"id" json:"id"`
	OrderID   id.ID `db:"order_id" json:"orderId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity      types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice     types.Money    `db:"unit_price" json:"unitPrice"`
	DiscountPct   types.Money    `db:"discount_pct" json:"discountPct"`
	DiscountFixed types.Money    `db:"discount_fixed" json:"discountFixed"`
	TaxRate       types.Money    `db:"tax_rate" json:"taxRate"`

	LineTotal types.Money `db:"line_total" json:"lineTotal"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Total computes quantity*price less discounts, before tax. Percentage
// discount applies first, then the fixed discount; the result never drops
// below zero.
func (l Line) Total() types.Money {
	gross := l.UnitPrice.Mul(l.Quantity.Decimal())
	discounted := gross.Sub(gross.Mul(l.DiscountPct).Div(decimal.NewFromInt(100)))
	discounted = discounted.Sub(l.DiscountFixed)
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

// Tax computes the tax portion for the line.
func (l Line) Tax() types.Money {
	return l.Total().Mul(l.TaxRate).Div(decimal.NewFromInt(100))
}

// Order is a sale or purchase document. Subtotal, TaxTotal and GrandTotal
// are derived from the line set on every change, never adjusted
// incrementally.
type Order struct {
	ID         id.ID  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	Kind       Kind   `db:"kind" json:"kind"`
	Status     Status `db:"status" json:"status"`
	CustomerID id.ID  `db:"customer_id" json:"customerId,omitempty"`

	Subtotal   types.Money `db:"subtotal" json:"subtotal"`
	Discount   types.Money `db:"discount" json:"discount"`
	TaxTotal   types.Money `db:"tax_total" json:"taxTotal"`
	GrandTotal types.Money `db:"grand_total" json:"grandTotal"`

	Lines []Line `db:"-" json:"lines"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	FinalizedAt *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`
}

// CanModify reports whether lines may still be applied or removed.
func (o Order) CanModify() bool {
	return o.Status == StatusDraft
}

// Recalculate recomputes all totals from the full line set. Applying the
// same line state twice yields identical totals. The order-level Discount
// is subtracted after line discounts; the grand total never drops below
// zero.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range o.Lines {
		o.Lines[i].LineTotal = o.Lines[i].Total()
		subtotal = subtotal.Add(o.Lines[i].LineTotal)
		taxTotal = taxTotal.Add(o.Lines[i].Tax())
	}
	o.Subtotal = subtotal
	o.TaxTotal = taxTotal
	o.GrandTotal = subtotal.Sub(o.Discount).Add(taxTotal)
	if o.GrandTotal.IsNegative() {
		o.GrandTotal = decimal.Zero
	}
}

// UpsertLine replaces the line for the product, or appends it. Quantities
// do not accumulate: the incoming line states the full desired position.
func (o *Order) UpsertLine(line Line) {
	for i := range o.Lines {
		if o.Lines[i].ProductID == line.ProductID {
			line.ID = o.Lines[i].ID
			line.CreatedAt = o.Lines[i].CreatedAt
			o.Lines[i] = line
			o.Recalculate()
			return
		}
	}
	o.Lines = append(o.Lines, line)
	o.Recalculate()
}

// RemoveLine deletes the line for the product. Reports whether a line was
// present.
func (o *Order) RemoveLine(productID id.ID) bool {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.Recalculate()
			return true
		}
	}
	return false
}
