// Package ledger implements the consistency engine: every state change goes
// through one unit of work that validates invariants, appends to the
// movement log and projects the derived aggregates, serialized per
// aggregate key.
package ledger

import (
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/order"
	"tillbook/internal/domain/stock"
)

// Reference ties a movement to the business document that caused it and
// doubles as the idempotency key: retrying the same reference returns the
// already-recorded movement instead of writing a duplicate.
type Reference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Validate checks that both parts are present.
func (r Reference) Validate() error {
	if r.Type == "" {
		return apperror.NewValidation("reference type is required")
	}
	if r.ID == "" {
		return apperror.NewValidation("reference id is required")
	}
	return nil
}

// StockMovementCommand records one IN or OUT stock movement.
type StockMovementCommand struct {
	Bucket    stock.BucketKey `json:"bucket"`
	Direction stock.Direction `json:"direction"`
	Quantity  types.Quantity  `json:"quantity"`
	UnitCost  types.Money     `json:"unitCost"`
	Reference Reference       `json:"reference"`

	// OccurredAt is the business time; zero means now.
	OccurredAt time.Time `json:"occurredAt"`
}

// Validate checks structural correctness; existence and invariants are
// checked inside the unit of work.
func (c StockMovementCommand) Validate() error {
	if id.IsNil(c.Bucket.ProductID) {
		return apperror.NewValidation("product id is required")
	}
	if id.IsNil(c.Bucket.WarehouseID) {
		return apperror.NewValidation("warehouse id is required")
	}
	if !c.Direction.Valid() {
		return apperror.NewValidation("direction must be 'in' or 'out'")
	}
	if !c.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive; direction carries the sign")
	}
	if c.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative")
	}
	return c.Reference.Validate()
}

// AccountMovementCommand records one customer account movement.
type AccountMovementCommand struct {
	CustomerID      id.ID                       `json:"customerId"`
	Type            account.MovementType        `json:"type"`
	AdjustDirection account.AdjustmentDirection `json:"adjustDirection,omitempty"`
	Amount          types.Money                 `json:"amount"`
	Reference       Reference                   `json:"reference"`
	OccurredAt      time.Time                   `json:"occurredAt"`
}

// Validate checks structural correctness.
func (c AccountMovementCommand) Validate() error {
	if id.IsNil(c.CustomerID) {
		return apperror.NewValidation("customer id is required")
	}
	if !c.Type.Valid() {
		return apperror.NewValidation("type must be 'charge', 'payment' or 'adjustment'")
	}
	if c.Type == account.TypeAdjustment {
		if !c.AdjustDirection.Valid() {
			return apperror.NewValidation("adjustment direction must be 'increase' or 'decrease'")
		}
	} else if c.AdjustDirection != "" {
		return apperror.NewValidation("adjustment direction is only valid for adjustments")
	}
	if !c.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive; type carries the sign")
	}
	return c.Reference.Validate()
}

// CreateOrderCommand opens a draft order.
type CreateOrderCommand struct {
	Kind       order.Kind `json:"kind"`
	CustomerID id.ID      `json:"customerId,omitempty"`
}

// Validate checks structural correctness.
func (c CreateOrderCommand) Validate() error {
	if !c.Kind.Valid() {
		return apperror.NewValidation("kind must be 'sale' or 'purchase'")
	}
	return nil
}

// ApplyOrderLineCommand sets the full desired position for a product on a
// draft order. The quantity replaces any existing line, it never
// accumulates.
type ApplyOrderLineCommand struct {
	OrderID   id.ID `json:"orderId"`
	ProductID id.ID `json:"productId"`

	Quantity      types.Quantity `json:"quantity"`
	UnitPrice     types.Money    `json:"unitPrice"`
	DiscountPct   types.Money    `json:"discountPct"`
	DiscountFixed types.Money    `json:"discountFixed"`
	TaxRate       types.Money    `json:"taxRate"`
}

// Validate checks structural correctness.
func (c ApplyOrderLineCommand) Validate() error {
	if id.IsNil(c.OrderID) {
		return apperror.NewValidation("order id is required")
	}
	if id.IsNil(c.ProductID) {
		return apperror.NewValidation("product id is required")
	}
	if !c.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive")
	}
	if c.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative")
	}
	if c.DiscountPct.IsNegative() || c.DiscountFixed.IsNegative() || c.TaxRate.IsNegative() {
		return apperror.NewValidation("discounts and tax rate must not be negative")
	}
	return nil
}

// RemoveOrderLineCommand deletes a product line from a draft order.
type RemoveOrderLineCommand struct {
	OrderID   id.ID `json:"orderId"`
	ProductID id.ID `json:"productId"`
}

// Validate checks structural correctness.
func (c RemoveOrderLineCommand) Validate() error {
	if id.IsNil(c.OrderID) {
		return apperror.NewValidation("order id is required")
	}
	if id.IsNil(c.ProductID) {
		return apperror.NewValidation("product id is required")
	}
	return nil
}

// SetOrderDiscountCommand sets the order-level discount on a draft order.
type SetOrderDiscountCommand struct {
	OrderID  id.ID       `json:"orderId"`
	Discount types.Money `json:"discount"`
}

// Validate checks structural correctness.
func (c SetOrderDiscountCommand) Validate() error {
	if id.IsNil(c.OrderID) {
		return apperror.NewValidation("order id is required")
	}
	if c.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative")
	}
	return nil
}

// FinalizeOrderCommand freezes a draft order and records its stock
// movements against the given warehouse.
type FinalizeOrderCommand struct {
	OrderID     id.ID `json:"orderId"`
	WarehouseID id.ID `json:"warehouseId"`
}

// Validate checks structural correctness.
func (c FinalizeOrderCommand) Validate() error {
	if id.IsNil(c.OrderID) {
		return apperror.NewValidation("order id is required")
	}
	if id.IsNil(c.WarehouseID) {
		return apperror.NewValidation("warehouse id is required")
	}
	return nil
}

// OpenSessionCommand opens a cash session on a register.
type OpenSessionCommand struct {
	RegisterID     id.ID       `json:"registerId"`
	CashierID      string      `json:"cashierId"`
	OpeningBalance types.Money `json:"openingBalance"`
}

// Validate checks structural correctness.
func (c OpenSessionCommand) Validate() error {
	if id.IsNil(c.RegisterID) {
		return apperror.NewValidation("register id is required")
	}
	if c.CashierID == "" {
		return apperror.NewValidation("cashier id is required")
	}
	if c.OpeningBalance.IsNegative() {
		return apperror.NewValidation("opening balance must not be negative")
	}
	return nil
}

// CashMovementCommand records one cash movement against an open session.
type CashMovementCommand struct {
	SessionID       id.ID                        `json:"sessionId"`
	Type            cashdesk.MovementType        `json:"type"`
	AdjustDirection cashdesk.AdjustmentDirection `json:"adjustDirection,omitempty"`
	Amount          types.Money                  `json:"amount"`
	Concept         string                       `json:"concept"`
	Reference       Reference                    `json:"reference"`
	OccurredAt      time.Time                    `json:"occurredAt"`
}

// Validate checks structural correctness.
func (c CashMovementCommand) Validate() error {
	if id.IsNil(c.SessionID) {
		return apperror.NewValidation("session id is required")
	}
	if !c.Type.Valid() {
		return apperror.NewValidation("type must be 'sale', 'payment', 'expense' or 'adjustment'")
	}
	if c.Type == cashdesk.MovementAdjustment {
		if !c.AdjustDirection.Valid() {
			return apperror.NewValidation("adjustment direction must be 'increase' or 'decrease'")
		}
	} else if c.AdjustDirection != "" {
		return apperror.NewValidation("adjustment direction is only valid for adjustments")
	}
	if !c.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive; type carries the sign")
	}
	return c.Reference.Validate()
}

// CloseSessionCommand closes a session with the counted drawer amount.
type CloseSessionCommand struct {
	SessionID      id.ID       `json:"sessionId"`
	CountedBalance types.Money `json:"countedBalance"`
}

// Validate checks structural correctness.
func (c CloseSessionCommand) Validate() error {
	if id.IsNil(c.SessionID) {
		return apperror.NewValidation("session id is required")
	}
	if c.CountedBalance.IsNegative() {
		return apperror.NewValidation("counted balance must not be negative")
	}
	return nil
}
