package dto

import (
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/order"
)

// CreateOrderRequest for POST /orders.
type CreateOrderRequest struct {
	Kind       string `json:"kind" binding:"required"`
	CustomerID string `json:"customerId"`
}

// ToCommand converts to the ledger command.
func (r CreateOrderRequest) ToCommand() (ledger.CreateOrderCommand, error) {
	customerID, err := ParseOptionalID("customerId", r.CustomerID)
	if err != nil {
		return ledger.CreateOrderCommand{}, err
	}
	return ledger.CreateOrderCommand{
		Kind:       order.Kind(r.Kind),
		CustomerID: customerID,
	}, nil
}

// OrderLineRequest for PUT /orders/:id/lines. The quantity states the full
// desired position; it never accumulates.
type OrderLineRequest struct {
	ProductID     string         `json:"productId" binding:"required"`
	Quantity      types.Quantity `json:"quantity"`
	UnitPrice     types.Money    `json:"unitPrice"`
	DiscountPct   types.Money    `json:"discountPct"`
	DiscountFixed types.Money    `json:"discountFixed"`
	TaxRate       types.Money    `json:"taxRate"`
}

// ToCommand converts to the ledger command.
func (r OrderLineRequest) ToCommand(orderID string) (ledger.ApplyOrderLineCommand, error) {
	var cmd ledger.ApplyOrderLineCommand

	parsedOrder, err := ParseID("orderId", orderID)
	if err != nil {
		return cmd, err
	}
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return cmd, err
	}

	return ledger.ApplyOrderLineCommand{
		OrderID:       parsedOrder,
		ProductID:     productID,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		DiscountPct:   r.DiscountPct,
		DiscountFixed: r.DiscountFixed,
		TaxRate:       r.TaxRate,
	}, nil
}

// OrderDiscountRequest for PUT /orders/:id/discount.
type OrderDiscountRequest struct {
	Discount types.Money `json:"discount"`
}

// ToCommand converts to the ledger command.
func (r OrderDiscountRequest) ToCommand(orderID string) (ledger.SetOrderDiscountCommand, error) {
	parsedOrder, err := ParseID("orderId", orderID)
	if err != nil {
		return ledger.SetOrderDiscountCommand{}, err
	}
	return ledger.SetOrderDiscountCommand{
		OrderID:  parsedOrder,
		Discount: r.Discount,
	}, nil
}

// FinalizeOrderRequest for POST /orders/:id/finalize.
type FinalizeOrderRequest struct {
	WarehouseID string `json:"warehouseId" binding:"required"`
}

// ListOrdersQuery filters order listings.
type ListOrdersQuery struct {
	PaginationRequest
	Kind       string `form:"kind"`
	Status     string `form:"status"`
	CustomerID string `form:"customerId"`
}

// ToFilter converts to the domain filter.
func (q ListOrdersQuery) ToFilter() (order.ListFilter, error) {
	q.Defaults()
	filter := order.ListFilter{Limit: q.Limit, Offset: q.Offset}

	if q.Kind != "" {
		k := order.Kind(q.Kind)
		filter.Kind = &k
	}
	if q.Status != "" {
		s := order.Status(q.Status)
		filter.Status = &s
	}
	if q.CustomerID != "" {
		customerID, err := ParseID("customerId", q.CustomerID)
		if err != nil {
			return filter, err
		}
		filter.CustomerID = &customerID
	}
	return filter, nil
}
