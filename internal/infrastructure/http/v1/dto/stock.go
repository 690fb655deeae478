package dto

import (
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/stock"
)

// StockMovementRequest for POST /stock/movements.
type StockMovementRequest struct {
	ProductID   string `json:"productId" binding:"required"`
	WarehouseID string `json:"warehouseId" binding:"required"`
	LocationID  string `json:"locationId"`
	Lot         string `json:"lot"`
	Serial      string `json:"serial"`

	Direction string         `json:"direction" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
	UnitCost  types.Money    `json:"unitCost"`

	ReferenceType string `json:"referenceType" binding:"required"`
	ReferenceID   string `json:"referenceId" binding:"required"`

	OccurredAt string `json:"occurredAt"`
}

// ToCommand converts to the ledger command.
func (r StockMovementRequest) ToCommand() (ledger.StockMovementCommand, error) {
	var cmd ledger.StockMovementCommand

	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return cmd, err
	}
	warehouseID, err := ParseID("warehouseId", r.WarehouseID)
	if err != nil {
		return cmd, err
	}
	locationID, err := ParseOptionalID("locationId", r.LocationID)
	if err != nil {
		return cmd, err
	}
	occurredAt, err := ParseOptionalTime("occurredAt", r.OccurredAt)
	if err != nil {
		return cmd, err
	}

	return ledger.StockMovementCommand{
		Bucket: stock.BucketKey{
			ProductID:   productID,
			WarehouseID: warehouseID,
			LocationID:  locationID,
			Lot:         r.Lot,
			Serial:      r.Serial,
		},
		Direction:  stock.Direction(r.Direction),
		Quantity:   r.Quantity,
		UnitCost:   r.UnitCost,
		Reference:  ledger.Reference{Type: r.ReferenceType, ID: r.ReferenceID},
		OccurredAt: occurredAt,
	}, nil
}

// ReverseMovementRequest for POST /stock/movements/:id/reverse.
type ReverseMovementRequest struct {
	ReferenceType string `json:"referenceType" binding:"required"`
	ReferenceID   string `json:"referenceId" binding:"required"`
}

// StockQuery narrows bucket lookups via query parameters.
type StockQuery struct {
	WarehouseID string `form:"warehouseId" binding:"required"`
	LocationID  string `form:"locationId"`
	Lot         string `form:"lot"`
	Serial      string `form:"serial"`
}

// MovementHistoryQuery filters the movement log.
type MovementHistoryQuery struct {
	PaginationRequest
	WarehouseID string `form:"warehouseId"`
	Direction   string `form:"direction"`
	From        string `form:"from"`
	To          string `form:"to"`
}

// ToFilter converts to the domain filter.
func (q MovementHistoryQuery) ToFilter() (stock.MovementFilter, error) {
	q.Defaults()
	filter := stock.MovementFilter{Limit: q.Limit, Offset: q.Offset}

	if q.WarehouseID != "" {
		warehouseID, err := ParseID("warehouseId", q.WarehouseID)
		if err != nil {
			return filter, err
		}
		filter.WarehouseID = &warehouseID
	}
	if q.Direction != "" {
		d := stock.Direction(q.Direction)
		filter.Direction = &d
	}
	if q.From != "" {
		from, err := ParseOptionalTime("from", q.From)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &from
	}
	if q.To != "" {
		to, err := ParseOptionalTime("to", q.To)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &to
	}
	return filter, nil
}

// TurnoverQuery bounds a turnover report period.
type TurnoverQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// ProductStockResponse combines the roll-up with its buckets.
type ProductStockResponse struct {
	Total   stock.ProductTotal `json:"total"`
	Buckets []stock.Aggregate  `json:"buckets"`
}
