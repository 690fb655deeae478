package ledger_repo

import (
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/stock"
	"tillbook/internal/infrastructure/storage/postgres"
)

// Quantities are stored as BIGINT in 1e-4 units; scan rows carry the raw
// value and convert at the boundary.

type stockMovementRow struct {
	ID          id.ID     `db:"id"`
	ProductID   id.ID     `db:"product_id"`
	WarehouseID id.ID     `db:"warehouse_id"`
	LocationID  id.ID     `db:"location_id"`
	Lot         string    `db:"lot"`
	Serial      string    `db:"serial"`
	Direction   string    `db:"direction"`
	Quantity    int64     `db:"quantity"`
	UnitCost    types.Money `db:"unit_cost"`
	RefType     string    `db:"reference_type"`
	RefID       string    `db:"reference_id"`
	ReversesID  id.ID     `db:"reverses_id"`
	OccurredAt  time.Time `db:"occurred_at"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r stockMovementRow) toDomain() stock.Movement {
	return stock.Movement{
		ID: r.ID,
		BucketKey: stock.BucketKey{
			ProductID:   r.ProductID,
			WarehouseID: r.WarehouseID,
			LocationID:  r.LocationID,
			Lot:         r.Lot,
			Serial:      r.Serial,
		},
		Direction:     stock.Direction(r.Direction),
		Quantity:      types.NewQuantityFromInt64Scaled(r.Quantity),
		UnitCost:      r.UnitCost,
		ReferenceType: r.RefType,
		ReferenceID:   r.RefID,
		ReversesID:    r.ReversesID,
		OccurredAt:    r.OccurredAt,
		CreatedAt:     r.CreatedAt,
	}
}

func toDomainMovements(rows []stockMovementRow) []stock.Movement {
	out := make([]stock.Movement, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

type stockAggregateRow struct {
	ProductID        id.ID      `db:"product_id"`
	WarehouseID      id.ID      `db:"warehouse_id"`
	LocationID       id.ID      `db:"location_id"`
	Lot              string     `db:"lot"`
	Serial           string     `db:"serial"`
	CurrentQuantity  int64      `db:"current_quantity"`
	ReservedQuantity int64      `db:"reserved_quantity"`
	ExpirationDate   *time.Time `db:"expiration_date"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r stockAggregateRow) toDomain() stock.Aggregate {
	return stock.Aggregate{
		BucketKey: stock.BucketKey{
			ProductID:   r.ProductID,
			WarehouseID: r.WarehouseID,
			LocationID:  r.LocationID,
			Lot:         r.Lot,
			Serial:      r.Serial,
		},
		CurrentQuantity:  types.NewQuantityFromInt64Scaled(r.CurrentQuantity),
		ReservedQuantity: types.NewQuantityFromInt64Scaled(r.ReservedQuantity),
		ExpirationDate:   r.ExpirationDate,
		UpdatedAt:        r.UpdatedAt,
	}
}

type productTotalRow struct {
	ProductID     id.ID     `db:"product_id"`
	TotalQuantity int64     `db:"total_quantity"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r productTotalRow) toDomain() stock.ProductTotal {
	return stock.ProductTotal{
		ProductID:     r.ProductID,
		TotalQuantity: types.NewQuantityFromInt64Scaled(r.TotalQuantity),
		UpdatedAt:     r.UpdatedAt,
	}
}

func wrapStorage(op string, err error) error {
	return postgres.WrapError(op, err)
}
