// Package catalog provides the read-only directory of reference entities.
// The ledger consults it for existence checks and per-product policy; it
// never writes here.
package catalog

import (
	"context"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Product is a sellable or stockable item.
type Product struct {
	ID   id.ID  `db:"id" json:"id"`
	SKU  string `db:"sku" json:"sku"`
	Name string `db:"name" json:"name"`

	// TrackLots / TrackSerials control whether movements must carry
	// lot or serial dimensions for this product.
	TrackLots    bool `db:"track_lots" json:"trackLots"`
	TrackSerials bool `db:"track_serials" json:"trackSerials"`

	// AllowNegativeStock gates the stock-sufficiency invariant. Default is
	// false: OUT movements that would drive a bucket negative are rejected.
	// When true the movement proceeds and an out-of-stock notification is
	// raised instead.
	AllowNegativeStock bool `db:"allow_negative_stock" json:"allowNegativeStock"`
}

// Warehouse is a physical stock-holding site.
type Warehouse struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Location is an optional bin/shelf inside a warehouse.
type Location struct {
	ID          id.ID  `db:"id" json:"id"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Code        string `db:"code" json:"code"`
}

// Customer is a directory entry for an account holder.
type Customer struct {
	ID          id.ID       `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`
}

// Register is a physical cash register (point of sale).
type Register struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Directory is the existence-lookup surface the ledger validates against.
// Implementations return apperror.NewNotFound for unknown ids.
type Directory interface {
	ProductByID(ctx context.Context, productID id.ID) (Product, error)
	WarehouseByID(ctx context.Context, warehouseID id.ID) (Warehouse, error)
	LocationByID(ctx context.Context, locationID id.ID) (Location, error)
	CustomerByID(ctx context.Context, customerID id.ID) (Customer, error)
	RegisterByID(ctx context.Context, registerID id.ID) (Register, error)
}
