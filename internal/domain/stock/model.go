// Package stock provides the stock movement log and derived aggregates.
package stock

import (
	"fmt"
	"strings"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Direction defines movement direction. The sign of a movement is always
// carried here, never as a signed quantity, so replay and audit cannot
// flip signs.
type Direction string

const (
	// DirectionIn increases the bucket balance
	DirectionIn Direction = "in"
	// DirectionOut decreases the bucket balance
	DirectionOut Direction = "out"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// BucketKey identifies one stock aggregate: the exact
// (product, warehouse, location?, lot?, serial?) combination.
// Unset optional dimensions are part of the identity.
type BucketKey struct {
	ProductID   id.ID  `db:"product_id" json:"productId"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	LocationID  id.ID  `db:"location_id" json:"locationId,omitempty"`
	Lot         string `db:"lot" json:"lot,omitempty"`
	Serial      string `db:"serial" json:"serial,omitempty"`
}

// String renders a canonical lock key for the bucket.
func (k BucketKey) String() string {
	var b strings.Builder
	b.WriteString(k.ProductID.String())
	b.WriteByte('/')
	b.WriteString(k.WarehouseID.String())
	if !id.IsNil(k.LocationID) {
		b.WriteByte('/')
		b.WriteString(k.LocationID.String())
	}
	if k.Lot != "" {
		fmt.Fprintf(&b, "/lot=%s", k.Lot)
	}
	if k.Serial != "" {
		fmt.Fprintf(&b, "/sn=%s", k.Serial)
	}
	return b.String()
}

// Movement is one immutable entry in the stock log. Corrections are new
// inverse-direction movements referencing the original id; nothing is ever
// updated or deleted.
type Movement struct {
	ID id.ID `db:"id" json:"id"`

	BucketKey

	Direction Direction      `db:"direction" json:"direction"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitCost  types.Money    `db:"unit_cost" json:"unitCost"`

	// ReferenceType/ReferenceID tie the movement to its business document
	// (sale, purchase receipt, adjustment) and double as the idempotency key.
	ReferenceType string `db:"reference_type" json:"referenceType"`
	ReferenceID   string `db:"reference_id" json:"referenceId"`

	// ReversesID links a correcting movement to the original.
	ReversesID id.ID `db:"reverses_id" json:"reversesId,omitempty"`

	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SignedQuantity returns quantity with sign derived from direction.
func (m Movement) SignedQuantity() types.Quantity {
	if m.Direction == DirectionOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Inverse builds the compensating movement for m, referencing the original.
func (m Movement) Inverse(reference string) Movement {
	dir := DirectionIn
	if m.Direction == DirectionIn {
		dir = DirectionOut
	}
	return Movement{
		ID:            id.New(),
		BucketKey:     m.BucketKey,
		Direction:     dir,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		ReferenceType: "reversal",
		ReferenceID:   reference,
		ReversesID:    m.ID,
		OccurredAt:    time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
	}
}

// Aggregate is the derived balance of one bucket. Its CurrentQuantity
// always equals the signed sum of all movements sharing the exact key.
type Aggregate struct {
	BucketKey

	CurrentQuantity  types.Quantity `db:"current_quantity" json:"currentQuantity"`
	ReservedQuantity types.Quantity `db:"reserved_quantity" json:"reservedQuantity"`

	ExpirationDate *time.Time `db:"expiration_date" json:"expirationDate,omitempty"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// Available returns current minus reserved quantity.
func (a Aggregate) Available() types.Quantity {
	return a.CurrentQuantity - a.ReservedQuantity
}

// ProductTotal is the product-level roll-up across every bucket.
type ProductTotal struct {
	ProductID     id.ID          `db:"product_id" json:"productId"`
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}
