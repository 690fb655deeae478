// Package ledger_repo provides PostgreSQL implementations of the ledger
// repositories: the movement logs and their projected aggregates.
package ledger_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/id"
	"tillbook/internal/domain/stock"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "log_stock_movements"
	stockAggregatesTable = "reg_stock_aggregates"
	productTotalsTable  = "reg_product_totals"
)

var stockMovementColumns = []string{
	"id", "product_id", "warehouse_id", "location_id", "lot", "serial",
	"direction", "quantity", "unit_cost",
	"reference_type", "reference_id", "reverses_id",
	"occurred_at", "created_at",
}

var stockAggregateColumns = []string{
	"product_id", "warehouse_id", "location_id", "lot", "serial",
	"current_quantity", "reserved_quantity", "expiration_date", "updated_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AppendMovement inserts one log entry. The movement table carries a unique
// index on (reference_type, reference_id); a duplicate surfaces as Conflict.
func (r *StockRepo) AppendMovement(ctx context.Context, m stock.Movement) error {
	q := r.builder.Insert(stockMovementsTable).
		Columns(stockMovementColumns...).
		Values(
			m.ID, m.ProductID, m.WarehouseID, m.LocationID, m.Lot, m.Serial,
			m.Direction, m.Quantity.Int64Scaled(), m.UnitCost,
			m.ReferenceType, m.ReferenceID, m.ReversesID,
			m.OccurredAt, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return wrapStorage("insert stock movement", err)
	}
	return nil
}

// FindMovementByReference implements stock.Repository.
func (r *StockRepo) FindMovementByReference(ctx context.Context, refType, refID string) (*stock.Movement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"reference_type": refType, "reference_id": refID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var row stockMovementRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, wrapStorage("find stock movement by reference", err)
	}
	m := row.toDomain()
	return &m, nil
}

// GetMovement implements stock.Repository.
func (r *StockRepo) GetMovement(ctx context.Context, movementID id.ID) (*stock.Movement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var row stockMovementRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, wrapStorage("get stock movement", err)
	}
	m := row.toDomain()
	return &m, nil
}

// MovementsByBucket implements stock.Repository.
func (r *StockRepo) MovementsByBucket(ctx context.Context, key stock.BucketKey) ([]stock.Movement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(bucketEq(key)).
		OrderBy("occurred_at", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []stockMovementRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, wrapStorage("select bucket movements", err)
	}
	return toDomainMovements(rows), nil
}

// MovementsByProduct implements stock.Repository.
func (r *StockRepo) MovementsByProduct(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"occurred_at": *filter.ToDate})
	}

	q = q.OrderBy("occurred_at", "created_at")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []stockMovementRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, wrapStorage("select product movements", err)
	}
	return toDomainMovements(rows), nil
}

// GetAggregate implements stock.Repository.
func (r *StockRepo) GetAggregate(ctx context.Context, key stock.BucketKey) (stock.Aggregate, error) {
	return r.getAggregate(ctx, key, false)
}

// GetAggregateForUpdate implements stock.Repository. The FOR UPDATE row
// lock holds until the unit of work commits.
func (r *StockRepo) GetAggregateForUpdate(ctx context.Context, key stock.BucketKey) (stock.Aggregate, error) {
	return r.getAggregate(ctx, key, true)
}

func (r *StockRepo) getAggregate(ctx context.Context, key stock.BucketKey, forUpdate bool) (stock.Aggregate, error) {
	q := r.builder.Select(stockAggregateColumns...).
		From(stockAggregatesTable).
		Where(bucketEq(key)).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.Aggregate{}, err
	}

	var row stockAggregateRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Aggregate{BucketKey: key}, nil
		}
		return stock.Aggregate{}, wrapStorage("get stock aggregate", err)
	}
	return row.toDomain(), nil
}

// SaveAggregate implements stock.Repository.
func (r *StockRepo) SaveAggregate(ctx context.Context, a stock.Aggregate) error {
	sql := `
		INSERT INTO reg_stock_aggregates (
			product_id, warehouse_id, location_id, lot, serial,
			current_quantity, reserved_quantity, expiration_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_id, warehouse_id, location_id, lot, serial)
		DO UPDATE SET
			current_quantity = EXCLUDED.current_quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			expiration_date = EXCLUDED.expiration_date,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		a.ProductID, a.WarehouseID, a.LocationID, a.Lot, a.Serial,
		a.CurrentQuantity.Int64Scaled(), a.ReservedQuantity.Int64Scaled(),
		a.ExpirationDate, a.UpdatedAt,
	)
	if err != nil {
		return wrapStorage("save stock aggregate", err)
	}
	return nil
}

// GetProductTotal implements stock.Repository.
func (r *StockRepo) GetProductTotal(ctx context.Context, productID id.ID) (stock.ProductTotal, error) {
	q := r.builder.Select("product_id", "total_quantity", "updated_at").
		From(productTotalsTable).
		Where(squirrel.Eq{"product_id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.ProductTotal{}, err
	}

	var row productTotalRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.ProductTotal{ProductID: productID}, nil
		}
		return stock.ProductTotal{}, wrapStorage("get product total", err)
	}
	return row.toDomain(), nil
}

// SaveProductTotal implements stock.Repository.
func (r *StockRepo) SaveProductTotal(ctx context.Context, t stock.ProductTotal) error {
	sql := `
		INSERT INTO reg_product_totals (product_id, total_quantity, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET
			total_quantity = EXCLUDED.total_quantity,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		t.ProductID, t.TotalQuantity.Int64Scaled(), t.UpdatedAt,
	)
	if err != nil {
		return wrapStorage("save product total", err)
	}
	return nil
}

// AggregatesByProduct implements stock.Repository.
func (r *StockRepo) AggregatesByProduct(ctx context.Context, productID id.ID) ([]stock.Aggregate, error) {
	return r.selectAggregates(ctx, squirrel.Eq{"product_id": productID}, "warehouse_id")
}

// AggregatesByWarehouse implements stock.Repository.
func (r *StockRepo) AggregatesByWarehouse(ctx context.Context, warehouseID id.ID) ([]stock.Aggregate, error) {
	return r.selectAggregates(ctx, squirrel.Eq{"warehouse_id": warehouseID}, "product_id")
}

func (r *StockRepo) selectAggregates(ctx context.Context, where squirrel.Eq, orderBy string) ([]stock.Aggregate, error) {
	q := r.builder.Select(stockAggregateColumns...).
		From(stockAggregatesTable).
		Where(where).
		Where(squirrel.NotEq{"current_quantity": int64(0)}).
		OrderBy(orderBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []stockAggregateRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, wrapStorage("select stock aggregates", err)
	}

	out := make([]stock.Aggregate, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// bucketEq builds the exact-key predicate. Empty optional dimensions are
// stored as the zero uuid / empty string, so plain equality matches.
func bucketEq(key stock.BucketKey) squirrel.Eq {
	return squirrel.Eq{
		"product_id":   key.ProductID,
		"warehouse_id": key.WarehouseID,
		"location_id":  key.LocationID,
		"lot":          key.Lot,
		"serial":       key.Serial,
	}
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
