package ledger_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/catalog"
	"tillbook/internal/infrastructure/storage/postgres"
)

// Directory implements catalog.Directory against the cat_* tables.
type Directory struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewDirectory creates the postgres directory.
func NewDirectory(txm *postgres.TxManager) *Directory {
	return &Directory{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ProductByID implements catalog.Directory.
func (d *Directory) ProductByID(ctx context.Context, productID id.ID) (catalog.Product, error) {
	q := d.builder.Select(
		"id", "sku", "name", "track_lots", "track_serials", "allow_negative_stock",
	).From("cat_products").Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Product{}, err
	}

	var p catalog.Product
	if err := pgxscan.Get(ctx, d.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return catalog.Product{}, apperror.NewNotFound("product", productID)
		}
		return catalog.Product{}, wrapStorage("get product", err)
	}
	return p, nil
}

// WarehouseByID implements catalog.Directory.
func (d *Directory) WarehouseByID(ctx context.Context, warehouseID id.ID) (catalog.Warehouse, error) {
	q := d.builder.Select("id", "code", "name").
		From("cat_warehouses").Where(squirrel.Eq{"id": warehouseID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Warehouse{}, err
	}

	var w catalog.Warehouse
	if err := pgxscan.Get(ctx, d.txm.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return catalog.Warehouse{}, apperror.NewNotFound("warehouse", warehouseID)
		}
		return catalog.Warehouse{}, wrapStorage("get warehouse", err)
	}
	return w, nil
}

// LocationByID implements catalog.Directory.
func (d *Directory) LocationByID(ctx context.Context, locationID id.ID) (catalog.Location, error) {
	q := d.builder.Select("id", "warehouse_id", "code").
		From("cat_locations").Where(squirrel.Eq{"id": locationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Location{}, err
	}

	var l catalog.Location
	if err := pgxscan.Get(ctx, d.txm.GetQuerier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return catalog.Location{}, apperror.NewNotFound("location", locationID)
		}
		return catalog.Location{}, wrapStorage("get location", err)
	}
	return l, nil
}

// CustomerByID implements catalog.Directory.
func (d *Directory) CustomerByID(ctx context.Context, customerID id.ID) (catalog.Customer, error) {
	q := d.builder.Select("id", "name", "credit_limit").
		From("cat_customers").Where(squirrel.Eq{"id": customerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Customer{}, err
	}

	var c catalog.Customer
	if err := pgxscan.Get(ctx, d.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return catalog.Customer{}, apperror.NewNotFound("customer", customerID)
		}
		return catalog.Customer{}, wrapStorage("get customer", err)
	}
	return c, nil
}

// RegisterByID implements catalog.Directory.
func (d *Directory) RegisterByID(ctx context.Context, registerID id.ID) (catalog.Register, error) {
	q := d.builder.Select("id", "code", "name").
		From("cat_registers").Where(squirrel.Eq{"id": registerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Register{}, err
	}

	var r catalog.Register
	if err := pgxscan.Get(ctx, d.txm.GetQuerier(ctx), &r, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return catalog.Register{}, apperror.NewNotFound("register", registerID)
		}
		return catalog.Register{}, wrapStorage("get register", err)
	}
	return r, nil
}

// Ensure interface compliance.
var _ catalog.Directory = (*Directory)(nil)
