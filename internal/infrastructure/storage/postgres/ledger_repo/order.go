package ledger_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/order"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderLinesTable = "doc_order_lines"
)

var orderColumns = []string{
	"id", "number", "kind", "status", "customer_id",
	"subtotal", "discount", "tax_total", "grand_total",
	"created_at", "updated_at", "finalized_at",
}

// OrderRepo implements order.Repository. Lines are replaced wholesale on
// save: totals are recomputed from the full line set, so partial line
// updates have no meaning at the storage level.
type OrderRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewOrderRepo creates an order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type orderLineRow struct {
	ID            id.ID       `db:"id"`
	OrderID       id.ID       `db:"order_id"`
	ProductID     id.ID       `db:"product_id"`
	Quantity      int64       `db:"quantity"`
	UnitPrice     types.Money `db:"unit_price"`
	DiscountPct   types.Money `db:"discount_pct"`
	DiscountFixed types.Money `db:"discount_fixed"`
	TaxRate       types.Money `db:"tax_rate"`
	LineTotal     types.Money `db:"line_total"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r orderLineRow) toDomain() order.Line {
	return order.Line{
		ID:            r.ID,
		OrderID:       r.OrderID,
		ProductID:     r.ProductID,
		Quantity:      types.NewQuantityFromInt64Scaled(r.Quantity),
		UnitPrice:     r.UnitPrice,
		DiscountPct:   r.DiscountPct,
		DiscountFixed: r.DiscountFixed,
		TaxRate:       r.TaxRate,
		LineTotal:     r.LineTotal,
		CreatedAt:     r.CreatedAt,
	}
}

// Create implements order.Repository.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	q := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.Number, o.Kind, o.Status, o.CustomerID,
			o.Subtotal, o.Discount, o.TaxTotal, o.GrandTotal,
			o.CreatedAt, o.UpdatedAt, o.FinalizedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return wrapStorage("insert order", err)
	}
	return r.saveLines(ctx, o)
}

// Get implements order.Repository.
func (r *OrderRepo) Get(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.get(ctx, orderID, false)
}

// GetForUpdate implements order.Repository.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.get(ctx, orderID, true)
}

func (r *OrderRepo) get(ctx context.Context, orderID id.ID, forUpdate bool) (*order.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var o order.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, wrapStorage("get order", err)
	}

	lines, err := r.loadLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *OrderRepo) loadLines(ctx context.Context, orderID id.ID) ([]order.Line, error) {
	q := r.builder.Select(
		"id", "order_id", "product_id", "quantity",
		"unit_price", "discount_pct", "discount_fixed", "tax_rate",
		"line_total", "created_at",
	).From(orderLinesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []orderLineRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, wrapStorage("select order lines", err)
	}

	lines := make([]order.Line, len(rows))
	for i, row := range rows {
		lines[i] = row.toDomain()
	}
	return lines, nil
}

// Save implements order.Repository.
func (r *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	q := r.builder.Update(ordersTable).
		Set("status", o.Status).
		Set("subtotal", o.Subtotal).
		Set("discount", o.Discount).
		Set("tax_total", o.TaxTotal).
		Set("grand_total", o.GrandTotal).
		Set("updated_at", o.UpdatedAt).
		Set("finalized_at", o.FinalizedAt).
		Where(squirrel.Eq{"id": o.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return wrapStorage("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", o.ID)
	}
	return r.saveLines(ctx, o)
}

func (r *OrderRepo) saveLines(ctx context.Context, o *order.Order) error {
	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, "DELETE FROM doc_order_lines WHERE order_id = $1", o.ID); err != nil {
		return wrapStorage("delete order lines", err)
	}
	if len(o.Lines) == 0 {
		return nil
	}

	q := r.builder.Insert(orderLinesTable).Columns(
		"id", "order_id", "product_id", "quantity",
		"unit_price", "discount_pct", "discount_fixed", "tax_rate",
		"line_total", "created_at",
	)
	for _, line := range o.Lines {
		q = q.Values(
			line.ID, o.ID, line.ProductID, line.Quantity.Int64Scaled(),
			line.UnitPrice, line.DiscountPct, line.DiscountFixed, line.TaxRate,
			line.LineTotal, line.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return wrapStorage("insert order lines", err)
	}
	return nil
}

// List implements order.Repository.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	q := r.builder.Select(orderColumns...).From(ordersTable)

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}

	q = q.OrderBy("created_at DESC")
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

	var orders []order.Order
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, wrapStorage("select orders", err)
	}
	return orders, nil
}

// Ensure interface compliance.
var _ order.Repository = (*OrderRepo)(nil)
