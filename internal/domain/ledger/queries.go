package ledger

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/order"
	"tillbook/internal/domain/stock"
	"tillbook/pkg/logger"
)

// Read-side operations. Queries never take aggregate locks; they read the
// projected state as of the last committed unit of work.

// StockByBucket returns the aggregate for one exact bucket.
func (s *Service) StockByBucket(ctx context.Context, key stock.BucketKey) (stock.Aggregate, error) {
	return s.stocks.GetAggregate(ctx, key)
}

// ProductStock returns the product roll-up and every non-empty bucket.
func (s *Service) ProductStock(ctx context.Context, productID id.ID) (stock.ProductTotal, []stock.Aggregate, error) {
	if _, err := s.directory.ProductByID(ctx, productID); err != nil {
		return stock.ProductTotal{}, nil, err
	}
	total, err := s.stocks.GetProductTotal(ctx, productID)
	if err != nil {
		return stock.ProductTotal{}, nil, err
	}
	buckets, err := s.stocks.AggregatesByProduct(ctx, productID)
	if err != nil {
		return stock.ProductTotal{}, nil, err
	}
	return total, buckets, nil
}

// WarehouseStock returns every non-empty bucket in a warehouse.
func (s *Service) WarehouseStock(ctx context.Context, warehouseID id.ID) ([]stock.Aggregate, error) {
	if _, err := s.directory.WarehouseByID(ctx, warehouseID); err != nil {
		return nil, err
	}
	return s.stocks.AggregatesByWarehouse(ctx, warehouseID)
}

// MovementHistory returns the movement log for a product, filtered.
func (s *Service) MovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	if _, err := s.directory.ProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.stocks.MovementsByProduct(ctx, productID, filter)
}

// ProductTurnover sums inflow and outflow for a product over a period and
// derives opening and closing balances from the movement log.
func (s *Service) ProductTurnover(ctx context.Context, productID id.ID, from, to time.Time) (stock.Turnover, error) {
	if _, err := s.directory.ProductByID(ctx, productID); err != nil {
		return stock.Turnover{}, err
	}
	if !to.After(from) {
		return stock.Turnover{}, apperror.NewValidation("turnover period end must be after start")
	}

	movements, err := s.stocks.MovementsByProduct(ctx, productID, stock.MovementFilter{ToDate: &to})
	if err != nil {
		return stock.Turnover{}, err
	}

	t := stock.Turnover{ProductID: productID}
	for _, m := range movements {
		switch {
		case m.OccurredAt.Before(from):
			t.OpeningBalance += m.SignedQuantity()
		case m.Direction == stock.DirectionIn:
			t.Inflow += m.Quantity
		default:
			t.Outflow += m.Quantity
		}
	}
	t.ClosingBalance = t.OpeningBalance + t.Inflow - t.Outflow
	return t, nil
}

// AccountStatement returns the customer balance and full ledger.
func (s *Service) AccountStatement(ctx context.Context, customerID id.ID) (account.Account, []account.Movement, error) {
	customer, err := s.directory.CustomerByID(ctx, customerID)
	if err != nil {
		return account.Account{}, nil, err
	}
	acct, err := s.accounts.GetAccount(ctx, customerID)
	if err != nil {
		return account.Account{}, nil, err
	}
	acct.CreditLimit = customer.CreditLimit

	movements, err := s.accounts.MovementsByCustomer(ctx, customerID)
	if err != nil {
		return account.Account{}, nil, err
	}
	return acct, movements, nil
}

// GetOrder returns an order with its lines.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	return s.orders.List(ctx, filter)
}

// GetCashSession returns a session with its movement log.
func (s *Service) GetCashSession(ctx context.Context, sessionID id.ID) (*cashdesk.Session, []cashdesk.Movement, error) {
	session, err := s.cash.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	movements, err := s.cash.MovementsBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, movements, nil
}

// ListCashSessions returns sessions matching the filter.
func (s *Service) ListCashSessions(ctx context.Context, filter cashdesk.SessionFilter) ([]cashdesk.Session, error) {
	return s.cash.ListSessions(ctx, filter)
}

// RecalculateProductAggregates rebuilds every bucket aggregate and the
// product total by replaying the movement log. Used after manual data
// repair; under normal operation projection keeps aggregates exact.
func (s *Service) RecalculateProductAggregates(ctx context.Context, productID id.ID) (stock.ProductTotal, error) {
	if _, err := s.directory.ProductByID(ctx, productID); err != nil {
		return stock.ProductTotal{}, err
	}

	buckets, err := s.stocks.AggregatesByProduct(ctx, productID)
	if err != nil {
		return stock.ProductTotal{}, err
	}

	for _, b := range buckets {
		release, err := s.locks.Acquire(ctx, "stock:"+b.BucketKey.String())
		if err != nil {
			return stock.ProductTotal{}, err
		}
		defer release()
	}

	var total stock.ProductTotal
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		total = stock.ProductTotal{ProductID: productID, UpdatedAt: now}

		for _, b := range buckets {
			movements, err := s.stocks.MovementsByBucket(ctx, b.BucketKey)
			if err != nil {
				return err
			}
			agg := replayStock(b.BucketKey, movements, now)
			agg.ReservedQuantity = b.ReservedQuantity
			agg.ExpirationDate = b.ExpirationDate
			if err := s.stocks.SaveAggregate(ctx, agg); err != nil {
				return err
			}
			total.TotalQuantity += agg.CurrentQuantity
		}
		return s.stocks.SaveProductTotal(ctx, total)
	})
	if err != nil {
		return stock.ProductTotal{}, err
	}

	logger.Info(ctx, "product aggregates recalculated",
		"product_id", productID,
		"buckets", len(buckets),
		"total", total.TotalQuantity.String(),
	)
	return total, nil
}

// RecalculateAccount rebuilds the customer balance by replaying the ledger.
func (s *Service) RecalculateAccount(ctx context.Context, customerID id.ID) (account.Account, error) {
	customer, err := s.directory.CustomerByID(ctx, customerID)
	if err != nil {
		return account.Account{}, err
	}

	release, err := s.locks.Acquire(ctx, "account:"+customerID.String())
	if err != nil {
		return account.Account{}, err
	}
	defer release()

	var acct account.Account
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.accounts.GetAccountForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		current.CustomerID = customerID
		current.CreditLimit = customer.CreditLimit

		movements, err := s.accounts.MovementsByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		acct = replayAccount(current, movements, time.Now().UTC())
		return s.accounts.SaveAccount(ctx, acct)
	})
	if err != nil {
		return account.Account{}, err
	}
	return acct, nil
}
