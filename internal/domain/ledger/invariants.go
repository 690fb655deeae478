package ledger

import (
	"tillbook/internal/core/apperror"
	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/catalog"
	"tillbook/internal/domain/order"
	"tillbook/internal/domain/stock"
)

// Invariant checks run inside the unit of work, after the aggregate has
// been read under lock and before the movement is appended. They are pure:
// same inputs, same verdict.

// checkStockSufficiency rejects an OUT movement that would drive the bucket
// below zero, unless the product explicitly allows negative stock.
func checkStockSufficiency(p catalog.Product, agg stock.Aggregate, m stock.Movement) error {
	if m.Direction != stock.DirectionOut || p.AllowNegativeStock {
		return nil
	}
	available := agg.Available()
	if m.Quantity > available {
		return apperror.NewInsufficientStock(
			p.ID.String(),
			m.Quantity.String(),
			available.String(),
		)
	}
	return nil
}

// checkCreditLimit rejects a charge that would push the balance above the
// credit limit. Payments always pass; adjustments are back-office entries
// and bypass the limit.
func checkCreditLimit(a account.Account, m account.Movement) error {
	if m.Type != account.TypeCharge {
		return nil
	}
	next := a.CurrentBalance.Add(m.Amount)
	if next.GreaterThan(a.CreditLimit) {
		return apperror.NewCreditLimitExceeded(
			a.CustomerID.String(),
			m.Amount.String(),
			a.CurrentBalance.String(),
			a.CreditLimit.String(),
		)
	}
	return nil
}

// checkSessionOpen rejects movements against a session that is not open.
func checkSessionOpen(s *cashdesk.Session) error {
	if !s.IsOpen() {
		return apperror.NewSessionClosed(s.ID.String())
	}
	return nil
}

// checkSessionNotClosed guards the close operation itself.
func checkSessionNotClosed(s *cashdesk.Session) error {
	if s.Status == cashdesk.SessionClosed {
		return apperror.NewSessionAlreadyClosed(s.ID.String())
	}
	return nil
}

// checkOrderModifiable rejects line changes on a finalized order.
func checkOrderModifiable(o *order.Order) error {
	if !o.CanModify() {
		return apperror.NewOrderFinalized(o.ID.String())
	}
	return nil
}
