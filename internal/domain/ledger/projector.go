package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/stock"
)

// Projection is pure: given the current aggregate and one movement it
// returns the next aggregate state. Replaying the full log through these
// functions from zero reproduces every aggregate exactly.

// projectStock applies one movement to its bucket aggregate and the
// product roll-up.
func projectStock(agg stock.Aggregate, total stock.ProductTotal, m stock.Movement, now time.Time) (stock.Aggregate, stock.ProductTotal) {
	if agg.ProductID != m.ProductID || agg.WarehouseID != m.WarehouseID {
		// Zero-valued aggregate for a new bucket, adopt the key.
		agg.BucketKey = m.BucketKey
	}
	delta := m.SignedQuantity()
	agg.CurrentQuantity += delta
	agg.UpdatedAt = now

	total.ProductID = m.ProductID
	total.TotalQuantity += delta
	total.UpdatedAt = now

	return agg, total
}

// projectAccount applies one movement to the customer balance.
func projectAccount(a account.Account, m account.Movement, now time.Time) account.Account {
	a.CustomerID = m.CustomerID
	a.CurrentBalance = a.CurrentBalance.Add(m.SignedAmount())
	a.UpdatedAt = now
	return a
}

// projectCash applies one movement to the session running total.
func projectCash(s *cashdesk.Session, m cashdesk.Movement) {
	s.RunningTotal = s.RunningTotal.Add(m.SignedAmount())
}

// replayStock folds a full bucket log into a fresh aggregate. Used by
// aggregate recalculation to rebuild derived state from the source of
// truth.
func replayStock(key stock.BucketKey, movements []stock.Movement, now time.Time) stock.Aggregate {
	agg := stock.Aggregate{BucketKey: key, UpdatedAt: now}
	for _, m := range movements {
		agg.CurrentQuantity += m.SignedQuantity()
	}
	return agg
}

// replayAccount folds a full customer ledger into a fresh balance, keeping
// the account's identity and credit limit.
func replayAccount(a account.Account, movements []account.Movement, now time.Time) account.Account {
	a.CurrentBalance = decimal.Zero
	for _, m := range movements {
		a.CurrentBalance = a.CurrentBalance.Add(m.SignedAmount())
	}
	a.UpdatedAt = now
	return a
}
