package ledger

import (
	"context"
	"sort"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/keylock"
	"tillbook/internal/core/tx"
	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/catalog"
	"tillbook/internal/domain/order"
	"tillbook/internal/domain/stock"
	"tillbook/pkg/logger"
)

// NumberSource hands out sequential document numbers per kind.
type NumberSource interface {
	Next(ctx context.Context, kind string) (string, error)
}

// Auditor records who did what for back-office review. Optional.
type Auditor interface {
	Record(ctx context.Context, action, entityType, entityID string, payload any) error
}

// Deps wires the service. Events and Audit may be nil.
type Deps struct {
	Stocks    stock.Repository
	Accounts  account.Repository
	Orders    order.Repository
	Cash      cashdesk.Repository
	Directory catalog.Directory
	TxManager tx.Manager
	Locks     *keylock.KeyLock
	Numbers   NumberSource
	Events    EventPublisher
	Audit     Auditor
	Deviation cashdesk.DeviationPolicy
}

// Service is the consistency engine. Every write runs as one unit of work:
// acquire the aggregate key, open a transaction, check the idempotency
// reference, read the aggregate under lock, validate invariants, append the
// movement, project, save. Operations on different keys run in parallel;
// operations on the same key serialize.
type Service struct {
	stocks    stock.Repository
	accounts  account.Repository
	orders    order.Repository
	cash      cashdesk.Repository
	directory catalog.Directory
	txm       tx.Manager
	locks     *keylock.KeyLock
	numbers   NumberSource
	events    EventPublisher
	audit     Auditor
	deviation cashdesk.DeviationPolicy
}

// NewService creates the ledger service.
func NewService(d Deps) *Service {
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Deviation.WarningAt.IsZero() && d.Deviation.CriticalAt.IsZero() {
		d.Deviation = cashdesk.DefaultDeviationPolicy()
	}
	return &Service{
		stocks:    d.Stocks,
		accounts:  d.Accounts,
		orders:    d.Orders,
		cash:      d.Cash,
		directory: d.Directory,
		txm:       d.TxManager,
		locks:     d.Locks,
		numbers:   d.Numbers,
		events:    d.Events,
		audit:     d.Audit,
		deviation: d.Deviation,
	}
}

// --- Stock ---

// RecordStockMovement appends one stock movement and projects the bucket
// aggregate and product total. Retrying with the same reference returns the
// originally recorded movement.
func (s *Service) RecordStockMovement(ctx context.Context, cmd StockMovementCommand) (*stock.Movement, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	product, err := s.directory.ProductByID(ctx, cmd.Bucket.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.directory.WarehouseByID(ctx, cmd.Bucket.WarehouseID); err != nil {
		return nil, err
	}
	if !id.IsNil(cmd.Bucket.LocationID) {
		if _, err := s.directory.LocationByID(ctx, cmd.Bucket.LocationID); err != nil {
			return nil, err
		}
	}
	if err := checkDimensions(product, cmd.Bucket); err != nil {
		return nil, err
	}

	m := stock.Movement{
		ID:            id.New(),
		BucketKey:     cmd.Bucket,
		Direction:     cmd.Direction,
		Quantity:      cmd.Quantity,
		UnitCost:      cmd.UnitCost,
		ReferenceType: cmd.Reference.Type,
		ReferenceID:   cmd.Reference.ID,
		OccurredAt:    occurredAt(cmd.OccurredAt),
		CreatedAt:     time.Now().UTC(),
	}

	release, err := s.locks.Acquire(ctx, "stock:"+cmd.Bucket.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *stock.Movement
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.stocks.FindMovementByReference(ctx, m.ReferenceType, m.ReferenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		recorded, err := s.appendStockLocked(ctx, product, m, false)
		if err != nil {
			return err
		}
		result = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "stock.movement.record", "stock_movement", result.ID.String(), result)
	return result, nil
}

// ReverseStockMovement appends the compensating movement for an earlier
// one. The original is never touched; reversals bypass the sufficiency
// check so the books can always be corrected, raising a below-zero event
// if the bucket goes negative.
func (s *Service) ReverseStockMovement(ctx context.Context, movementID id.ID, ref Reference) (*stock.Movement, error) {
	if id.IsNil(movementID) {
		return nil, apperror.NewValidation("movement id is required")
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	orig, err := s.stocks.GetMovement(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, apperror.NewNotFound("stock movement", movementID)
	}

	product, err := s.directory.ProductByID(ctx, orig.ProductID)
	if err != nil {
		return nil, err
	}

	inv := orig.Inverse(ref.ID)
	inv.ReferenceType = ref.Type

	release, err := s.locks.Acquire(ctx, "stock:"+orig.BucketKey.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *stock.Movement
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.stocks.FindMovementByReference(ctx, inv.ReferenceType, inv.ReferenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}
		recorded, err := s.appendStockLocked(ctx, product, inv, true)
		if err != nil {
			return err
		}
		result = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "stock.movement.reverse", "stock_movement", result.ID.String(), result)
	return result, nil
}

// appendStockLocked runs the append-validate-project core. Caller holds the
// bucket key lock and an open transaction.
func (s *Service) appendStockLocked(ctx context.Context, product catalog.Product, m stock.Movement, skipSufficiency bool) (*stock.Movement, error) {
	agg, err := s.stocks.GetAggregateForUpdate(ctx, m.BucketKey)
	if err != nil {
		return nil, err
	}

	if !skipSufficiency {
		if err := checkStockSufficiency(product, agg, m); err != nil {
			return nil, err
		}
	}

	if err := s.stocks.AppendMovement(ctx, m); err != nil {
		return nil, err
	}

	total, err := s.stocks.GetProductTotal(ctx, m.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	agg, total = projectStock(agg, total, m, now)

	if err := s.stocks.SaveAggregate(ctx, agg); err != nil {
		return nil, err
	}
	if err := s.stocks.SaveProductTotal(ctx, total); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, EventStockMovementRecorded, m); err != nil {
		return nil, err
	}
	if agg.CurrentQuantity.IsNegative() {
		if err := s.events.Publish(ctx, EventStockBelowZero, agg); err != nil {
			return nil, err
		}
	}

	logger.Info(ctx, "stock movement recorded",
		"movement_id", m.ID,
		"product_id", m.ProductID,
		"direction", m.Direction,
		"quantity", m.Quantity.String(),
	)
	return &m, nil
}

// --- Account ---

// RecordAccountMovement appends one receivables movement and projects the
// customer balance. Charges are checked against the credit limit.
func (s *Service) RecordAccountMovement(ctx context.Context, cmd AccountMovementCommand) (*account.Movement, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	customer, err := s.directory.CustomerByID(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}

	m := account.Movement{
		ID:              id.New(),
		CustomerID:      cmd.CustomerID,
		Type:            cmd.Type,
		AdjustDirection: cmd.AdjustDirection,
		Amount:          cmd.Amount,
		ReferenceType:   cmd.Reference.Type,
		ReferenceID:     cmd.Reference.ID,
		OccurredAt:      occurredAt(cmd.OccurredAt),
		CreatedAt:       time.Now().UTC(),
	}

	release, err := s.locks.Acquire(ctx, "account:"+cmd.CustomerID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *account.Movement
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.accounts.FindMovementByReference(ctx, m.ReferenceType, m.ReferenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		acct, err := s.accounts.GetAccountForUpdate(ctx, cmd.CustomerID)
		if err != nil {
			return err
		}
		// The limit lives in the directory; the stored row only carries the
		// projected balance.
		acct.CreditLimit = customer.CreditLimit

		if err := checkCreditLimit(acct, m); err != nil {
			return err
		}

		if err := s.accounts.AppendMovement(ctx, m); err != nil {
			return err
		}
		acct = projectAccount(acct, m, time.Now().UTC())
		if err := s.accounts.SaveAccount(ctx, acct); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, EventAccountMovementRecorded, m); err != nil {
			return err
		}

		logger.Info(ctx, "account movement recorded",
			"movement_id", m.ID,
			"customer_id", m.CustomerID,
			"type", m.Type,
			"amount", m.Amount.String(),
		)
		result = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "account.movement.record", "account_movement", result.ID.String(), result)
	return result, nil
}

// --- Orders ---

// CreateOrder opens a draft order and assigns its document number.
func (s *Service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !id.IsNil(cmd.CustomerID) {
		if _, err := s.directory.CustomerByID(ctx, cmd.CustomerID); err != nil {
			return nil, err
		}
	}

	number, err := s.numbers.Next(ctx, "order")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &order.Order{
		ID:         id.New(),
		Number:     number,
		Kind:       cmd.Kind,
		Status:     order.StatusDraft,
		CustomerID: cmd.CustomerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.Recalculate()

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "order.create", "order", o.ID.String(), o)
	return o, nil
}

// ApplyOrderLine sets the full desired position for a product on a draft
// order and recomputes all totals from the line set.
func (s *Service) ApplyOrderLine(ctx context.Context, cmd ApplyOrderLineCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.ProductByID(ctx, cmd.ProductID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, "order:"+cmd.OrderID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *order.Order
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := checkOrderModifiable(o); err != nil {
			return err
		}

		o.UpsertLine(order.Line{
			ID:            id.New(),
			OrderID:       o.ID,
			ProductID:     cmd.ProductID,
			Quantity:      cmd.Quantity,
			UnitPrice:     cmd.UnitPrice,
			DiscountPct:   cmd.DiscountPct,
			DiscountFixed: cmd.DiscountFixed,
			TaxRate:       cmd.TaxRate,
			CreatedAt:     time.Now().UTC(),
		})
		o.UpdatedAt = time.Now().UTC()

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveOrderLine deletes a product line from a draft order and recomputes
// all totals.
func (s *Service) RemoveOrderLine(ctx context.Context, cmd RemoveOrderLineCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, "order:"+cmd.OrderID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *order.Order
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := checkOrderModifiable(o); err != nil {
			return err
		}
		if !o.RemoveLine(cmd.ProductID) {
			return apperror.NewNotFound("order line", cmd.ProductID)
		}
		o.UpdatedAt = time.Now().UTC()

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetOrderDiscount sets the order-level discount on a draft order and
// recomputes all totals.
func (s *Service) SetOrderDiscount(ctx context.Context, cmd SetOrderDiscountCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, "order:"+cmd.OrderID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *order.Order
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := checkOrderModifiable(o); err != nil {
			return err
		}

		o.Discount = cmd.Discount
		o.Recalculate()
		o.UpdatedAt = time.Now().UTC()

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FinalizeOrder freezes a draft order and records its stock movements
// against the given warehouse: OUT per line for sales, IN for purchases.
// Each line movement carries the order number as its reference, so a retry
// after a partial failure completes the missing lines without duplicating
// the recorded ones.
func (s *Service) FinalizeOrder(ctx context.Context, cmd FinalizeOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.WarehouseByID(ctx, cmd.WarehouseID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, "order:"+cmd.OrderID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrderModifiable(o); err != nil {
		return nil, err
	}
	if len(o.Lines) == 0 {
		return nil, apperror.NewValidation("order has no lines")
	}

	direction := stock.DirectionOut
	if o.Kind == order.KindPurchase {
		direction = stock.DirectionIn
	}

	// Bucket locks are taken in sorted order so two finalizations sharing
	// products cannot deadlock.
	buckets := make([]stock.BucketKey, len(o.Lines))
	keys := make([]string, len(o.Lines))
	for i, line := range o.Lines {
		buckets[i] = stock.BucketKey{ProductID: line.ProductID, WarehouseID: cmd.WarehouseID}
		keys[i] = "stock:" + buckets[i].String()
	}
	sort.Strings(keys)
	for _, key := range keys {
		rel, err := s.locks.Acquire(ctx, key)
		if err != nil {
			return nil, err
		}
		defer rel()
	}

	var result *order.Order
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if err := checkOrderModifiable(o); err != nil {
			return err
		}

		for i, line := range o.Lines {
			product, err := s.directory.ProductByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			// Order lines carry no lot/serial, so tracked products cannot
			// finalize into a dimensionless bucket.
			if err := checkDimensions(product, buckets[i]); err != nil {
				return err
			}

			m := stock.Movement{
				ID:            id.New(),
				BucketKey:     buckets[i],
				Direction:     direction,
				Quantity:      line.Quantity,
				UnitCost:      line.UnitPrice,
				ReferenceType: "order",
				ReferenceID:   o.Number + ":" + line.ProductID.String(),
				OccurredAt:    time.Now().UTC(),
				CreatedAt:     time.Now().UTC(),
			}

			existing, err := s.stocks.FindMovementByReference(ctx, m.ReferenceType, m.ReferenceID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if _, err := s.appendStockLocked(ctx, product, m, false); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		o.Status = order.StatusFinalized
		o.FinalizedAt = &now
		o.UpdatedAt = now

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, EventOrderFinalized, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "order.finalize", "order", result.ID.String(), result)
	logger.Info(ctx, "order finalized", "order_id", result.ID, "number", result.Number)
	return result, nil
}

// --- Cash sessions ---

// OpenCashSession opens a session for a register. At most one open session
// may exist per register.
func (s *Service) OpenCashSession(ctx context.Context, cmd OpenSessionCommand) (*cashdesk.Session, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.RegisterByID(ctx, cmd.RegisterID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, "register:"+cmd.RegisterID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *cashdesk.Session
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		open, err := s.cash.FindOpenSession(ctx, cmd.RegisterID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperror.NewRegisterAlreadyOpen(cmd.RegisterID.String(), open.ID.String())
		}

		number, err := s.numbers.Next(ctx, "session")
		if err != nil {
			return err
		}

		session := &cashdesk.Session{
			ID:             id.New(),
			Number:         number,
			RegisterID:     cmd.RegisterID,
			CashierID:      cmd.CashierID,
			Status:         cashdesk.SessionOpen,
			OpeningBalance: cmd.OpeningBalance,
			OpenedAt:       time.Now().UTC(),
		}
		if err := s.cash.CreateSession(ctx, session); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, EventSessionOpened, session); err != nil {
			return err
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "cash.session.open", "cash_session", result.ID.String(), result)
	logger.Info(ctx, "cash session opened",
		"session_id", result.ID,
		"register_id", result.RegisterID,
		"opening_balance", result.OpeningBalance.String(),
	)
	return result, nil
}

// RecordCashMovement appends one cash movement to an open session and
// projects the running total.
func (s *Service) RecordCashMovement(ctx context.Context, cmd CashMovementCommand) (*cashdesk.Movement, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	m := cashdesk.Movement{
		ID:              id.New(),
		SessionID:       cmd.SessionID,
		Type:            cmd.Type,
		AdjustDirection: cmd.AdjustDirection,
		Amount:          cmd.Amount,
		Concept:         cmd.Concept,
		ReferenceType:   cmd.Reference.Type,
		ReferenceID:     cmd.Reference.ID,
		OccurredAt:      occurredAt(cmd.OccurredAt),
		CreatedAt:       time.Now().UTC(),
	}

	release, err := s.locks.Acquire(ctx, "session:"+cmd.SessionID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *cashdesk.Movement
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.cash.FindMovementByReference(ctx, m.ReferenceType, m.ReferenceID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		session, err := s.cash.GetSessionForUpdate(ctx, cmd.SessionID)
		if err != nil {
			return err
		}
		if err := checkSessionOpen(session); err != nil {
			return err
		}

		if err := s.cash.AppendMovement(ctx, m); err != nil {
			return err
		}
		projectCash(session, m)
		if err := s.cash.SaveSession(ctx, session); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, EventCashMovementRecorded, m); err != nil {
			return err
		}
		result = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "cash.movement.record", "cash_movement", result.ID.String(), result)
	return result, nil
}

// CloseCashSession reconciles the counted drawer against the expected
// balance and closes the session. Closing is terminal; a second close is
// rejected.
func (s *Service) CloseCashSession(ctx context.Context, cmd CloseSessionCommand) (*cashdesk.Session, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, "session:"+cmd.SessionID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *cashdesk.Session
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		session, err := s.cash.GetSessionForUpdate(ctx, cmd.SessionID)
		if err != nil {
			return err
		}
		if err := checkSessionNotClosed(session); err != nil {
			return err
		}

		now := time.Now().UTC()
		session.Reconcile(cmd.CountedBalance, s.deviation)
		session.Status = cashdesk.SessionClosed
		session.ClosedAt = &now

		if err := s.cash.SaveSession(ctx, session); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, EventSessionClosed, session); err != nil {
			return err
		}
		if session.Deviation != cashdesk.DeviationNormal {
			if err := s.events.Publish(ctx, EventSessionDeviation, session); err != nil {
				return err
			}
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditRecord(ctx, "cash.session.close", "cash_session", result.ID.String(), result)
	logger.Info(ctx, "cash session closed",
		"session_id", result.ID,
		"expected", result.ExpectedBalance.String(),
		"counted", result.CountedBalance.String(),
		"difference", result.Difference.String(),
		"deviation", result.Deviation,
	)
	return result, nil
}

// --- helpers ---

// checkDimensions enforces lot/serial discipline per product policy.
func checkDimensions(p catalog.Product, key stock.BucketKey) error {
	if p.TrackLots && key.Lot == "" {
		return apperror.NewValidation("product tracks lots; lot is required")
	}
	if !p.TrackLots && key.Lot != "" {
		return apperror.NewValidation("product does not track lots")
	}
	if p.TrackSerials && key.Serial == "" {
		return apperror.NewValidation("product tracks serials; serial is required")
	}
	if !p.TrackSerials && key.Serial != "" {
		return apperror.NewValidation("product does not track serials")
	}
	return nil
}

func occurredAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func (s *Service) auditRecord(ctx context.Context, action, entityType, entityID string, payload any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entityType, entityID, payload); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}
