package ledger_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	cashSessionsTable  = "doc_cash_sessions"
	cashMovementsTable = "log_cash_movements"
)

var cashSessionColumns = []string{
	"id", "number", "register_id", "cashier_id", "status",
	"opening_balance", "running_total",
	"counted_balance", "expected_balance", "difference", "deviation",
	"opened_at", "closed_at",
}

var cashMovementColumns = []string{
	"id", "session_id", "type", "adjust_direction", "amount", "concept",
	"reference_type", "reference_id", "occurred_at", "created_at",
}

// CashRepo implements cashdesk.Repository. The sessions table carries a
// partial unique index on (register_id) WHERE status = 'open', so a second
// open session cannot exist even under a lost race.
type CashRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCashRepo creates a cash repository.
func NewCashRepo(txm *postgres.TxManager) *CashRepo {
	return &CashRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateSession implements cashdesk.Repository.
func (r *CashRepo) CreateSession(ctx context.Context, s *cashdesk.Session) error {
	q := r.builder.Insert(cashSessionsTable).
		Columns(cashSessionColumns...).
		Values(
			s.ID, s.Number, s.RegisterID, s.CashierID, s.Status,
			s.OpeningBalance, s.RunningTotal,
			s.CountedBalance, s.ExpectedBalance, s.Difference, s.Deviation,
			s.OpenedAt, s.ClosedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return wrapStorage("insert cash session", err)
	}
	return nil
}

// GetSession implements cashdesk.Repository.
func (r *CashRepo) GetSession(ctx context.Context, sessionID id.ID) (*cashdesk.Session, error) {
	return r.getSession(ctx, sessionID, false)
}

// GetSessionForUpdate implements cashdesk.Repository.
func (r *CashRepo) GetSessionForUpdate(ctx context.Context, sessionID id.ID) (*cashdesk.Session, error) {
	return r.getSession(ctx, sessionID, true)
}

func (r *CashRepo) getSession(ctx context.Context, sessionID id.ID, forUpdate bool) (*cashdesk.Session, error) {
	q := r.builder.Select(cashSessionColumns...).
		From(cashSessionsTable).
		Where(squirrel.Eq{"id": sessionID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var s cashdesk.Session
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash session", sessionID)
		}
		return nil, wrapStorage("get cash session", err)
	}
	return &s, nil
}

// FindOpenSession implements cashdesk.Repository.
func (r *CashRepo) FindOpenSession(ctx context.Context, registerID id.ID) (*cashdesk.Session, error) {
	q := r.builder.Select(cashSessionColumns...).
		From(cashSessionsTable).
		Where(squirrel.Eq{
			"register_id": registerID,
			"status":      cashdesk.SessionOpen,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var s cashdesk.Session
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, wrapStorage("find open session", err)
	}
	return &s, nil
}

// SaveSession implements cashdesk.Repository.
func (r *CashRepo) SaveSession(ctx context.Context, s *cashdesk.Session) error {
	q := r.builder.Update(cashSessionsTable).
		Set("status", s.Status).
		Set("running_total", s.RunningTotal).
		Set("counted_balance", s.CountedBalance).
		Set("expected_balance", s.ExpectedBalance).
		Set("difference", s.Difference).
		Set("deviation", s.Deviation).
		Set("closed_at", s.ClosedAt).
		Where(squirrel.Eq{"id": s.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return wrapStorage("update cash session", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cash session", s.ID)
	}
	return nil
}

// AppendMovement implements cashdesk.Repository.
func (r *CashRepo) AppendMovement(ctx context.Context, m cashdesk.Movement) error {
	q := r.builder.Insert(cashMovementsTable).
		Columns(cashMovementColumns...).
		Values(
			m.ID, m.SessionID, m.Type, m.AdjustDirection, m.Amount, m.Concept,
			m.ReferenceType, m.ReferenceID, m.OccurredAt, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return wrapStorage("insert cash movement", err)
	}
	return nil
}

// FindMovementByReference implements cashdesk.Repository.
func (r *CashRepo) FindMovementByReference(ctx context.Context, refType, refID string) (*cashdesk.Movement, error) {
	q := r.builder.Select(cashMovementColumns...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"reference_type": refType, "reference_id": refID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var m cashdesk.Movement
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, wrapStorage("find cash movement by reference", err)
	}
	return &m, nil
}

// MovementsBySession implements cashdesk.Repository.
func (r *CashRepo) MovementsBySession(ctx context.Context, sessionID id.ID) ([]cashdesk.Movement, error) {
	q := r.builder.Select(cashMovementColumns...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("occurred_at", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var movements []cashdesk.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, wrapStorage("select session movements", err)
	}
	return movements, nil
}

// ListSessions implements cashdesk.Repository.
func (r *CashRepo) ListSessions(ctx context.Context, filter cashdesk.SessionFilter) ([]cashdesk.Session, error) {
	q := r.builder.Select(cashSessionColumns...).From(cashSessionsTable)

	if filter.RegisterID != nil {
		q = q.Where(squirrel.Eq{"register_id": *filter.RegisterID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	q = q.OrderBy("opened_at DESC")
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

	var sessions []cashdesk.Session
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &sessions, sql, args...); err != nil {
		return nil, wrapStorage("select cash sessions", err)
	}
	return sessions, nil
}

// Ensure interface compliance.
var _ cashdesk.Repository = (*CashRepo)(nil)
