package ledger_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/id"
	"tillbook/internal/domain/account"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	accountMovementsTable = "log_account_movements"
	customerAccountsTable = "reg_customer_accounts"
)

var accountMovementColumns = []string{
	"id", "customer_id", "type", "adjust_direction", "amount",
	"reference_type", "reference_id", "reverses_id",
	"occurred_at", "created_at",
}

// AccountRepo implements account.Repository.
type AccountRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewAccountRepo creates an account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AppendMovement implements account.Repository.
func (r *AccountRepo) AppendMovement(ctx context.Context, m account.Movement) error {
	q := r.builder.Insert(accountMovementsTable).
		Columns(accountMovementColumns...).
		Values(
			m.ID, m.CustomerID, m.Type, m.AdjustDirection, m.Amount,
			m.ReferenceType, m.ReferenceID, m.ReversesID,
			m.OccurredAt, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return wrapStorage("insert account movement", err)
	}
	return nil
}

// FindMovementByReference implements account.Repository.
func (r *AccountRepo) FindMovementByReference(ctx context.Context, refType, refID string) (*account.Movement, error) {
	q := r.builder.Select(accountMovementColumns...).
		From(accountMovementsTable).
		Where(squirrel.Eq{"reference_type": refType, "reference_id": refID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var m account.Movement
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, wrapStorage("find account movement by reference", err)
	}
	return &m, nil
}

// GetMovement implements account.Repository.
func (r *AccountRepo) GetMovement(ctx context.Context, movementID id.ID) (*account.Movement, error) {
	q := r.builder.Select(accountMovementColumns...).
		From(accountMovementsTable).
		Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var m account.Movement
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, wrapStorage("get account movement", err)
	}
	return &m, nil
}

// MovementsByCustomer implements account.Repository.
func (r *AccountRepo) MovementsByCustomer(ctx context.Context, customerID id.ID) ([]account.Movement, error) {
	q := r.builder.Select(accountMovementColumns...).
		From(accountMovementsTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("occurred_at", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var movements []account.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, wrapStorage("select customer movements", err)
	}
	return movements, nil
}

// GetAccount implements account.Repository.
func (r *AccountRepo) GetAccount(ctx context.Context, customerID id.ID) (account.Account, error) {
	return r.getAccount(ctx, customerID, false)
}

// GetAccountForUpdate implements account.Repository.
func (r *AccountRepo) GetAccountForUpdate(ctx context.Context, customerID id.ID) (account.Account, error) {
	return r.getAccount(ctx, customerID, true)
}

func (r *AccountRepo) getAccount(ctx context.Context, customerID id.ID, forUpdate bool) (account.Account, error) {
	q := r.builder.Select("customer_id", "credit_limit", "current_balance", "updated_at").
		From(customerAccountsTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return account.Account{}, err
	}

	var a account.Account
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return account.Account{CustomerID: customerID}, nil
		}
		return account.Account{}, wrapStorage("get customer account", err)
	}
	return a, nil
}

// SaveAccount implements account.Repository.
func (r *AccountRepo) SaveAccount(ctx context.Context, a account.Account) error {
	sql := `
		INSERT INTO reg_customer_accounts (customer_id, credit_limit, current_balance, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id)
		DO UPDATE SET
			credit_limit = EXCLUDED.credit_limit,
			current_balance = EXCLUDED.current_balance,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		a.CustomerID, a.CreditLimit, a.CurrentBalance, a.UpdatedAt,
	)
	if err != nil {
		return wrapStorage("save customer account", err)
	}
	return nil
}

// Ensure interface compliance.
var _ account.Repository = (*AccountRepo)(nil)
