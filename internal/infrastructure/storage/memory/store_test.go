package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/order"
)

func draftOrder() *order.Order {
	o := &order.Order{
		ID:        id.New(),
		Number:    "SO-00001",
		Kind:      order.KindSale,
		Status:    order.StatusDraft,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	o.UpsertLine(order.Line{
		ID:        id.New(),
		OrderID:   o.ID,
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromInt(2),
		UnitPrice: decimal.NewFromInt(10),
		CreatedAt: time.Now().UTC(),
	})
	return o
}

func TestOrderRepo_ReadsAreIsolatedCopies(t *testing.T) {
	store := NewStore()
	repo := NewOrderRepo(store)
	ctx := context.Background()

	o := draftOrder()
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)

	// Mutating the returned copy must not leak into the store.
	got.Status = order.StatusFinalized
	got.Lines[0].Quantity = types.NewQuantityFromInt(99)

	again, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDraft, again.Status)
	assert.Equal(t, types.NewQuantityFromInt(2), again.Lines[0].Quantity)
}

func TestTxManager_RollbackRestoresOrders(t *testing.T) {
	store := NewStore()
	repo := NewOrderRepo(store)
	txm := NewTxManager(store)
	ctx := context.Background()

	o := draftOrder()
	require.NoError(t, repo.Create(ctx, o))

	failed := errors.New("unit of work failed")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inTx, err := repo.GetForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		inTx.Status = order.StatusFinalized
		inTx.RemoveLine(inTx.Lines[0].ProductID)
		if err := repo.Save(ctx, inTx); err != nil {
			return err
		}
		return failed
	})
	require.ErrorIs(t, err, failed)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDraft, got.Status)
	assert.Len(t, got.Lines, 1)
}
