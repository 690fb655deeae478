package ledger_test

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/keylock"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/catalog"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/domain/order"
	"tillbook/internal/domain/stock"
	"tillbook/internal/infrastructure/storage/memory"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *capturePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	svc    *ledger.Service
	stocks *memory.StockRepo
	dir    *memory.Directory
	events *capturePublisher

	product   catalog.Product
	warehouse catalog.Warehouse
	customer  catalog.Customer
	register  catalog.Register
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	dir := memory.NewDirectory(store)
	events := &capturePublisher{}
	stocks := memory.NewStockRepo(store)

	f := &fixture{
		stocks: stocks,
		dir:    dir,
		events: events,
		product: catalog.Product{
			ID:   id.New(),
			SKU:  "ESP-250",
			Name: "Espresso beans 250g",
		},
		warehouse: catalog.Warehouse{ID: id.New(), Code: "MAIN", Name: "Main warehouse"},
		customer: catalog.Customer{
			ID:          id.New(),
			Name:        "Cafe Central",
			CreditLimit: decimal.NewFromInt(1000),
		},
		register: catalog.Register{ID: id.New(), Code: "POS-1", Name: "Front register"},
	}
	dir.SeedProduct(f.product)
	dir.SeedWarehouse(f.warehouse)
	dir.SeedCustomer(f.customer)
	dir.SeedRegister(f.register)

	f.svc = ledger.NewService(ledger.Deps{
		Stocks:    stocks,
		Accounts:  memory.NewAccountRepo(store),
		Orders:    memory.NewOrderRepo(store),
		Cash:      memory.NewCashRepo(store),
		Directory: dir,
		TxManager: memory.NewTxManager(store),
		Locks:     keylock.New(5 * time.Second),
		Numbers:   memory.NewNumbers(store),
		Events:    events,
	})
	return f
}

func (f *fixture) bucket() stock.BucketKey {
	return stock.BucketKey{ProductID: f.product.ID, WarehouseID: f.warehouse.ID}
}

func ref(refType, refID string) ledger.Reference {
	return ledger.Reference{Type: refType, ID: refID}
}

func (f *fixture) receive(t *testing.T, qty int64, reference string) *stock.Movement {
	t.Helper()
	m, err := f.svc.RecordStockMovement(context.Background(), ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(qty),
		UnitCost:  decimal.NewFromInt(5),
		Reference: ref("receipt", reference),
	})
	require.NoError(t, err)
	return m
}

// --- Stock ---

func TestRecordStockMovement_ProjectsAggregateAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := f.receive(t, 10, "R-1")
	assert.Equal(t, stock.DirectionIn, m.Direction)
	assert.False(t, id.IsNil(m.ID))

	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), agg.CurrentQuantity)

	total, buckets, err := f.svc.ProductStock(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), total.TotalQuantity)
	assert.Len(t, buckets, 1)

	assert.Equal(t, 1, f.events.count(ledger.EventStockMovementRecorded))
}

func TestRecordStockMovement_RetrySameReferenceReturnsOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.receive(t, 10, "R-1")
	second, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(10),
		UnitCost:  decimal.NewFromInt(5),
		Reference: ref("receipt", "R-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The retry must not project twice.
	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), agg.CurrentQuantity)
	assert.Equal(t, 1, f.events.count(ledger.EventStockMovementRecorded))
}

func TestRecordStockMovement_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 3, "R-1")

	_, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: stock.DirectionOut,
		Quantity:  types.NewQuantityFromInt(5),
		UnitCost:  decimal.NewFromInt(5),
		Reference: ref("sale", "S-1"),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "5.0000", appErr.Details["requested"])
	assert.Equal(t, "3.0000", appErr.Details["available"])

	// The rejected movement must leave no trace.
	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(3), agg.CurrentQuantity)
}

func TestRecordStockMovement_NegativeStockAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	negProduct := catalog.Product{
		ID:                 id.New(),
		SKU:                "SRV-1",
		Name:               "Service item",
		AllowNegativeStock: true,
	}
	f.dir.SeedProduct(negProduct)

	_, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    stock.BucketKey{ProductID: negProduct.ID, WarehouseID: f.warehouse.ID},
		Direction: stock.DirectionOut,
		Quantity:  types.NewQuantityFromInt(2),
		UnitCost:  decimal.Zero,
		Reference: ref("sale", "S-1"),
	})
	require.NoError(t, err)

	agg, err := f.svc.StockByBucket(ctx, stock.BucketKey{ProductID: negProduct.ID, WarehouseID: f.warehouse.ID})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(-2), agg.CurrentQuantity)
	assert.Equal(t, 1, f.events.count(ledger.EventStockBelowZero))
}

func TestRecordStockMovement_LotDiscipline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lotProduct := catalog.Product{ID: id.New(), SKU: "MILK-1", Name: "Milk", TrackLots: true}
	f.dir.SeedProduct(lotProduct)

	// Lot-tracked product without a lot.
	_, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    stock.BucketKey{ProductID: lotProduct.ID, WarehouseID: f.warehouse.ID},
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(1),
		Reference: ref("receipt", "R-1"),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	// Untracked product with a lot.
	_, err = f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    stock.BucketKey{ProductID: f.product.ID, WarehouseID: f.warehouse.ID, Lot: "L-9"},
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(1),
		Reference: ref("receipt", "R-2"),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	// Correct lot usage creates its own bucket.
	_, err = f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    stock.BucketKey{ProductID: lotProduct.ID, WarehouseID: f.warehouse.ID, Lot: "L-9"},
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(4),
		Reference: ref("receipt", "R-3"),
	})
	require.NoError(t, err)
}

func TestRecordStockMovement_ConcurrentOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 1, "R-1")

	// Many writers race for the last unit; jittered starts randomize the
	// interleaving between runs.
	const attempts = 50
	errs := make([]error, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
			_, errs[i] = f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
				Bucket:    f.bucket(),
				Direction: stock.DirectionOut,
				Quantity:  types.NewQuantityFromInt(1),
				UnitCost:  decimal.NewFromInt(5),
				Reference: ref("sale", "S-"+strconv.Itoa(i)),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one OUT may win the last unit")

	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.True(t, agg.CurrentQuantity.IsZero())
}

func TestReverseStockMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orig := f.receive(t, 10, "R-1")

	rev, err := f.svc.ReverseStockMovement(ctx, orig.ID, ref("reversal", "REV-1"))
	require.NoError(t, err)
	assert.Equal(t, stock.DirectionOut, rev.Direction)
	assert.Equal(t, orig.ID, rev.ReversesID)
	assert.Equal(t, orig.Quantity, rev.Quantity)

	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.True(t, agg.CurrentQuantity.IsZero())

	// Retrying the reversal is idempotent.
	again, err := f.svc.ReverseStockMovement(ctx, orig.ID, ref("reversal", "REV-1"))
	require.NoError(t, err)
	assert.Equal(t, rev.ID, again.ID)

	agg, err = f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.True(t, agg.CurrentQuantity.IsZero())
}

func TestReverseStockMovement_UnknownMovement(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ReverseStockMovement(context.Background(), id.New(), ref("reversal", "REV-1"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestProductTurnover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	record := func(dir stock.Direction, qty int64, at time.Time, reference string) {
		_, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
			Bucket:     f.bucket(),
			Direction:  dir,
			Quantity:   types.NewQuantityFromInt(qty),
			UnitCost:   decimal.NewFromInt(5),
			Reference:  ref("doc", reference),
			OccurredAt: at,
		})
		require.NoError(t, err)
	}

	// Before the period: net 7.
	record(stock.DirectionIn, 10, base.AddDate(0, 0, -5), "T-1")
	record(stock.DirectionOut, 3, base.AddDate(0, 0, -4), "T-2")
	// Inside the period.
	record(stock.DirectionIn, 5, base.AddDate(0, 0, 1), "T-3")
	record(stock.DirectionOut, 2, base.AddDate(0, 0, 2), "T-4")
	// After the period.
	record(stock.DirectionOut, 1, base.AddDate(0, 1, 0), "T-5")

	turnover, err := f.svc.ProductTurnover(ctx, f.product.ID, base, base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(7), turnover.OpeningBalance)
	assert.Equal(t, types.NewQuantityFromInt(5), turnover.Inflow)
	assert.Equal(t, types.NewQuantityFromInt(2), turnover.Outflow)
	assert.Equal(t, types.NewQuantityFromInt(10), turnover.ClosingBalance)

	_, err = f.svc.ProductTurnover(ctx, f.product.ID, base, base)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestRecalculateProductAggregates_RepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 10, "R-1")
	_, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: stock.DirectionOut,
		Quantity:  types.NewQuantityFromInt(4),
		UnitCost:  decimal.NewFromInt(5),
		Reference: ref("sale", "S-1"),
	})
	require.NoError(t, err)

	// Simulate drift from a manual data repair.
	agg, err := f.stocks.GetAggregate(ctx, f.bucket())
	require.NoError(t, err)
	agg.CurrentQuantity = types.NewQuantityFromInt(999)
	require.NoError(t, f.stocks.SaveAggregate(ctx, agg))

	total, err := f.svc.RecalculateProductAggregates(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(6), total.TotalQuantity)

	agg, err = f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(6), agg.CurrentQuantity)
}

// --- Accounts ---

func TestRecordAccountMovement_CreditLimitScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	charge := func(amount int64, reference string) error {
		_, err := f.svc.RecordAccountMovement(ctx, ledger.AccountMovementCommand{
			CustomerID: f.customer.ID,
			Type:       account.TypeCharge,
			Amount:     decimal.NewFromInt(amount),
			Reference:  ref("sale", reference),
		})
		return err
	}

	// Limit is 1000. First charge fits.
	require.NoError(t, charge(800, "S-1"))

	// 800 + 300 would exceed the limit.
	err := charge(300, "S-2")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeCreditLimitExceeded))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "300", appErr.Details["attempted_amount"])
	assert.Equal(t, "800", appErr.Details["current_balance"])
	assert.Equal(t, "1000", appErr.Details["credit_limit"])

	// A payment frees headroom.
	_, err = f.svc.RecordAccountMovement(ctx, ledger.AccountMovementCommand{
		CustomerID: f.customer.ID,
		Type:       account.TypePayment,
		Amount:     decimal.NewFromInt(500),
		Reference:  ref("payment", "P-1"),
	})
	require.NoError(t, err)

	// 300 + 700 hits the limit exactly, which is allowed.
	require.NoError(t, charge(700, "S-3"))

	acct, movements, err := f.svc.AccountStatement(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, acct.AvailableCredit().IsZero())
	assert.Len(t, movements, 3)
}

func TestRecordAccountMovement_AdjustmentBypassesLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Back-office adjustment may push the balance past the limit.
	_, err := f.svc.RecordAccountMovement(ctx, ledger.AccountMovementCommand{
		CustomerID:      f.customer.ID,
		Type:            account.TypeAdjustment,
		AdjustDirection: account.AdjustIncrease,
		Amount:          decimal.NewFromInt(1500),
		Reference:       ref("adjustment", "ADJ-1"),
	})
	require.NoError(t, err)

	acct, _, err := f.svc.AccountStatement(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(1500)))
	assert.True(t, acct.AvailableCredit().IsZero())
}

func TestRecordAccountMovement_RetrySameReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cmd := ledger.AccountMovementCommand{
		CustomerID: f.customer.ID,
		Type:       account.TypeCharge,
		Amount:     decimal.NewFromInt(100),
		Reference:  ref("sale", "S-1"),
	}
	first, err := f.svc.RecordAccountMovement(ctx, cmd)
	require.NoError(t, err)
	second, err := f.svc.RecordAccountMovement(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	acct, _, err := f.svc.AccountStatement(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(100)))
}

func TestRecalculateAccount_RepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, amount := range []int64{200, 300} {
		_, err := f.svc.RecordAccountMovement(ctx, ledger.AccountMovementCommand{
			CustomerID: f.customer.ID,
			Type:       account.TypeCharge,
			Amount:     decimal.NewFromInt(amount),
			Reference:  ref("sale", "S-"+string(rune('1'+i))),
		})
		require.NoError(t, err)
	}

	acct, err := f.svc.RecalculateAccount(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, acct.CurrentBalance.Equal(decimal.NewFromInt(500)))
}

// --- Orders ---

func TestOrder_LineLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{
		Kind:       order.KindSale,
		CustomerID: f.customer.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.Number)
	assert.Equal(t, order.StatusDraft, o.Status)

	// 2 x 50, 10% off, 21% tax: subtotal 90, tax 18.90, grand 108.90.
	o, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:     o.ID,
		ProductID:   f.product.ID,
		Quantity:    types.NewQuantityFromInt(2),
		UnitPrice:   decimal.NewFromInt(50),
		DiscountPct: decimal.NewFromInt(10),
		TaxRate:     decimal.NewFromInt(21),
	})
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, o.TaxTotal.Equal(types.MustMoney("18.9")))
	assert.True(t, o.GrandTotal.Equal(types.MustMoney("108.9")))

	// Re-applying the same product replaces the line, quantities never
	// accumulate.
	o, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
		Quantity:  types.NewQuantityFromInt(3),
		UnitPrice: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(150)))
	assert.True(t, o.GrandTotal.Equal(decimal.NewFromInt(150)))

	o, err = f.svc.RemoveOrderLine(ctx, ledger.RemoveOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, o.Lines)
	assert.True(t, o.GrandTotal.IsZero())

	_, err = f.svc.RemoveOrderLine(ctx, ledger.RemoveOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrder_LineDiscountClampsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindSale})
	require.NoError(t, err)

	// Fixed discount larger than the gross: the line clamps to zero instead
	// of going negative.
	o, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:       o.ID,
		ProductID:     f.product.ID,
		Quantity:      types.NewQuantityFromInt(1),
		UnitPrice:     decimal.NewFromInt(10),
		DiscountFixed: decimal.NewFromInt(25),
		TaxRate:       decimal.NewFromInt(21),
	})
	require.NoError(t, err)
	assert.True(t, o.Subtotal.IsZero())
	assert.True(t, o.TaxTotal.IsZero())
	assert.True(t, o.GrandTotal.IsZero())
}

func TestOrder_HeaderDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindSale})
	require.NoError(t, err)

	// 2 x 50, 10% line discount, 21% tax: subtotal 90, tax 18.90.
	o, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:     o.ID,
		ProductID:   f.product.ID,
		Quantity:    types.NewQuantityFromInt(2),
		UnitPrice:   decimal.NewFromInt(50),
		DiscountPct: decimal.NewFromInt(10),
		TaxRate:     decimal.NewFromInt(21),
	})
	require.NoError(t, err)

	// Header discount is subtracted after line discounts:
	// 90 - 20 + 18.90 = 88.90.
	o, err = f.svc.SetOrderDiscount(ctx, ledger.SetOrderDiscountCommand{
		OrderID:  o.ID,
		Discount: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, o.Discount.Equal(decimal.NewFromInt(20)))
	assert.True(t, o.GrandTotal.Equal(types.MustMoney("88.9")))

	// Line changes keep folding the header discount in.
	o, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
		Quantity:  types.NewQuantityFromInt(3),
		UnitPrice: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(150)))
	assert.True(t, o.GrandTotal.Equal(decimal.NewFromInt(130)))

	// A discount larger than subtotal plus tax clamps the grand total.
	o, err = f.svc.SetOrderDiscount(ctx, ledger.SetOrderDiscountCommand{
		OrderID:  o.ID,
		Discount: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.True(t, o.GrandTotal.IsZero())

	_, err = f.svc.SetOrderDiscount(ctx, ledger.SetOrderDiscountCommand{
		OrderID:  o.ID,
		Discount: decimal.NewFromInt(-1),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestOrder_FinalizeRejectsLotTrackedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lotProduct := catalog.Product{ID: id.New(), SKU: "MILK-1", Name: "Milk", TrackLots: true}
	f.dir.SeedProduct(lotProduct)

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindPurchase})
	require.NoError(t, err)
	_, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: lotProduct.ID,
		Quantity:  types.NewQuantityFromInt(5),
		UnitPrice: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	// Lines carry no lot, so a lot-tracked product cannot finalize into a
	// dimensionless bucket.
	_, err = f.svc.FinalizeOrder(ctx, ledger.FinalizeOrderCommand{
		OrderID:     o.ID,
		WarehouseID: f.warehouse.ID,
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	o, err = f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDraft, o.Status)
}

func TestOrder_FinalizeSaleRecordsOutMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 10, "R-1")

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindSale})
	require.NoError(t, err)
	_, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
		Quantity:  types.NewQuantityFromInt(4),
		UnitPrice: decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	o, err = f.svc.FinalizeOrder(ctx, ledger.FinalizeOrderCommand{
		OrderID:     o.ID,
		WarehouseID: f.warehouse.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusFinalized, o.Status)
	require.NotNil(t, o.FinalizedAt)

	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(6), agg.CurrentQuantity)

	// Finalized orders are immutable.
	_, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
		Quantity:  types.NewQuantityFromInt(1),
		UnitPrice: decimal.NewFromInt(12),
	})
	assert.True(t, apperror.Is(err, apperror.CodeOrderFinalized))

	_, err = f.svc.FinalizeOrder(ctx, ledger.FinalizeOrderCommand{
		OrderID:     o.ID,
		WarehouseID: f.warehouse.ID,
	})
	assert.True(t, apperror.Is(err, apperror.CodeOrderFinalized))

	assert.Equal(t, 1, f.events.count(ledger.EventOrderFinalized))
}

func TestOrder_FinalizePurchaseRecordsInMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindPurchase})
	require.NoError(t, err)
	_, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
		Quantity:  types.NewQuantityFromInt(25),
		UnitPrice: decimal.NewFromInt(7),
	})
	require.NoError(t, err)

	_, err = f.svc.FinalizeOrder(ctx, ledger.FinalizeOrderCommand{
		OrderID:     o.ID,
		WarehouseID: f.warehouse.ID,
	})
	require.NoError(t, err)

	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(25), agg.CurrentQuantity)
}

func TestOrder_FinalizeInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.receive(t, 2, "R-1")

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindSale})
	require.NoError(t, err)
	_, err = f.svc.ApplyOrderLine(ctx, ledger.ApplyOrderLineCommand{
		OrderID:   o.ID,
		ProductID: f.product.ID,
		Quantity:  types.NewQuantityFromInt(5),
		UnitPrice: decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	_, err = f.svc.FinalizeOrder(ctx, ledger.FinalizeOrderCommand{
		OrderID:     o.ID,
		WarehouseID: f.warehouse.ID,
	})
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	// The order stays draft and no movement survived the rollback.
	got, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDraft, got.Status)

	agg, err := f.svc.StockByBucket(ctx, f.bucket())
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(2), agg.CurrentQuantity)
}

func TestOrder_FinalizeEmptyOrderRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, ledger.CreateOrderCommand{Kind: order.KindSale})
	require.NoError(t, err)

	_, err = f.svc.FinalizeOrder(ctx, ledger.FinalizeOrderCommand{
		OrderID:     o.ID,
		WarehouseID: f.warehouse.ID,
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

// --- Cash sessions ---

func TestCashSession_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.OpenCashSession(ctx, ledger.OpenSessionCommand{
		RegisterID:     f.register.ID,
		CashierID:      "cashier-1",
		OpeningBalance: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Number)
	assert.Equal(t, cashdesk.SessionOpen, session.Status)

	// Only one open session per register.
	_, err = f.svc.OpenCashSession(ctx, ledger.OpenSessionCommand{
		RegisterID:     f.register.ID,
		CashierID:      "cashier-2",
		OpeningBalance: decimal.Zero,
	})
	assert.True(t, apperror.Is(err, apperror.CodeRegisterAlreadyOpen))

	record := func(mt cashdesk.MovementType, amount int64, reference string) {
		_, err := f.svc.RecordCashMovement(ctx, ledger.CashMovementCommand{
			SessionID: session.ID,
			Type:      mt,
			Amount:    decimal.NewFromInt(amount),
			Concept:   "test",
			Reference: ref("ticket", reference),
		})
		require.NoError(t, err)
	}
	record(cashdesk.MovementSale, 100, "T-1")
	record(cashdesk.MovementPayment, 250, "T-2")
	record(cashdesk.MovementExpense, 30, "T-3")

	got, movements, err := f.svc.GetCashSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.RunningTotal.Equal(decimal.NewFromInt(320)))
	assert.Len(t, movements, 3)

	// Counted matches expected: opening 100 + running 320.
	closed, err := f.svc.CloseCashSession(ctx, ledger.CloseSessionCommand{
		SessionID:      session.ID,
		CountedBalance: decimal.NewFromInt(420),
	})
	require.NoError(t, err)
	assert.Equal(t, cashdesk.SessionClosed, closed.Status)
	assert.True(t, closed.ExpectedBalance.Equal(decimal.NewFromInt(420)))
	assert.True(t, closed.Difference.IsZero())
	assert.Equal(t, cashdesk.DeviationNormal, closed.Deviation)

	// Closing is terminal.
	_, err = f.svc.CloseCashSession(ctx, ledger.CloseSessionCommand{
		SessionID:      session.ID,
		CountedBalance: decimal.NewFromInt(420),
	})
	assert.True(t, apperror.Is(err, apperror.CodeSessionAlreadyClosed))

	// No movements after close.
	_, err = f.svc.RecordCashMovement(ctx, ledger.CashMovementCommand{
		SessionID: session.ID,
		Type:      cashdesk.MovementSale,
		Amount:    decimal.NewFromInt(10),
		Reference: ref("ticket", "T-4"),
	})
	assert.True(t, apperror.Is(err, apperror.CodeSessionClosed))

	// A new session can open on the same register.
	_, err = f.svc.OpenCashSession(ctx, ledger.OpenSessionCommand{
		RegisterID:     f.register.ID,
		CashierID:      "cashier-2",
		OpeningBalance: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
}

func TestCashSession_AdjustmentsAndDeviation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.OpenCashSession(ctx, ledger.OpenSessionCommand{
		RegisterID:     f.register.ID,
		CashierID:      "cashier-1",
		OpeningBalance: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	_, err = f.svc.RecordCashMovement(ctx, ledger.CashMovementCommand{
		SessionID:       session.ID,
		Type:            cashdesk.MovementAdjustment,
		AdjustDirection: cashdesk.AdjustDecrease,
		Amount:          decimal.NewFromInt(20),
		Concept:         "till skim",
		Reference:       ref("adjustment", "ADJ-1"),
	})
	require.NoError(t, err)

	// Expected 180, counted 175: short by 5, inside the warning band.
	closed, err := f.svc.CloseCashSession(ctx, ledger.CloseSessionCommand{
		SessionID:      session.ID,
		CountedBalance: decimal.NewFromInt(175),
	})
	require.NoError(t, err)
	assert.True(t, closed.Difference.Equal(decimal.NewFromInt(-5)))
	assert.Equal(t, cashdesk.DeviationWarning, closed.Deviation)
	assert.Equal(t, 1, f.events.count(ledger.EventSessionDeviation))
}

func TestCashMovement_RetrySameReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.OpenCashSession(ctx, ledger.OpenSessionCommand{
		RegisterID:     f.register.ID,
		CashierID:      "cashier-1",
		OpeningBalance: decimal.Zero,
	})
	require.NoError(t, err)

	cmd := ledger.CashMovementCommand{
		SessionID: session.ID,
		Type:      cashdesk.MovementSale,
		Amount:    decimal.NewFromInt(99),
		Reference: ref("ticket", "T-1"),
	}
	first, err := f.svc.RecordCashMovement(ctx, cmd)
	require.NoError(t, err)
	second, err := f.svc.RecordCashMovement(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, _, err := f.svc.GetCashSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.RunningTotal.Equal(decimal.NewFromInt(99)))
}

// --- Command validation ---

func TestCommandValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Direction carries the sign: negative and zero quantities are rejected
	// outright.
	_, err := f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(-1),
		Reference: ref("receipt", "R-1"),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: "sideways",
		Quantity:  types.NewQuantityFromInt(1),
		Reference: ref("receipt", "R-1"),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	// Missing reference.
	_, err = f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    f.bucket(),
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(1),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	// Adjustment direction is only valid for adjustments.
	_, err = f.svc.RecordAccountMovement(ctx, ledger.AccountMovementCommand{
		CustomerID:      f.customer.ID,
		Type:            account.TypeCharge,
		AdjustDirection: account.AdjustIncrease,
		Amount:          decimal.NewFromInt(10),
		Reference:       ref("sale", "S-1"),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	// Unknown directory entries surface as not found.
	_, err = f.svc.RecordStockMovement(ctx, ledger.StockMovementCommand{
		Bucket:    stock.BucketKey{ProductID: id.New(), WarehouseID: f.warehouse.ID},
		Direction: stock.DirectionIn,
		Quantity:  types.NewQuantityFromInt(1),
		Reference: ref("receipt", "R-9"),
	})
	assert.True(t, apperror.IsNotFound(err))
}
