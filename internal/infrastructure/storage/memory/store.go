// Package memory provides an in-process storage backend. It implements the
// same repository contracts as the postgres backend and backs the embedded
// deployment and the test suite.
//
// Transactions use snapshot rollback: the transaction manager serializes
// units of work, snapshots the whole state up front and restores it when
// the unit of work fails. Combined with the service's per-key locks this
// gives the same serializable-per-aggregate behavior as the SQL backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tillbook/internal/domain/account"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/catalog"
	"tillbook/internal/domain/order"
	"tillbook/internal/domain/stock"
)

// Store holds all state. One instance backs every repository view.
type Store struct {
	mu sync.RWMutex

	state state

	seq   map[string]int64
	seqMu sync.Mutex
}

type state struct {
	products   map[string]catalog.Product
	warehouses map[string]catalog.Warehouse
	locations  map[string]catalog.Location
	customers  map[string]catalog.Customer
	registers  map[string]catalog.Register

	stockMovements []stock.Movement
	aggregates     map[string]stock.Aggregate
	totals         map[string]stock.ProductTotal

	accountMovements []account.Movement
	accounts         map[string]account.Account

	orders map[string]*order.Order

	sessions      map[string]*cashdesk.Session
	cashMovements []cashdesk.Movement
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: state{
			products:      make(map[string]catalog.Product),
			warehouses:    make(map[string]catalog.Warehouse),
			locations:     make(map[string]catalog.Location),
			customers:     make(map[string]catalog.Customer),
			registers:     make(map[string]catalog.Register),
			aggregates:    make(map[string]stock.Aggregate),
			totals:        make(map[string]stock.ProductTotal),
			accounts:      make(map[string]account.Account),
			orders:        make(map[string]*order.Order),
			sessions:      make(map[string]*cashdesk.Session),
			cashMovements: nil,
		},
		seq: make(map[string]int64),
	}
}

// clone deep-copies the state for snapshot rollback.
func (s state) clone() state {
	c := state{
		products:   copyMap(s.products),
		warehouses: copyMap(s.warehouses),
		locations:  copyMap(s.locations),
		customers:  copyMap(s.customers),
		registers:  copyMap(s.registers),

		stockMovements: append([]stock.Movement(nil), s.stockMovements...),
		aggregates:     copyMap(s.aggregates),
		totals:         copyMap(s.totals),

		accountMovements: append([]account.Movement(nil), s.accountMovements...),
		accounts:         copyMap(s.accounts),

		orders:   make(map[string]*order.Order, len(s.orders)),
		sessions: make(map[string]*cashdesk.Session, len(s.sessions)),

		cashMovements: append([]cashdesk.Movement(nil), s.cashMovements...),
	}
	for k, o := range s.orders {
		c.orders[k] = cloneOrder(o)
	}
	for k, sess := range s.sessions {
		cp := *sess
		c.sessions[k] = &cp
	}
	return c
}

func copyMap[V any](m map[string]V) map[string]V {
	c := make(map[string]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Lines = append([]order.Line(nil), o.Lines...)
	if o.FinalizedAt != nil {
		t := *o.FinalizedAt
		cp.FinalizedAt = &t
	}
	return &cp
}

// TxManager serializes units of work over the store and rolls back by
// restoring a snapshot.
type TxManager struct {
	store *Store
	txMu  sync.Mutex
}

// NewTxManager creates a transaction manager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

type txKey struct{}

// RunInTransaction implements tx.Manager. Nested calls join the outer
// transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.store.mu.Lock()
	snapshot := m.store.state.clone()
	m.store.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, struct{}{}))
	if err != nil {
		m.store.mu.Lock()
		m.store.state = snapshot
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// ReadOnly implements tx.ReadOnlyManager.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Numbers is a NumberSource backed by an in-process counter.
type Numbers struct {
	store *Store
}

// NewNumbers creates a number source over the store.
func NewNumbers(store *Store) *Numbers {
	return &Numbers{store: store}
}

// Next implements ledger.NumberSource.
func (n *Numbers) Next(_ context.Context, kind string) (string, error) {
	n.store.seqMu.Lock()
	defer n.store.seqMu.Unlock()
	n.store.seq[kind]++
	return fmt.Sprintf("%s-%06d", kind, n.store.seq[kind]), nil
}
