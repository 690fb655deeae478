package ledger_repo

import (
	"context"
	"time"

	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/pkg/numerator"
)

// Numbers adapts the numerator to ledger.NumberSource. Each document kind
// gets its own yearly sequence; the strict strategy keeps numbers gapless.
type Numbers struct {
	svc     *numerator.Service
	configs map[string]numerator.Config
}

// NewNumbers creates a number source over the transaction manager's pool.
func NewNumbers(pool *postgres.Pool) *Numbers {
	return &Numbers{
		svc: numerator.New(pool),
		configs: map[string]numerator.Config{
			"order":   numerator.DefaultConfig("ORD"),
			"session": numerator.DefaultConfig("SES"),
		},
	}
}

// Next implements ledger.NumberSource.
func (n *Numbers) Next(ctx context.Context, kind string) (string, error) {
	cfg, ok := n.configs[kind]
	if !ok {
		cfg = numerator.DefaultConfig(kind)
	}
	return n.svc.GetNextNumber(ctx, cfg, nil, time.Now())
}

// Ensure interface compliance.
var _ ledger.NumberSource = (*Numbers)(nil)
