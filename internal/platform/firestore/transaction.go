package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

// TxFunc runs inside a Firestore transaction. The context it receives is the
// transaction-scoped context, not the caller's.
type TxFunc func(ctx context.Context, tx *firestore.Transaction) error

// TxOption adjusts retry and deadline behaviour for a single transaction.
type TxOption func(*txSettings)

type txSettings struct {
	maxAttempts int
	deadline    time.Duration
}

func defaultTxSettings() txSettings {
	return txSettings{maxAttempts: 5, deadline: 15 * time.Second}
}

// WithTxAttempts caps how many times the transaction is retried on contention.
func WithTxAttempts(attempts int) TxOption {
	return func(s *txSettings) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithTxTimeout bounds the total wall-clock time of the transaction.
func WithTxTimeout(timeout time.Duration) TxOption {
	return func(s *txSettings) {
		if timeout > 0 {
			s.deadline = timeout
		}
	}
}

// RunTransaction executes fn transactionally on client, applying the default
// attempt and deadline limits unless opts override them. A caller deadline
// already tighter than the configured one is left in place.
func RunTransaction(ctx context.Context, client *firestore.Client, fn TxFunc, opts ...TxOption) error {
	if client == nil {
		return WrapError("transaction", errors.New("firestore: client is nil"))
	}
	if fn == nil {
		return WrapError("transaction", errors.New("firestore: transaction function is nil"))
	}

	settings := defaultTxSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	txnCtx := ctx
	if settings.deadline > 0 {
		if existing, ok := ctx.Deadline(); !ok || time.Until(existing) > settings.deadline {
			var cancel context.CancelFunc
			txnCtx, cancel = context.WithTimeout(ctx, settings.deadline)
			defer cancel()
		}
	}

	var txnOpts []firestore.TransactionOption
	if settings.maxAttempts > 0 {
		txnOpts = append(txnOpts, firestore.MaxAttempts(settings.maxAttempts))
	}

	return WrapError("transaction", client.RunTransaction(txnCtx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, tx)
	}, txnOpts...))
}
