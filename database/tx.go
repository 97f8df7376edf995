package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// txState is the transaction a context carries plus the callbacks to run once
// its outermost transaction commits. Nested transactions share the callbacks.
type txState struct {
	tx       *gorm.DB
	onCommit *[]func()
}

func stateFrom(ctx context.Context) (*txState, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	return st, ok && st != nil && st.tx != nil
}

// WithTx returns a context carrying tx. Code that resolves its handle through
// Conn will then run inside that transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	hooks := new([]func())
	if parent, ok := stateFrom(ctx); ok {
		hooks = parent.onCommit
	}
	return context.WithValue(ctx, txKey{}, &txState{tx: tx, onCommit: hooks})
}

// TxFrom returns the transaction carried by ctx, if any.
func TxFrom(ctx context.Context) (*gorm.DB, bool) {
	st, ok := stateFrom(ctx)
	if !ok {
		return nil, false
	}
	return st.tx, true
}

// Conn prefers an existing per-request transaction (middlewares.RequestTx),
// else falls back to the base handle.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// AfterCommit defers fn until the transaction carried by ctx has committed.
// Without a transaction fn runs right away. fn is dropped on rollback.
func AfterCommit(ctx context.Context, fn func()) {
	st, ok := stateFrom(ctx)
	if !ok {
		fn()
		return
	}
	*st.onCommit = append(*st.onCommit, fn)
}

// Committed runs and clears the callbacks registered with AfterCommit. The
// owner of the outermost transaction calls it after a successful commit.
func Committed(ctx context.Context) {
	st, ok := stateFrom(ctx)
	if !ok {
		return
	}
	hooks := *st.onCommit
	*st.onCommit = nil
	for _, fn := range hooks {
		fn()
	}
}

// Transaction runs fn in a transaction. Inside an existing request
// transaction it nests (savepoint) instead of opening a second connection,
// and AfterCommit callbacks wait for the outer commit.
func Transaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	_, nested := TxFrom(ctx)
	var inner context.Context
	err := Conn(ctx, db).Transaction(func(tx *gorm.DB) error {
		inner = WithTx(ctx, tx)
		return fn(inner)
	})
	if err == nil && !nested {
		Committed(inner)
	}
	return err
}
