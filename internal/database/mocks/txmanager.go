// Package mocks provides database test doubles.
package mocks

import "context"

// PassthroughTxManager is a TxManager test double that runs the callback
// directly, emulating a committed transaction without a database. When Err is
// set, WithTx fails without invoking the callback, emulating a begin failure.
type PassthroughTxManager struct {
	Err error
}

// WithTx implements database.TxManager.
func (m *PassthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}
