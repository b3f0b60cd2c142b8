package sqlite

import (
	"fmt"

	"github.com/libris-app/libris/pkg/types"
)

// Statement is one parameterized write inside a paired transaction.
// A Guard statement must affect at least one row; when it affects none the
// whole transaction is rolled back with ErrGuardNoEffect. Guards carry the
// precondition of a paired write into the transaction itself, e.g.
// "flip available to 0 only if it is still 1" during checkout.
type Statement struct {
	SQL   string
	Args  []any
	Guard bool
}

// WriteResult reports the outcome of one statement: the rowid assigned by
// an INSERT and the number of rows the statement changed.
type WriteResult struct {
	LastInsertID int64
	RowsAffected int64
}

// ApplyPaired executes the statements in order inside one database
// transaction and returns one WriteResult per statement. On any driver
// failure the transaction is rolled back completely and the error is a
// *types.TransactionError wrapping the cause; no partial write is ever
// visible to subsequent readers. A failed guard also rolls back, but
// surfaces as the plain ErrGuardNoEffect sentinel. Failed transactions
// are never retried here: a retried write with side effects could
// double-book a copy.
func (s *Store) ApplyPaired(op string, stmts []Statement) ([]WriteResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, &types.TransactionError{Op: op, Err: err}
	}
	defer tx.Rollback()

	results := make([]WriteResult, 0, len(stmts))
	for i, stmt := range stmts {
		res, err := tx.Exec(stmt.SQL, stmt.Args...)
		if err != nil {
			return nil, &types.TransactionError{Op: op, Err: fmt.Errorf("statement %d: %w", i+1, err)}
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, &types.TransactionError{Op: op, Err: fmt.Errorf("statement %d rows affected: %w", i+1, err)}
		}
		if stmt.Guard && affected == 0 {
			return nil, fmt.Errorf("%s statement %d: %w", op, i+1, types.ErrGuardNoEffect)
		}

		// LastInsertId is the SQLite rowid; harmless for non-INSERT
		// statements.
		insertID, _ := res.LastInsertId()
		results = append(results, WriteResult{LastInsertID: insertID, RowsAffected: affected})
	}

	if err := tx.Commit(); err != nil {
		return nil, &types.TransactionError{Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return results, nil
}
