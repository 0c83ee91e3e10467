// Package ledger keeps the in-memory record of books borrowed during a session.
//
// Changes are decided by pure functions (DecideBorrow, DecideReturn) over the current records
// and applied to the Ledger as domain events. Borrowing never validates: borrowing the same book
// twice creates two entries. Returning removes every entry for the book, and returning a book
// that is not in the ledger is an idempotent no-op.
package ledger
