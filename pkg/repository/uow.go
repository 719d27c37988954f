package repository

import "context"

// UnitOfWork is the transaction boundary for ledger mutations.
//
// Do opens one database transaction, runs fn inside it, and commits when fn
// returns nil or rolls back when it returns an error. The repositories
// handed out by the accessor methods inside fn are bound to that open
// transaction, so every read, lock and write in fn forms a single atomic
// unit. There is no way to accidentally mix sessions.
//
// The transaction handle is owned exclusively by the running fn; a
// UnitOfWork is never shared across requests.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
	UserRepository() (UserRepository, error)
}
