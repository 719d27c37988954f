package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/selimk/teller/pkg/repository"
	"gorm.io/gorm"
)

// UoW implements repository.UnitOfWork over a gorm transaction.
//
// Do opens one read-committed transaction and applies a per-transaction
// lock_timeout so a balance mutation waiting on a contended row aborts with
// a retryable busy error instead of hanging the caller. The repositories
// returned by the accessors inside Do share that transaction, which is what
// makes an execute call one atomic unit.
type UoW struct {
	db          *gorm.DB
	tx          *gorm.DB
	lockTimeout time.Duration
}

// NewUoW creates a unit-of-work factory bound to db.
func NewUoW(db *gorm.DB, lockTimeout time.Duration) *UoW {
	return &UoW{db: db, lockTimeout: lockTimeout}
}

// Do runs fn inside a single database transaction. fn returning an error
// rolls everything back; the error is returned after translation so lock
// timeouts surface as account.ErrBusy.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 {
			// SET does not take bind parameters.
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&UoW{db: u.db, tx: tx, lockTimeout: u.lockTimeout})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	return translateError(err)
}

// session returns the open transaction, falling back to the root handle for
// reads issued outside Do.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// AccountRepository returns an account repository bound to the current session.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return NewAccountRepository(u.session()), nil
}

// TransactionRepository returns a ledger repository bound to the current session.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

// UserRepository returns a user repository bound to the current session.
func (u *UoW) UserRepository() (repository.UserRepository, error) {
	return NewUserRepository(u.session()), nil
}
