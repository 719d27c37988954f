// Package repository defines the data-access contracts the services depend
// on. Implementations live in infra/repository.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/money"
)

// AccountRepository provides account lookup and balance mutation.
//
// Owner scoping is part of this contract: Get filters by both account id and
// owner id so a caller bug can never reach another user's account. Balance
// mutation goes through AdjustBalance only, which serializes concurrent
// adjustments on the same account via a row lock.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error

	// Get fetches an account owned by ownerID. Returns
	// account.ErrAccountNotFound when the account does not exist or
	// belongs to someone else.
	Get(ctx context.Context, id, ownerID uuid.UUID) (*account.Account, error)

	// GetByNumber resolves an account by its externally visible number,
	// independent of owner. Returns account.ErrRecipientNotFound when
	// absent.
	GetByNumber(ctx context.Context, number string) (*account.Account, error)

	// AdjustBalance applies balance += delta under the account's row lock
	// and returns the updated account. A negative result aborts with
	// account.ErrInsufficientFunds and no mutation. The check and the
	// update happen under the same lock, so a concurrent adjustment can
	// never act on a stale balance.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Money) (*account.Account, error)

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)
}

// TransactionRepository appends and reads the immutable ledger. There is
// deliberately no update or delete: rows are an audit trail.
type TransactionRepository interface {
	Create(ctx context.Context, tx *account.Transaction) error

	// ListByAccount returns the newest-first ledger rows touching the
	// given account, owner-scoped like AccountRepository.Get.
	ListByAccount(ctx context.Context, accountID, ownerID uuid.UUID, limit int) ([]*account.Transaction, error)

	// ListByOwner returns the newest-first rows touching any of the
	// owner's accounts (the dashboard feed).
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*account.Transaction, error)
}

// UserRepository provides account-holder persistence.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}
