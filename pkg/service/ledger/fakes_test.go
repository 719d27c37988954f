package ledger_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/money"
	"github.com/selimk/teller/pkg/repository"
)

// memStore is an in-memory stand-in for the ledger store. Do serializes
// units of work with a single mutex (the moral equivalent of the database
// serializing conflicting row locks) and restores a snapshot when the unit
// returns an error, so commit-or-rollback semantics hold exactly.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]account.Account
	ledger   []account.Transaction

	// Failure injection. appendErr fails the next ledger append;
	// adjustFailAt fails the Nth AdjustBalance call of the current unit.
	appendErr    error
	adjustFailAt int
	adjustErr    error
	adjustCalls  int
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]account.Account)}
}

func (s *memStore) seed(a *account.Account) {
	s.accounts[a.ID] = *a
}

func (s *memStore) balance(id uuid.UUID) money.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance
}

func (s *memStore) ledgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

func (s *memStore) ledgerRows() []account.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]account.Transaction, len(s.ledger))
	copy(rows, s.ledger)
	return rows
}

// memUoW implements repository.UnitOfWork over a memStore.
type memUoW struct {
	store *memStore
	inTx  bool
}

func newMemUoW(store *memStore) *memUoW {
	return &memUoW{store: store}
}

func (u *memUoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	// Snapshot for rollback.
	snapshot := make(map[uuid.UUID]account.Account, len(u.store.accounts))
	for id, a := range u.store.accounts {
		snapshot[id] = a
	}
	ledgerLen := len(u.store.ledger)
	u.store.adjustCalls = 0

	if err := fn(&memUoW{store: u.store, inTx: true}); err != nil {
		u.store.accounts = snapshot
		u.store.ledger = u.store.ledger[:ledgerLen]
		return err
	}
	return nil
}

func (u *memUoW) AccountRepository() (repository.AccountRepository, error) {
	return &memAccountRepo{store: u.store}, nil
}

func (u *memUoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &memTransactionRepo{store: u.store}, nil
}

func (u *memUoW) UserRepository() (repository.UserRepository, error) {
	return &memUserRepo{}, nil
}

type memAccountRepo struct {
	store *memStore
}

func (r *memAccountRepo) Create(ctx context.Context, a *account.Account) error {
	r.store.accounts[a.ID] = *a
	return nil
}

func (r *memAccountRepo) Get(ctx context.Context, id, ownerID uuid.UUID) (*account.Account, error) {
	a, ok := r.store.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return nil, account.ErrAccountNotFound
	}
	clone := a
	return &clone, nil
}

func (r *memAccountRepo) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	for _, a := range r.store.accounts {
		if a.Number == number {
			clone := a
			return &clone, nil
		}
	}
	return nil, account.ErrRecipientNotFound
}

func (r *memAccountRepo) AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Money) (*account.Account, error) {
	r.store.adjustCalls++
	if r.store.adjustFailAt > 0 && r.store.adjustCalls == r.store.adjustFailAt {
		return nil, r.store.adjustErr
	}
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	newBalance, err := a.Balance.Add(delta)
	if err != nil {
		return nil, err
	}
	if newBalance.IsNegative() {
		return nil, account.ErrInsufficientFunds
	}
	a.Balance = newBalance
	r.store.accounts[id] = a
	clone := a
	return &clone, nil
}

func (r *memAccountRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	var out []*account.Account
	for _, a := range r.store.accounts {
		if a.OwnerID == ownerID {
			clone := a
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memTransactionRepo struct {
	store *memStore
}

func (r *memTransactionRepo) Create(ctx context.Context, tx *account.Transaction) error {
	if r.store.appendErr != nil {
		return r.store.appendErr
	}
	r.store.ledger = append(r.store.ledger, *tx)
	return nil
}

func (r *memTransactionRepo) ListByAccount(ctx context.Context, accountID, ownerID uuid.UUID, limit int) ([]*account.Transaction, error) {
	var out []*account.Transaction
	for i := len(r.store.ledger) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		row := r.store.ledger[i]
		if row.FromAccount == accountID || row.ToAccount == accountID {
			clone := row
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memTransactionRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*account.Transaction, error) {
	owned := make(map[uuid.UUID]bool)
	for id, a := range r.store.accounts {
		if a.OwnerID == ownerID {
			owned[id] = true
		}
	}
	var out []*account.Transaction
	for i := len(r.store.ledger) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		row := r.store.ledger[i]
		if owned[row.FromAccount] || owned[row.ToAccount] {
			clone := row
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memUserRepo struct{}

func (r *memUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (r *memUserRepo) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}
