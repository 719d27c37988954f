// Package account provides account lifecycle and read-side queries: opening
// accounts, balances, and transaction history. Balance mutation lives in the
// ledger service, not here.
package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/money"
	"github.com/selimk/teller/pkg/repository"
)

// RecentLimit is the number of rows in the dashboard feed.
const RecentLimit = 10

// createRetries bounds regeneration attempts on account-number collision.
const createRetries = 3

// Service provides account creation and queries.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates an account Service.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// CreateAccount opens a new account for the owner. The generated account
// number is regenerated on the rare unique-index collision.
func (s *Service) CreateAccount(
	ctx context.Context,
	ownerID uuid.UUID,
	accType account.Type,
	currency money.Code,
) (*account.Account, error) {
	log := s.logger.With("owner_id", ownerID, "account_type", accType)
	var created *account.Account
	var err error
	for range createRetries {
		created, err = s.createOnce(ctx, ownerID, accType, currency)
		if !errors.Is(err, account.ErrDuplicateAccountNumber) {
			break
		}
		log.Warn("account number collision, regenerating")
	}
	if err != nil {
		log.Error("account creation failed", "error", err)
		return nil, err
	}
	log.Info("account created", "account_id", created.ID, "number", created.Number)
	return created, nil
}

func (s *Service) createOnce(
	ctx context.Context,
	ownerID uuid.UUID,
	accType account.Type,
	currency money.Code,
) (*account.Account, error) {
	var created *account.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		created, err = account.New().
			WithOwner(ownerID).
			WithType(accType).
			WithCurrency(currency).
			Build()
		if err != nil {
			return err
		}
		return repo.Create(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetAccount fetches one of the caller's accounts.
func (s *Service) GetAccount(ctx context.Context, ownerID, accountID uuid.UUID) (*account.Account, error) {
	var a *account.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err = repo.Get(ctx, accountID, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetBalance returns the current balance of one of the caller's accounts.
func (s *Service) GetBalance(ctx context.Context, ownerID, accountID uuid.UUID) (money.Money, error) {
	a, err := s.GetAccount(ctx, ownerID, accountID)
	if err != nil {
		return money.Money{}, err
	}
	return a.Balance, nil
}

// ListAccounts returns all accounts owned by the caller.
func (s *Service) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	var out []*account.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		out, err = repo.ListByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactions returns newest-first ledger rows for one of the caller's
// accounts. limit <= 0 means no limit.
func (s *Service) ListTransactions(
	ctx context.Context,
	ownerID, accountID uuid.UUID,
	limit int,
) ([]*account.Transaction, error) {
	var out []*account.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		// Owner scoping before touching the ledger.
		if _, err = accounts.Get(ctx, accountID, ownerID); err != nil {
			return err
		}
		entries, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		out, err = entries.ListByAccount(ctx, accountID, ownerID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecentTransactions returns the dashboard feed: the newest rows touching
// any of the caller's accounts.
func (s *Service) RecentTransactions(ctx context.Context, ownerID uuid.UUID) ([]*account.Transaction, error) {
	var out []*account.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		entries, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		out, err = entries.ListByOwner(ctx, ownerID, RecentLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
