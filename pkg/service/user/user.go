// Package user implements registration: creating an account holder together
// with their first account, optionally funded by an initial deposit.
package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/money"
	"github.com/selimk/teller/pkg/repository"
	accountsvc "github.com/selimk/teller/pkg/service/account"
	"github.com/selimk/teller/pkg/service/ledger"
)

// Registration carries the already-validated registration input.
type Registration struct {
	Name           string
	Email          string
	Password       string
	AccountType    account.Type
	Currency       money.Code
	InitialDeposit money.Money
}

// Service handles account-holder registration.
type Service struct {
	uow      repository.UnitOfWork
	accounts *accountsvc.Service
	engine   *ledger.Service
	logger   *slog.Logger
}

// New creates a user Service.
func New(
	uow repository.UnitOfWork,
	accounts *accountsvc.Service,
	engine *ledger.Service,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, accounts: accounts, engine: engine, logger: logger}
}

// Register creates the user, opens their first account, and funds it through
// the ledger engine when an initial deposit is given, so the deposit shows
// up as a regular ledger row.
func (s *Service) Register(ctx context.Context, reg Registration) (*user.User, *account.Account, error) {
	log := s.logger.With("email", reg.Email)
	if reg.InitialDeposit.IsNegative() {
		return nil, nil, account.ErrAmountMustBePositive
	}

	var created *user.User
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if _, err = users.GetByEmail(ctx, reg.Email); err == nil {
			return user.ErrEmailTaken
		} else if !errors.Is(err, user.ErrUserNotFound) {
			return err
		}
		created, err = user.NewUser(reg.Name, reg.Email, reg.Password)
		if err != nil {
			return err
		}
		return users.Create(ctx, created)
	})
	if err != nil {
		log.Error("registration failed", "error", err)
		return nil, nil, err
	}

	opened, err := s.accounts.CreateAccount(ctx, created.ID, reg.AccountType, reg.Currency)
	if err != nil {
		log.Error("registration failed: account creation", "error", err)
		return nil, nil, err
	}

	if reg.InitialDeposit.IsPositive() {
		receipt, err := s.engine.Deposit(ctx, created.ID, opened.ID, reg.InitialDeposit)
		if err != nil {
			log.Error("registration failed: initial deposit", "error", err)
			return nil, nil, err
		}
		opened.Balance = receipt.SourceBalance
	}

	log.Info("user registered", "user_id", created.ID, "account_id", opened.ID)
	return created, opened, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u *user.User
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = users.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
