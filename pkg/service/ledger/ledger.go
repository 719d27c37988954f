// Package ledger implements the transaction engine: the single place where
// account balances are mutated and ledger rows are appended.
//
// Every operation runs inside one unit of work. The engine validates before
// it mutates, applies balance adjustments under row locks in a deterministic
// order, and appends exactly one ledger row per committed operation. On any
// error the whole unit rolls back and the prior state is preserved.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/money"
	"github.com/selimk/teller/pkg/repository"
)

// Op describes one requested ledger operation. All fields arrive already
// typed; the engine does no text parsing.
type Op struct {
	Kind      account.Kind
	AccountID uuid.UUID
	OwnerID   uuid.UUID
	Amount    money.Money

	// ToAccountNumber addresses the transfer recipient by its external
	// account number. Ignored for deposits and withdrawals.
	ToAccountNumber string
}

// Receipt is the committed outcome of an operation.
type Receipt struct {
	Transaction   *account.Transaction
	SourceBalance money.Money

	// DestinationBalance is set for transfers only.
	DestinationBalance *money.Money
}

// Service is the transaction engine.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a ledger Service.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// Execute validates and applies op as a single atomic unit.
func (s *Service) Execute(ctx context.Context, op Op) (*Receipt, error) {
	switch op.Kind {
	case account.KindDeposit:
		return s.Deposit(ctx, op.OwnerID, op.AccountID, op.Amount)
	case account.KindWithdrawal:
		return s.Withdraw(ctx, op.OwnerID, op.AccountID, op.Amount)
	case account.KindTransfer:
		return s.Transfer(ctx, op.OwnerID, op.AccountID, op.ToAccountNumber, op.Amount)
	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// Deposit credits amount to the account and appends a self-referencing
// ledger row.
func (s *Service) Deposit(
	ctx context.Context,
	ownerID, accountID uuid.UUID,
	amount money.Money,
) (*Receipt, error) {
	log := s.logger.With("op", "deposit", "account_id", accountID, "owner_id", ownerID)
	if !amount.IsPositive() {
		return nil, account.ErrAmountMustBePositive
	}

	var receipt *Receipt
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		src, err := accounts.Get(ctx, accountID, ownerID)
		if err != nil {
			return err
		}
		if err = src.ValidateAmount(amount); err != nil {
			return err
		}
		updated, err := accounts.AdjustBalance(ctx, src.ID, amount)
		if err != nil {
			return err
		}
		entry := account.NewTransaction(src.ID, amount, account.KindDeposit)
		if err = s.appendEntry(ctx, uow, entry); err != nil {
			return err
		}
		receipt = &Receipt{Transaction: entry, SourceBalance: updated.Balance}
		return nil
	})
	if err != nil {
		log.Error("deposit aborted", "error", err)
		return nil, err
	}
	log.Info("deposit committed",
		"transaction_id", receipt.Transaction.ID,
		"balance", receipt.SourceBalance,
	)
	return receipt, nil
}

// Withdraw debits amount from the account and appends a self-referencing
// ledger row. The sufficient-funds check runs under the account's row lock,
// so a concurrent withdrawal can never observe a stale balance.
func (s *Service) Withdraw(
	ctx context.Context,
	ownerID, accountID uuid.UUID,
	amount money.Money,
) (*Receipt, error) {
	log := s.logger.With("op", "withdrawal", "account_id", accountID, "owner_id", ownerID)
	if !amount.IsPositive() {
		return nil, account.ErrAmountMustBePositive
	}

	var receipt *Receipt
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		src, err := accounts.Get(ctx, accountID, ownerID)
		if err != nil {
			return err
		}
		// Fast pre-check; AdjustBalance repeats it under the row lock.
		if err = src.ValidateDebit(amount); err != nil {
			return err
		}
		debit, err := amount.Negate()
		if err != nil {
			return err
		}
		updated, err := accounts.AdjustBalance(ctx, src.ID, debit)
		if err != nil {
			return err
		}
		entry := account.NewTransaction(src.ID, amount, account.KindWithdrawal)
		if err = s.appendEntry(ctx, uow, entry); err != nil {
			return err
		}
		receipt = &Receipt{Transaction: entry, SourceBalance: updated.Balance}
		return nil
	})
	if err != nil {
		log.Error("withdrawal aborted", "error", err)
		return nil, err
	}
	log.Info("withdrawal committed",
		"transaction_id", receipt.Transaction.ID,
		"balance", receipt.SourceBalance,
	)
	return receipt, nil
}

// Transfer moves amount from the caller's account to the account addressed
// by toNumber. Both balance legs and the ledger append commit or roll back
// together: a failure between debit and credit leaves no partial movement.
func (s *Service) Transfer(
	ctx context.Context,
	ownerID, accountID uuid.UUID,
	toNumber string,
	amount money.Money,
) (*Receipt, error) {
	log := s.logger.With("op", "transfer", "account_id", accountID, "owner_id", ownerID)
	if !amount.IsPositive() {
		return nil, account.ErrAmountMustBePositive
	}

	var receipt *Receipt
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		src, err := accounts.Get(ctx, accountID, ownerID)
		if err != nil {
			return err
		}
		dest, err := accounts.GetByNumber(ctx, toNumber)
		if err != nil {
			return err
		}
		if src.ID == dest.ID {
			return account.ErrSameAccountTransfer
		}
		if err = src.ValidateDebit(amount); err != nil {
			return err
		}
		if !dest.Balance.IsSameCurrency(amount) {
			return account.ErrCurrencyMismatch
		}
		debit, err := amount.Negate()
		if err != nil {
			return err
		}

		// Apply both legs in ascending account-id order so opposed
		// concurrent transfers acquire their row locks in the same
		// order and cannot deadlock.
		legs := []struct {
			id    uuid.UUID
			delta money.Money
		}{
			{src.ID, debit},
			{dest.ID, amount},
		}
		if bytes.Compare(legs[1].id[:], legs[0].id[:]) < 0 {
			legs[0], legs[1] = legs[1], legs[0]
		}
		var srcBalance, destBalance money.Money
		for _, leg := range legs {
			updated, err := accounts.AdjustBalance(ctx, leg.id, leg.delta)
			if err != nil {
				return err
			}
			if leg.id == src.ID {
				srcBalance = updated.Balance
			} else {
				destBalance = updated.Balance
			}
		}

		entry := account.NewTransferTransaction(src.ID, dest.ID, amount)
		if err = s.appendEntry(ctx, uow, entry); err != nil {
			return err
		}
		receipt = &Receipt{
			Transaction:        entry,
			SourceBalance:      srcBalance,
			DestinationBalance: &destBalance,
		}
		return nil
	})
	if err != nil {
		log.Error("transfer aborted", "error", err)
		return nil, err
	}
	log.Info("transfer committed",
		"transaction_id", receipt.Transaction.ID,
		"to_account", receipt.Transaction.ToAccount,
		"balance", receipt.SourceBalance,
	)
	return receipt, nil
}

func (s *Service) appendEntry(
	ctx context.Context,
	uow repository.UnitOfWork,
	entry *account.Transaction,
) error {
	entries, err := uow.TransactionRepository()
	if err != nil {
		return err
	}
	return entries.Create(ctx, entry)
}
