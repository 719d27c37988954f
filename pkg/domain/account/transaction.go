package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/money"
)

// Kind is the type of a ledger transaction.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindTransfer   Kind = "transfer"
)

// Valid reports whether k is one of the known transaction kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransfer:
		return true
	}
	return false
}

// Transaction is one immutable row of the ledger.
//
// Deposits and withdrawals are self-referencing: FromAccount == ToAccount,
// with the direction carried by Kind rather than the sign of Amount.
// Transfers reference two distinct accounts. Rows are never updated or
// deleted after insertion.
type Transaction struct {
	ID          uuid.UUID
	FromAccount uuid.UUID
	ToAccount   uuid.UUID
	Amount      money.Money
	Kind        Kind
	CreatedAt   time.Time
}

// NewTransaction creates a ledger row for a deposit or withdrawal on a
// single account.
func NewTransaction(accountID uuid.UUID, amount money.Money, kind Kind) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		FromAccount: accountID,
		ToAccount:   accountID,
		Amount:      amount,
		Kind:        kind,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewTransferTransaction creates a ledger row moving amount between two
// accounts.
func NewTransferTransaction(fromID, toID uuid.UUID, amount money.Money) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		FromAccount: fromID,
		ToAccount:   toID,
		Amount:      amount,
		Kind:        KindTransfer,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewTransactionFromData hydrates a Transaction from stored fields,
// bypassing invariants. Repository and test use only.
func NewTransactionFromData(
	id, fromID, toID uuid.UUID,
	amount money.Money,
	kind Kind,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		ID:          id,
		FromAccount: fromID,
		ToAccount:   toID,
		Amount:      amount,
		Kind:        kind,
		CreatedAt:   createdAt,
	}
}
