// Package account holds the core ledger domain: accounts, transactions and
// the business rules that guard balance mutations.
package account

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/money"
)

var (
	// ErrAmountMustBePositive is returned when a transaction amount is zero or negative.
	ErrAmountMustBePositive = errors.New("transaction amount must be positive")

	// ErrInsufficientFunds is returned when a withdrawal or transfer would drive the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound is returned when an account does not exist or does not belong to the caller.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRecipientNotFound is returned when a transfer recipient cannot be resolved by account number.
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrSameAccountTransfer is returned when a transfer names the source account as its destination.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// ErrCurrencyMismatch is returned when the operation currency does not match the account currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrDuplicateAccountNumber is returned when a generated account number
	// collides with an existing one. Callers regenerate and retry.
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// ErrBusy is returned when a balance mutation could not acquire its row
	// locks in time. The operation left no state change and may be retried.
	ErrBusy = errors.New("ledger busy, retry the operation")
)

// Type classifies an account.
type Type string

const (
	TypeChecking Type = "checking"
	TypeSavings  Type = "savings"
)

// Account is a customer's balance-bearing account.
//
// Invariants:
//   - an account always has an owner,
//   - the balance never goes negative,
//   - the account number is stable and externally visible, distinct from ID.
//
// Balances are mutated only by the ledger service; the struct itself carries
// no mutation methods beyond validation helpers.
type Account struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Number    string
	Type      Type
	Balance   money.Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder constructs Account values, applying defaults and invariant checks.
type Builder struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	number    string
	accType   Type
	balance   money.Amount
	currency  money.Code
	createdAt time.Time
	updatedAt time.Time
}

// New returns a Builder with a fresh ID, a generated account number and the
// default currency.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		number:    NewAccountNumber(),
		accType:   TypeChecking,
		currency:  money.DefaultCurrency,
		createdAt: time.Now().UTC(),
	}
}

// WithID sets the account ID. Used for hydration from the store.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithOwner sets the owning user. Mandatory.
func (b *Builder) WithOwner(ownerID uuid.UUID) *Builder {
	b.ownerID = ownerID
	return b
}

// WithNumber overrides the generated account number. Used for hydration.
func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

// WithType sets the account type.
func (b *Builder) WithType(t Type) *Builder {
	b.accType = t
	return b
}

// WithCurrency sets the account currency.
func (b *Builder) WithCurrency(c money.Code) *Builder {
	b.currency = c
	return b
}

// WithBalance sets the balance in the smallest currency unit. Used for
// hydration and test fixtures.
func (b *Builder) WithBalance(amount money.Amount) *Builder {
	b.balance = amount
	return b
}

// WithCreatedAt sets the creation timestamp. Used for hydration.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp. Used for hydration.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.ownerID == uuid.Nil {
		return nil, errors.New("owner is required")
	}
	if b.number == "" {
		return nil, errors.New("account number is required")
	}
	switch b.accType {
	case TypeChecking, TypeSavings:
	default:
		return nil, fmt.Errorf("unknown account type %q", b.accType)
	}
	bal, err := money.NewFromSmallestUnit(b.balance, b.currency)
	if err != nil {
		return nil, err
	}
	if bal.IsNegative() {
		return nil, ErrInsufficientFunds
	}
	return &Account{
		ID:        b.id,
		OwnerID:   b.ownerID,
		Number:    b.number,
		Type:      b.accType,
		Balance:   bal,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

const accountNumberLen = 10

// NewAccountNumber generates a random 10-digit account number. Uniqueness
// is enforced by the store's unique index; collisions surface as a create
// error and the caller regenerates.
func NewAccountNumber() string {
	digits := make([]byte, accountNumberLen)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(fmt.Sprintf("account number generation: %v", err))
		}
		digits[i] = byte('0' + n.Int64())
	}
	// Avoid a leading zero so numbers survive naive numeric handling.
	if digits[0] == '0' {
		digits[0] = '1'
	}
	return string(digits)
}

// ValidateAmount checks that the operation amount is positive and matches
// the account currency.
func (a *Account) ValidateAmount(amount money.Money) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}
	if !a.Balance.IsSameCurrency(amount) {
		return ErrCurrencyMismatch
	}
	return nil
}

// ValidateDebit checks that amount can be taken from the account without
// violating the non-negative balance invariant. The caller must hold the
// account's row lock so the check and the mutation observe the same balance.
func (a *Account) ValidateDebit(amount money.Money) error {
	if err := a.ValidateAmount(amount); err != nil {
		return err
	}
	enough, err := a.Balance.GreaterThan(amount)
	if err != nil {
		return err
	}
	if !enough && !a.Balance.Equals(amount) {
		return ErrInsufficientFunds
	}
	return nil
}
