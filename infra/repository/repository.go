// Package repository implements the repository contracts over GORM and
// Postgres. The mutating methods are only ever reached through the unit of
// work, so every call here runs inside an open transaction.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/money"
	"github.com/selimk/teller/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates the Postgres-backed account repository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := Account{
		ID:          a.ID,
		OwnerID:     a.OwnerID,
		Number:      a.Number,
		Balance:     a.Balance.Amount(),
		Currency:    string(a.Balance.Currency()),
		AccountType: string(a.Type),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err, "idx_accounts_number") {
			return account.ErrDuplicateAccountNumber
		}
		return translateError(err)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id, ownerID uuid.UUID) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		First(&m, "id = ? AND owner_id = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, account.ErrAccountNotFound
		}
		return nil, translateError(err)
	}
	return hydrateAccount(&m)
}

func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).First(&m, "number = ?", number).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, account.ErrRecipientNotFound
		}
		return nil, translateError(err)
	}
	return hydrateAccount(&m)
}

// AdjustBalance locks the account row with SELECT ... FOR UPDATE, applies
// the delta and writes the result back under the same lock. The
// non-negativity check therefore can never act on a balance another
// transaction has already moved.
func (r *accountRepository) AdjustBalance(
	ctx context.Context,
	id uuid.UUID,
	delta money.Money,
) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, account.ErrAccountNotFound
		}
		return nil, translateError(err)
	}

	balance, err := money.NewFromSmallestUnit(m.Balance, money.Code(m.Currency))
	if err != nil {
		return nil, err
	}
	newBalance, err := balance.Add(delta)
	if err != nil {
		return nil, err
	}
	if newBalance.IsNegative() {
		return nil, account.ErrInsufficientFunds
	}

	m.Balance = newBalance.Amount()
	m.UpdatedAt = time.Now().UTC()
	err = r.db.WithContext(ctx).Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]any{"balance": m.Balance, "updated_at": m.UpdatedAt}).Error
	if err != nil {
		return nil, translateError(err)
	}
	return hydrateAccount(&m)
}

func (r *accountRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	var ms []Account
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at asc").
		Find(&ms).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		a, err := hydrateAccount(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func hydrateAccount(m *Account) (*account.Account, error) {
	return account.New().
		WithID(m.ID).
		WithOwner(m.OwnerID).
		WithNumber(m.Number).
		WithType(account.Type(m.AccountType)).
		WithCurrency(money.Code(m.Currency)).
		WithBalance(m.Balance).
		WithCreatedAt(m.CreatedAt).
		WithUpdatedAt(m.UpdatedAt).
		Build()
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates the Postgres-backed ledger repository.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	m := Transaction{
		ID:              tx.ID,
		FromAccount:     tx.FromAccount,
		ToAccount:       tx.ToAccount,
		Amount:          tx.Amount.Amount(),
		Currency:        string(tx.Amount.Currency()),
		TransactionType: string(tx.Kind),
		CreatedAt:       tx.CreatedAt,
	}
	return translateError(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *transactionRepository) ListByAccount(
	ctx context.Context,
	accountID, ownerID uuid.UUID,
	limit int,
) ([]*account.Transaction, error) {
	q := r.db.WithContext(ctx).
		Where(
			"(from_account = ? OR to_account = ?) AND EXISTS (SELECT 1 FROM accounts WHERE accounts.id = ? AND accounts.owner_id = ?)",
			accountID, accountID, accountID, ownerID,
		).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []Transaction
	if err := q.Find(&ms).Error; err != nil {
		return nil, translateError(err)
	}
	return hydrateTransactions(ms)
}

func (r *transactionRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	limit int,
) ([]*account.Transaction, error) {
	sub := r.db.Model(&Account{}).Select("id").Where("owner_id = ?", ownerID)
	q := r.db.WithContext(ctx).
		Where("from_account IN (?) OR to_account IN (?)", sub, sub).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []Transaction
	if err := q.Find(&ms).Error; err != nil {
		return nil, translateError(err)
	}
	return hydrateTransactions(ms)
}

func hydrateTransactions(ms []Transaction) ([]*account.Transaction, error) {
	out := make([]*account.Transaction, 0, len(ms))
	for _, m := range ms {
		amount, err := money.NewFromSmallestUnit(m.Amount, money.Code(m.Currency))
		if err != nil {
			return nil, err
		}
		out = append(out, account.NewTransactionFromData(
			m.ID, m.FromAccount, m.ToAccount,
			amount, account.Kind(m.TransactionType), m.CreatedAt,
		))
	}
	return out, nil
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates the Postgres-backed user repository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err, "idx_users_email") {
			return user.ErrEmailTaken
		}
		return translateError(err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return hydrateUser(&m), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return hydrateUser(&m), nil
}

func hydrateUser(m *User) *user.User {
	return user.NewUserFromData(m.ID, m.Name, m.Email, m.Password, m.CreatedAt, m.UpdatedAt)
}
