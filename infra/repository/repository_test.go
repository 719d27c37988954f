package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/money"
	repo "github.com/selimk/teller/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func accountRows(m *Account) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "number", "balance", "currency", "account_type", "created_at", "updated_at",
	}).AddRow(m.ID, m.OwnerID, m.Number, m.Balance, m.Currency, m.AccountType, m.CreatedAt, m.UpdatedAt)
}

func TestAccountRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	m := &Account{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		Number:      "1234567890",
		Balance:     10000,
		Currency:    "USD",
		AccountType: "checking",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	mock.ExpectQuery(`SELECT (.+) FROM "accounts" WHERE id = (.+) AND owner_id = (.+)`).
		WithArgs(m.ID, m.OwnerID, 1).
		WillReturnRows(accountRows(m))

	got, err := repo.Get(t.Context(), m.ID, m.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, int64(10000), got.Balance.Amount())
	assert.Equal(t, account.TypeChecking, got.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	mock.ExpectQuery(`SELECT (.+) FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(t.Context(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestAccountRepository_GetByNumber_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	mock.ExpectQuery(`SELECT (.+) FROM "accounts" WHERE number = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByNumber(t.Context(), "0000000000")
	assert.ErrorIs(t, err, account.ErrRecipientNotFound)
}

func TestAccountRepository_AdjustBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	m := &Account{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		Number:      "1234567890",
		Balance:     10000,
		Currency:    "USD",
		AccountType: "checking",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	t.Run("locks the row and writes the new balance", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "accounts" WHERE id = (.+) FOR UPDATE`).
			WithArgs(m.ID, 1).
			WillReturnRows(accountRows(m))
		mock.ExpectExec(`UPDATE "accounts" SET (.+) WHERE id = (.+)`).
			WithArgs(int64(12000), sqlmock.AnyArg(), m.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		delta, err := money.New(20, "USD")
		require.NoError(t, err)
		updated, err := repo.AdjustBalance(t.Context(), m.ID, delta)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), updated.Balance.Amount())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative result aborts before any write", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "accounts" WHERE id = (.+) FOR UPDATE`).
			WithArgs(m.ID, 1).
			WillReturnRows(accountRows(m))

		delta, err := money.New(-200, "USD")
		require.NoError(t, err)
		_, err = repo.AdjustBalance(t.Context(), m.ID, delta)
		assert.ErrorIs(t, err, account.ErrInsufficientFunds)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout surfaces as busy", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "accounts" WHERE id = (.+) FOR UPDATE`).
			WithArgs(m.ID, 1).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.LockNotAvailable})

		delta, err := money.New(20, "USD")
		require.NoError(t, err)
		_, err = repo.AdjustBalance(t.Context(), m.ID, delta)
		assert.ErrorIs(t, err, account.ErrBusy)
	})
}

func TestAccountRepository_Create_DuplicateNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	a, err := account.New().WithOwner(uuid.New()).WithBalance(5000).Build()
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "accounts" (.+)`).
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "idx_accounts_number",
		})

	err = repo.Create(t.Context(), a)
	assert.ErrorIs(t, err, account.ErrDuplicateAccountNumber)
}

func TestTransactionRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := transactionRepository{db: db}

	amount, err := money.New(70, "USD")
	require.NoError(t, err)
	entry := account.NewTransferTransaction(uuid.New(), uuid.New(), amount)

	t.Run("inserts the ledger row", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "transactions" (.+)`).
			WithArgs(
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(t.Context(), entry))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure propagates", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "transactions" (.+)`).
			WillReturnError(errors.New("connection reset"))

		assert.Error(t, repo.Create(t.Context(), entry))
	})
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := userRepository{db: db}

	u, err := user.NewUser("Test User", "test@example.com", "s3cret-Passw0rd")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "users" (.+)`).
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "idx_users_email",
		})

	err = repo.Create(t.Context(), u)
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUoW_Do(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db, 3*time.Second)

	t.Run("sets the lock timeout and commits", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := uow.Do(t.Context(), func(u repo.UnitOfWork) error {
			_, err := u.AccountRepository()
			return err
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		wantErr := errors.New("domain rule violated")
		err := uow.Do(t.Context(), func(u repo.UnitOfWork) error {
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translates lock timeouts to busy", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := uow.Do(t.Context(), func(u repo.UnitOfWork) error {
			return &pgconn.PgError{Code: pgerrcode.LockNotAvailable}
		})
		assert.ErrorIs(t, err, account.ErrBusy)
	})
}
