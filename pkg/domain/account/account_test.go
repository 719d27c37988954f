package account_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		a, err := account.New().WithOwner(uuid.New()).Build()
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Len(t, a.Number, 10)
		assert.Equal(t, account.TypeChecking, a.Type)
		assert.True(t, a.Balance.IsZero())
		assert.Equal(t, money.DefaultCurrency, a.Balance.Currency())
	})

	t.Run("owner required", func(t *testing.T) {
		_, err := account.New().Build()
		assert.Error(t, err)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := account.New().WithOwner(uuid.New()).WithType("prestige").Build()
		assert.Error(t, err)
	})

	t.Run("negative balance rejected", func(t *testing.T) {
		_, err := account.New().WithOwner(uuid.New()).WithBalance(-1).Build()
		assert.ErrorIs(t, err, account.ErrInsufficientFunds)
	})
}

func TestNewAccountNumber(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for range 100 {
		n := account.NewAccountNumber()
		require.Len(t, n, 10)
		assert.NotEqual(t, byte('0'), n[0])
		for _, r := range n {
			assert.True(t, r >= '0' && r <= '9')
		}
		assert.False(t, seen[n], "duplicate account number %s", n)
		seen[n] = true
	}
}

func TestValidateDebit(t *testing.T) {
	t.Parallel()
	acc, err := account.New().
		WithOwner(uuid.New()).
		WithBalance(10000). // 100.00 USD
		Build()
	require.NoError(t, err)
	usd := func(v float64) money.Money {
		m, err := money.New(v, "USD")
		require.NoError(t, err)
		return m
	}

	t.Run("within balance", func(t *testing.T) {
		assert.NoError(t, acc.ValidateDebit(usd(50)))
	})

	t.Run("exact balance allowed", func(t *testing.T) {
		assert.NoError(t, acc.ValidateDebit(usd(100)))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		assert.ErrorIs(t, acc.ValidateDebit(usd(100.01)), account.ErrInsufficientFunds)
	})

	t.Run("zero amount", func(t *testing.T) {
		assert.ErrorIs(t, acc.ValidateDebit(usd(0)), account.ErrAmountMustBePositive)
	})

	t.Run("negative amount", func(t *testing.T) {
		neg, err := money.NewFromSmallestUnit(-100, "USD")
		require.NoError(t, err)
		assert.ErrorIs(t, acc.ValidateDebit(neg), account.ErrAmountMustBePositive)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur, err := money.New(10, "EUR")
		require.NoError(t, err)
		assert.ErrorIs(t, acc.ValidateDebit(eur), account.ErrCurrencyMismatch)
	})
}

func TestTransactionShapes(t *testing.T) {
	t.Parallel()
	amt, err := money.New(25, "USD")
	require.NoError(t, err)

	t.Run("deposit is self-referencing", func(t *testing.T) {
		id := uuid.New()
		tx := account.NewTransaction(id, amt, account.KindDeposit)
		assert.Equal(t, tx.FromAccount, tx.ToAccount)
		assert.Equal(t, id, tx.FromAccount)
		assert.Equal(t, account.KindDeposit, tx.Kind)
	})

	t.Run("transfer references two accounts", func(t *testing.T) {
		from, to := uuid.New(), uuid.New()
		tx := account.NewTransferTransaction(from, to, amt)
		assert.Equal(t, from, tx.FromAccount)
		assert.Equal(t, to, tx.ToAccount)
		assert.Equal(t, account.KindTransfer, tx.Kind)
	})

	t.Run("kind validity", func(t *testing.T) {
		assert.True(t, account.KindDeposit.Valid())
		assert.True(t, account.KindWithdrawal.Valid())
		assert.True(t, account.KindTransfer.Valid())
		assert.False(t, account.Kind("refund").Valid())
	})
}
