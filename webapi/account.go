// Account routes:
//
//   - POST /account                  : open a new account for the caller
//   - POST /account/:id/deposit      : credit funds
//   - POST /account/:id/withdraw     : debit funds
//   - POST /account/:id/transfer     : move funds to another account number
//   - GET  /account/:id/balance      : current balance
//   - GET  /account/:id/transactions : ledger history for one account
//   - GET  /transactions             : recent activity across all accounts
//
// Everything here is JWT-protected; the owner id always comes from the token,
// never from the request body.
package webapi

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/config"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/middleware"
	"github.com/selimk/teller/pkg/money"
	accountsvc "github.com/selimk/teller/pkg/service/account"
	authsvc "github.com/selimk/teller/pkg/service/auth"
	"github.com/selimk/teller/pkg/service/ledger"
)

type CreateAccountRequest struct {
	AccountType string `json:"account_type" validate:"omitempty,oneof=checking savings"`
	Currency    string `json:"currency" validate:"omitempty,len=3,uppercase"`
}

type DepositRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3,uppercase"`
}

type WithdrawRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3,uppercase"`
}

type TransferRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Currency        string  `json:"currency" validate:"omitempty,len=3,uppercase"`
	ToAccountNumber string  `json:"to_account_number" validate:"required,numeric,min=8,max=20"`
}

// parseAmount converts a request amount in major units to Money, defaulting
// the currency when the request leaves it out.
func parseAmount(amount float64, currency string) (money.Money, error) {
	code := money.DefaultCurrency
	if currency != "" {
		code = money.Code(currency)
	}
	return money.New(amount, code)
}

// AccountDTO is the API representation of an account.
type AccountDTO struct {
	ID          string  `json:"id"`
	Number      string  `json:"number"`
	AccountType string  `json:"account_type"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
	CreatedAt   string  `json:"created_at"`
}

// TransactionDTO is the API representation of a ledger row. Amount is always
// the unsigned moved amount; the direction is given by the kind and the
// account references.
type TransactionDTO struct {
	ID          string  `json:"id"`
	FromAccount string  `json:"from_account"`
	ToAccount   string  `json:"to_account"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Kind        string  `json:"kind"`
	CreatedAt   string  `json:"created_at"`
}

// ReceiptDTO wraps a committed operation with the resulting balance.
type ReceiptDTO struct {
	Transaction *TransactionDTO `json:"transaction"`
	Balance     float64         `json:"balance"`
	Currency    string          `json:"currency"`
}

// ToAccountDTO maps a domain account to its API representation.
func ToAccountDTO(a *account.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:          a.ID.String(),
		Number:      a.Number,
		AccountType: string(a.Type),
		Balance:     a.Balance.AmountFloat(),
		Currency:    string(a.Balance.Currency()),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

// ToTransactionDTO maps a ledger row to its API representation.
func ToTransactionDTO(tx *account.Transaction) *TransactionDTO {
	if tx == nil {
		return nil
	}
	return &TransactionDTO{
		ID:          tx.ID.String(),
		FromAccount: tx.FromAccount.String(),
		ToAccount:   tx.ToAccount.String(),
		Amount:      tx.Amount.AmountFloat(),
		Currency:    string(tx.Amount.Currency()),
		Kind:        string(tx.Kind),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

// ToReceiptDTO maps an engine receipt to its API representation.
func ToReceiptDTO(r *ledger.Receipt) *ReceiptDTO {
	if r == nil {
		return nil
	}
	return &ReceiptDTO{
		Transaction: ToTransactionDTO(r.Transaction),
		Balance:     r.SourceBalance.AmountFloat(),
		Currency:    string(r.SourceBalance.Currency()),
	}
}

// ToTransactionDTOs maps a slice of ledger rows.
func ToTransactionDTOs(txs []*account.Transaction) []*TransactionDTO {
	out := make([]*TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToTransactionDTO(tx))
	}
	return out
}

// AccountRoutes registers the protected account and ledger endpoints.
func AccountRoutes(
	app *fiber.App,
	accounts *accountsvc.Service,
	engine *ledger.Service,
	auth *authsvc.Service,
	cfg *config.Jwt,
	logger *slog.Logger,
) {
	guard := middleware.Protected(cfg)
	app.Post("/account", guard, CreateAccount(accounts, auth, logger))
	app.Post("/account/:id/deposit", guard, Deposit(engine, auth, logger))
	app.Post("/account/:id/withdraw", guard, Withdraw(engine, auth, logger))
	app.Post("/account/:id/transfer", guard, Transfer(engine, auth, logger))
	app.Get("/account/:id/balance", guard, GetBalance(accounts, auth, logger))
	app.Get("/account/:id/transactions", guard, GetTransactions(accounts, auth, logger))
	app.Get("/transactions", guard, RecentTransactions(accounts, auth, logger))
}

// CreateAccount opens a new account for the authenticated user.
func CreateAccount(accounts *accountsvc.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		input, err := BindAndValidate[CreateAccountRequest](c)
		if err != nil {
			return nil
		}
		currency := money.DefaultCurrency
		if input.Currency != "" {
			currency = money.Code(input.Currency)
		}
		accType := account.TypeChecking
		if input.AccountType != "" {
			accType = account.Type(input.AccountType)
		}
		a, err := accounts.CreateAccount(c.UserContext(), ownerID, accType, currency)
		if err != nil {
			logger.Error("account creation failed", "owner_id", ownerID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to create account", err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Account created",
			Data:    ToAccountDTO(a),
		})
	}
}

// Deposit credits the amount to the caller's account.
func Deposit(engine *ledger.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		input, err := BindAndValidate[DepositRequest](c)
		if err != nil {
			return nil
		}
		amount, err := parseAmount(input.Amount, input.Currency)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Invalid amount", err.Error())
		}
		receipt, err := engine.Deposit(c.UserContext(), ownerID, accountID, amount)
		if err != nil {
			logger.Error("deposit failed", "account_id", accountID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to deposit", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Deposit successful",
			Data:    ToReceiptDTO(receipt),
		})
	}
}

// Withdraw debits the amount from the caller's account.
func Withdraw(engine *ledger.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		input, err := BindAndValidate[WithdrawRequest](c)
		if err != nil {
			return nil
		}
		amount, err := parseAmount(input.Amount, input.Currency)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Invalid amount", err.Error())
		}
		receipt, err := engine.Withdraw(c.UserContext(), ownerID, accountID, amount)
		if err != nil {
			logger.Error("withdrawal failed", "account_id", accountID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to withdraw", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Withdrawal successful",
			Data:    ToReceiptDTO(receipt),
		})
	}
}

// Transfer moves the amount from the caller's account to the recipient
// addressed by account number.
func Transfer(engine *ledger.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		input, err := BindAndValidate[TransferRequest](c)
		if err != nil {
			return nil
		}
		amount, err := parseAmount(input.Amount, input.Currency)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Invalid amount", err.Error())
		}
		receipt, err := engine.Transfer(c.UserContext(), ownerID, accountID, input.ToAccountNumber, amount)
		if err != nil {
			logger.Error("transfer failed", "account_id", accountID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to transfer", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Transfer successful",
			Data:    ToReceiptDTO(receipt),
		})
	}
}

// GetBalance returns the current balance of the caller's account.
func GetBalance(accounts *accountsvc.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		balance, err := accounts.GetBalance(c.UserContext(), ownerID, accountID)
		if err != nil {
			logger.Error("balance lookup failed", "account_id", accountID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to fetch balance", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Balance fetched",
			Data: fiber.Map{
				"balance":  balance.AmountFloat(),
				"currency": string(balance.Currency()),
			},
		})
	}
}

// GetTransactions lists the ledger rows touching the caller's account,
// newest first.
func GetTransactions(accounts *accountsvc.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		txs, err := accounts.ListTransactions(c.UserContext(), ownerID, accountID, c.QueryInt("limit"))
		if err != nil {
			logger.Error("transaction listing failed", "account_id", accountID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to list transactions", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Transactions fetched",
			Data:    ToTransactionDTOs(txs),
		})
	}
}

// RecentTransactions returns the dashboard feed: the newest ledger rows
// across all of the caller's accounts.
func RecentTransactions(accounts *accountsvc.Service, auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := currentUserID(c, auth)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}
		txs, err := accounts.RecentTransactions(c.UserContext(), ownerID)
		if err != nil {
			logger.Error("recent transactions failed", "owner_id", ownerID, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to list transactions", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Transactions fetched",
			Data:    ToTransactionDTOs(txs),
		})
	}
}
