package webapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/money"
	authsvc "github.com/selimk/teller/pkg/service/auth"
	usersvc "github.com/selimk/teller/pkg/service/user"
)

// RegisterRequest is the payload for opening an account holder with their
// first account. InitialDeposit is in major currency units.
type RegisterRequest struct {
	Name           string  `json:"name" validate:"required,min=2,max=255"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8,max=72"`
	AccountType    string  `json:"account_type" validate:"omitempty,oneof=checking savings"`
	Currency       string  `json:"currency" validate:"omitempty,len=3,uppercase"`
	InitialDeposit float64 `json:"initial_deposit" validate:"omitempty,gte=0"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse returns the new holder and their opened account.
type RegisterResponse struct {
	UserID  string      `json:"user_id"`
	Email   string      `json:"email"`
	Account *AccountDTO `json:"account"`
}

// AuthRoutes registers the public registration and login endpoints.
func AuthRoutes(app *fiber.App, users *usersvc.Service, auth *authsvc.Service, logger *slog.Logger) {
	app.Post("/register", Register(users, logger))
	app.Post("/login", Login(auth, logger))
}

// Register creates a user and their first account, optionally funded with an
// initial deposit that lands in the ledger like any other deposit.
func Register(users *usersvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[RegisterRequest](c)
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
		deposit, err := money.New(input.InitialDeposit, currency)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Invalid initial deposit", err.Error())
		}
		u, a, err := users.Register(c.UserContext(), usersvc.Registration{
			Name:           input.Name,
			Email:          input.Email,
			Password:       input.Password,
			AccountType:    accType,
			Currency:       currency,
			InitialDeposit: deposit,
		})
		if err != nil {
			logger.Error("registration failed", "email", input.Email, "error", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Registration failed", err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(Response{
			Status:  fiber.StatusCreated,
			Message: "Registration successful",
			Data: RegisterResponse{
				UserID:  u.ID.String(),
				Email:   u.Email,
				Account: ToAccountDTO(a),
			},
		})
	}
}

// Login authenticates the credentials and returns a bearer token.
func Login(auth *authsvc.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[LoginRequest](c)
		if err != nil {
			return nil
		}
		u, err := auth.Login(c.UserContext(), input.Email, input.Password)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Login failed", err.Error())
		}
		token, err := auth.GenerateToken(u)
		if err != nil {
			logger.Error("token generation failed", "user_id", u.ID, "error", err)
			return ErrorResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Login successful",
			Data:    fiber.Map{"token": token},
		})
	}
}

// currentUserID resolves the authenticated owner id from the verified token
// the JWT middleware stored on the request.
func currentUserID(c *fiber.Ctx, auth *authsvc.Service) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing user context")
	}
	return auth.CurrentUserID(token)
}
