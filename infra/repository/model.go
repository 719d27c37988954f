package repository

import (
	"time"

	"github.com/google/uuid"
)

// Account is the persistence model for the accounts table.
type Account struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Number      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_number"`
	Balance     int64     `gorm:"not null;default:0"`
	Currency    string    `gorm:"type:varchar(3);not null;default:'USD'"`
	AccountType string    `gorm:"type:varchar(16);not null;default:'checking'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string { return "accounts" }

// Transaction is the persistence model for the transactions table. Rows are
// insert-only; there is no code path that updates or deletes them.
type Transaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	FromAccount     uuid.UUID `gorm:"type:uuid;not null;index"`
	ToAccount       uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount          int64     `gorm:"not null"`
	Currency        string    `gorm:"type:varchar(3);not null"`
	TransactionType string    `gorm:"type:varchar(16);not null"`
	CreatedAt       time.Time `gorm:"index"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// User is the persistence model for the users table.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Password  string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string { return "users" }
