package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/selimk/teller/infra"
	infrarepo "github.com/selimk/teller/infra/repository"
	"github.com/selimk/teller/pkg/config"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/money"
	accountsvc "github.com/selimk/teller/pkg/service/account"
	"github.com/selimk/teller/pkg/service/ledger"
)

func usage() {
	fmt.Println("Usage: cli <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  create <owner_id>")
	fmt.Println("  deposit <owner_id> <account_id> <amount>")
	fmt.Println("  withdraw <owner_id> <account_id> <amount>")
	fmt.Println("  transfer <owner_id> <account_id> <to_account_number> <amount>")
	fmt.Println("  balance <owner_id> <account_id>")
	fmt.Println("  history <owner_id> <account_id>")
}

func main() {
	if len(os.Args) < 3 {
		usage()
		return
	}
	cmd := os.Args[1]
	ownerID, err := uuid.Parse(os.Args[2])
	if err != nil {
		fmt.Println("Invalid owner ID:", err)
		return
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.Load(logger)
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		return
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		fmt.Println("Failed to connect to database:", err)
		return
	}

	uow := infrarepo.NewUoW(db, cfg.DB.LockTimeout)
	accounts := accountsvc.New(uow, logger)
	engine := ledger.New(uow, logger)
	ctx := context.Background()

	switch cmd {
	case "create":
		a, err := accounts.CreateAccount(ctx, ownerID, account.TypeChecking, money.DefaultCurrency)
		if err != nil {
			fmt.Println("Error creating account:", err)
			return
		}
		fmt.Printf("Account created: ID=%s Number=%s Balance=%s\n", a.ID, a.Number, a.Balance)
	case "deposit":
		accountID, amount, ok := parseMoneyArgs(3)
		if !ok {
			return
		}
		receipt, err := engine.Deposit(ctx, ownerID, accountID, amount)
		if err != nil {
			fmt.Println("Error depositing:", err)
			return
		}
		fmt.Printf("Deposited %s to account %s. New balance: %s\n",
			amount, accountID, receipt.SourceBalance)
	case "withdraw":
		accountID, amount, ok := parseMoneyArgs(3)
		if !ok {
			return
		}
		receipt, err := engine.Withdraw(ctx, ownerID, accountID, amount)
		if err != nil {
			fmt.Println("Error withdrawing:", err)
			return
		}
		fmt.Printf("Withdrew %s from account %s. New balance: %s\n",
			amount, accountID, receipt.SourceBalance)
	case "transfer":
		if len(os.Args) < 6 {
			usage()
			return
		}
		accountID, err := uuid.Parse(os.Args[3])
		if err != nil {
			fmt.Println("Invalid account ID:", err)
			return
		}
		toNumber := os.Args[4]
		amount, ok := parseAmount(os.Args[5])
		if !ok {
			return
		}
		receipt, err := engine.Transfer(ctx, ownerID, accountID, toNumber, amount)
		if err != nil {
			fmt.Println("Error transferring:", err)
			return
		}
		fmt.Printf("Transferred %s to account %s. New balance: %s\n",
			amount, toNumber, receipt.SourceBalance)
	case "balance":
		if len(os.Args) < 4 {
			usage()
			return
		}
		accountID, err := uuid.Parse(os.Args[3])
		if err != nil {
			fmt.Println("Invalid account ID:", err)
			return
		}
		balance, err := accounts.GetBalance(ctx, ownerID, accountID)
		if err != nil {
			fmt.Println("Error fetching balance:", err)
			return
		}
		fmt.Printf("Account %s balance: %s\n", accountID, balance)
	case "history":
		if len(os.Args) < 4 {
			usage()
			return
		}
		accountID, err := uuid.Parse(os.Args[3])
		if err != nil {
			fmt.Println("Invalid account ID:", err)
			return
		}
		txs, err := accounts.ListTransactions(ctx, ownerID, accountID, 0)
		if err != nil {
			fmt.Println("Error listing transactions:", err)
			return
		}
		for _, tx := range txs {
			fmt.Printf("%s  %-10s  %s  %s -> %s\n",
				tx.CreatedAt.Format("2006-01-02 15:04:05"),
				tx.Kind, tx.Amount, tx.FromAccount, tx.ToAccount)
		}
	default:
		fmt.Println("Unknown command:", cmd)
		usage()
	}
}

func parseMoneyArgs(idx int) (uuid.UUID, money.Money, bool) {
	if len(os.Args) < idx+2 {
		usage()
		return uuid.Nil, money.Money{}, false
	}
	accountID, err := uuid.Parse(os.Args[idx])
	if err != nil {
		fmt.Println("Invalid account ID:", err)
		return uuid.Nil, money.Money{}, false
	}
	amount, ok := parseAmount(os.Args[idx+1])
	if !ok {
		return uuid.Nil, money.Money{}, false
	}
	return accountID, amount, true
}

func parseAmount(s string) (money.Money, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Println("Invalid amount:", err)
		return money.Money{}, false
	}
	m, err := money.New(f, money.DefaultCurrency)
	if err != nil {
		fmt.Println("Invalid amount:", err)
		return money.Money{}, false
	}
	return m, true
}
