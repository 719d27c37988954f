// Package initializer wires configuration, database, repositories and
// services into the dependency bundle the entrypoints run on.
package initializer

import (
	"fmt"

	"github.com/selimk/teller/infra"
	infrarepo "github.com/selimk/teller/infra/repository"
	"github.com/selimk/teller/pkg/config"
	accountsvc "github.com/selimk/teller/pkg/service/account"
	authsvc "github.com/selimk/teller/pkg/service/auth"
	"github.com/selimk/teller/pkg/service/ledger"
	usersvc "github.com/selimk/teller/pkg/service/user"
	"github.com/selimk/teller/webapi"
)

// InitializeDependencies builds everything the server needs from config.
func InitializeDependencies(cfg *config.App) (*webapi.Deps, error) {
	logger := SetupLogger(&cfg.Log)

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		return nil, err
	}

	if err := db.AutoMigrate(
		&infrarepo.User{},
		&infrarepo.Account{},
		&infrarepo.Transaction{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	uow := infrarepo.NewUoW(db, cfg.DB.LockTimeout)

	accounts := accountsvc.New(uow, logger)
	engine := ledger.New(uow, logger)
	users := usersvc.New(uow, accounts, engine, logger)
	auth := authsvc.New(uow, &cfg.Jwt, logger)

	return &webapi.Deps{
		Accounts: accounts,
		Engine:   engine,
		Users:    users,
		Auth:     auth,
		Cfg:      cfg,
		Logger:   logger,
	}, nil
}
