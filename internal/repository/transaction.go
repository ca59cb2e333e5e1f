package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// transactionManager implements TransactionManager
type transactionManager struct {
	db *sqlx.DB
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *sqlx.DB) TransactionManager {
	return &transactionManager{db: db}
}

// WithTransaction executes a function within a database transaction
func (tm *transactionManager) WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	repos := newRepositories(tx, tm)

	if err := fn(repos); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// dbExecutor is satisfied by both *sqlx.DB and *sqlx.Tx
type dbExecutor interface {
	sqlx.ExtContext
}

func newRepositories(db dbExecutor, tx TransactionManager) *Repositories {
	return &Repositories{
		Game:  NewGameRepository(db),
		Bet:   NewBetRepository(db),
		User:  NewUserRepository(db),
		Group: NewGroupRepository(db),
		Tx:    tx,
	}
}

// NewRepositories creates a new repository collection
func NewRepositories(db *sqlx.DB) *Repositories {
	return newRepositories(db, NewTransactionManager(db))
}
