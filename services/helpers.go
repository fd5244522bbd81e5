package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
)

// runInTx runs fn inside a transaction. A rejected operation rolls back in
// full, so the caller never observes a partially applied mutation.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapRepoError rewrites repository not-found sentinels into their
// service-level counterparts; everything else passes through.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrBracketConfigNotFound):
		return ErrConfigNotFound
	case errors.Is(err, repositories.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repositories.ErrGroupTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrEntryNotFound):
		return ErrEntryNotFound
	default:
		return err
	}
}

func intPtr(v int) *int { return &v }
