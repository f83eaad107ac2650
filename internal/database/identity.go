package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CurrentUserSetting is the transaction-local setting read by the row level
// security policies in migrations/V3__row_level_security.sql.
const CurrentUserSetting = "app.current_user_id"

var ErrNoIdentity = errors.New("database: identity required")

// WithIdentity runs fn inside a transaction whose current user is userID.
// The setting is applied with is_local=true, so it is discarded on commit or
// rollback and never survives on a pooled connection. A panic in fn rolls
// back before it propagates.
func WithIdentity(ctx context.Context, db DB, userID uuid.UUID, fn func(tx Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	if userID == uuid.Nil {
		return ErrNoIdentity
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT set_config($1, $2, true)`, CurrentUserSetting, userID.String()); err != nil {
		return fmt.Errorf("set identity: %w", err)
	}

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
