package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"summation/internal/domain"
)

func (d *Database) UpsertUserModel(ctx context.Context, userID int64, model domain.Model) error {
	if !model.Valid() {
		return fmt.Errorf("unsupported model (name = %s)", model)
	}

	query := `insert into user_settings (user_id, model, updated_at) values (?, ?, current_timestamp)
on conflict(user_id) do update set model = excluded.model, updated_at = excluded.updated_at`

	if _, err := d.db.ExecContext(ctx, query, userID, model.String()); err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

// GetUserSettings returns the stored settings, falling back to defaultModel
// when the user has none or the stored model is no longer supported.
func (d *Database) GetUserSettings(
	ctx context.Context,
	userID int64,
	defaultModel domain.Model,
) (*domain.UserSettings, error) {
	query := "select model from user_settings where user_id = ?"

	var stored string

	err := d.db.QueryRowContext(ctx, query, userID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserSettings{UserID: userID, Model: defaultModel}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	model := domain.Model(stored)
	if !model.Valid() {
		d.log.WarnContext(ctx, "Stored model is no longer supported",
			"userID", userID,
			"storedModel", stored,
			"fallbackModel", defaultModel.String())

		model = defaultModel
	}

	return &domain.UserSettings{UserID: userID, Model: model}, nil
}
