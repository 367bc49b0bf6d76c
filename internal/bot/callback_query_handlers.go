package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"summation/internal/domain"

	tgbot "github.com/go-telegram/bot"
)

func (b *Bot) handleCallbackQuery(
	ctx context.Context,
	queryID string,
	chatID int64,
	userID int64,
	data string,
) error {
	switch {
	case strings.HasPrefix(data, modelCallbackPrefix):
		return b.withCallbackAnswer(ctx, queryID, func() error {
			return b.handleModelCallback(ctx, chatID, userID, strings.TrimPrefix(data, modelCallbackPrefix))
		})
	default:
		return b.withCallbackAnswer(ctx, queryID, func() error {
			return fmt.Errorf("unknown callback data (data = %s)", data)
		})
	}
}

func (b *Bot) handleModelCallback(ctx context.Context, chatID, userID int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("model name is empty")
	}

	model, err := domain.ParseModel(name)
	if err != nil {
		return errors.Join(
			fmt.Errorf("parse model: %w", err),
			b.sendMessage(ctx, chatID, "❌ Unsupported model.", b.modelKeyboard),
		)
	}

	if err = b.settings.UpsertUserModel(ctx, userID, model); err != nil {
		return errors.Join(
			fmt.Errorf("upsert user model: %w", err),
			b.sendMessage(ctx, chatID, "❌ Failed to save the model.", nil),
		)
	}

	if err = b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Model set to %s.", model), nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (b *Bot) withCallbackAnswer(ctx context.Context, queryID string, fn func() error) error {
	var errs []error

	if _, err := b.client.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
	}); err != nil {
		errs = append(errs, fmt.Errorf("answer callback query: %w", err))
	}

	if err := fn(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
