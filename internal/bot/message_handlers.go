package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"summation/internal/domain"
	"summation/internal/pipeline"
)

const helpText = `Send me a link and I will summarize it.

Supported links:
- YouTube videos (the transcript is summarized)
- Web pages (the visible text is summarized)

Commands:
/model - choose the model used for summaries
/help - show this message`

func (b *Bot) handleMessage(ctx context.Context, chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		return b.handleHelpCommand(ctx, chatID, userID)
	case strings.HasPrefix(text, "/model"):
		return b.handleModelCommand(ctx, chatID, userID)
	default:
		return b.handleURL(ctx, chatID, userID, text)
	}
}

func (b *Bot) handleHelpCommand(ctx context.Context, chatID, userID int64) error {
	model := b.userModel(ctx, userID)

	text := fmt.Sprintf("%s\n\nCurrent model: %s", helpText, model)
	if err := b.sendMessage(ctx, chatID, text, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (b *Bot) handleModelCommand(ctx context.Context, chatID, userID int64) error {
	model := b.userModel(ctx, userID)

	text := fmt.Sprintf("Current model: %s\n\nChoose a model:", model)
	if err := b.sendMessage(ctx, chatID, text, b.modelKeyboard); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (b *Bot) handleURL(ctx context.Context, chatID, userID int64, text string) error {
	model := b.userModel(ctx, userID)

	return b.withSpinner(ctx, chatID, func() error {
		obs := &chatObserver{bot: b, chatID: chatID}

		result, runErr := b.runner.Run(ctx, domain.Input{
			Credential: b.credential,
			Model:      model,
			URL:        text,
		}, obs)

		var errs []error
		if obs.err != nil {
			errs = append(errs, obs.err)
		}

		if runErr != nil {
			if err := b.sendMessage(ctx, chatID, formatFailure(runErr), nil); err != nil {
				errs = append(errs, fmt.Errorf("send failure message: %w", err))
			}

			return errors.Join(errs...)
		}

		for _, message := range splitMessage(formatSuccess(result), maxMessageLength) {
			if err := b.sendMessage(ctx, chatID, message, nil); err != nil {
				errs = append(errs, fmt.Errorf("send summary message: %w", err))
				break
			}
		}

		return errors.Join(errs...)
	})
}

// userModel falls back to the default model when the lookup fails.
func (b *Bot) userModel(ctx context.Context, userID int64) domain.Model {
	settings, err := b.settings.GetUserSettings(ctx, userID, b.defaultModel)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to get user settings",
			"error", err,
			"userID", userID)

		return b.defaultModel
	}

	return settings.Model
}

// chatObserver reports the loaded content length to the chat.
type chatObserver struct {
	bot    *Bot
	chatID int64
	err    error
}

func (o *chatObserver) StateChanged(context.Context, pipeline.State) {}

func (o *chatObserver) ContentLoaded(ctx context.Context, length int) {
	if err := o.bot.sendMessage(ctx, o.chatID, formatLoaded(length), nil); err != nil {
		o.err = fmt.Errorf("send loaded message: %w", err)
	}
}
