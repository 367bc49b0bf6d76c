package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"summation/internal/domain"
	"summation/internal/pipeline"
	"summation/internal/ratelimiter"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	updateProcessingTimeout = 2 * time.Minute

	modelCallbackPrefix = "model_"
)

// messenger is the subset of the Telegram API the bot talks to.
type messenger interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

type runner interface {
	Run(ctx context.Context, in domain.Input, obs pipeline.Observer) (domain.Result, error)
}

type settingsStore interface {
	GetUserSettings(ctx context.Context, userID int64, defaultModel domain.Model) (*domain.UserSettings, error)
	UpsertUserModel(ctx context.Context, userID int64, model domain.Model) error
}

type Bot struct {
	api           *tgbot.Bot
	client        messenger
	rateLimiter   *ratelimiter.RateLimiter
	settings      settingsStore
	runner        runner
	credential    string
	defaultModel  domain.Model
	allowedUsers  []int64
	modelKeyboard *models.InlineKeyboardMarkup
	log           *slog.Logger
}

type Options struct {
	Token        string
	Credential   string
	DefaultModel domain.Model
	AllowedUsers []int64
}

func New(
	opts Options,
	settings settingsStore,
	r runner,
	log *slog.Logger,
) (*Bot, error) {
	b := newBot(nil, opts, settings, r, log)

	api, err := tgbot.New(
		strings.TrimSpace(opts.Token),
		tgbot.WithDefaultHandler(b.handleUpdate),
	)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b.api = api
	b.client = api

	return b, nil
}

func newBot(
	client messenger,
	opts Options,
	settings settingsStore,
	r runner,
	log *slog.Logger,
) *Bot {
	defaultModel := opts.DefaultModel
	if !defaultModel.Valid() {
		defaultModel = domain.DefaultModel
	}

	return &Bot{
		client:        client,
		rateLimiter:   ratelimiter.New(),
		settings:      settings,
		runner:        r,
		credential:    strings.TrimSpace(opts.Credential),
		defaultModel:  defaultModel,
		allowedUsers:  opts.AllowedUsers,
		modelKeyboard: getModelKeyboard(),
		log:           log,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is starting")

	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return
		}

		userID := message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", message.Chat.ID,
				"username", message.From.Username,
				"chatType", message.Chat.Type)

			return
		}

		if err := b.handleMessage(updateCtx, message.Chat.ID, userID, message.Text); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", message.Chat.ID,
				"userID", userID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		chatID := callbackChatID(query)

		if !b.userAllowed(query.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", query.From.ID,
				"chatID", chatID,
				"username", query.From.Username,
				"data", query.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, query.ID, chatID, query.From.ID, query.Data); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", query.From.ID,
				"data", query.Data)
		}
	}
}

func callbackChatID(query *models.CallbackQuery) int64 {
	switch {
	case query.Message.Message != nil:
		return query.Message.Message.Chat.ID
	case query.Message.InaccessibleMessage != nil:
		return query.Message.InaccessibleMessage.Chat.ID
	default:
		return query.From.ID
	}
}

func getModelKeyboard() *models.InlineKeyboardMarkup {
	var keyboard [][]models.InlineKeyboardButton

	for _, model := range domain.Models() {
		keyboard = append(keyboard, []models.InlineKeyboardButton{
			{Text: model.String(), CallbackData: modelCallbackPrefix + model.String()},
		})
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
