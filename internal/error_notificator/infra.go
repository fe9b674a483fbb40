package error_notificator

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramInfra posts alerts to a single operator chat.
type TelegramInfra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramInfra(token string, chatID int64) (*TelegramInfra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram alert bot: %w", err)
	}
	return &TelegramInfra{bot: bot, chatID: chatID}, nil
}

// NewTelegramInfraWithClient points the bot at a custom endpoint, e.g. a local Bot API server.
func NewTelegramInfraWithClient(token, endpoint string, chatID int64, client *http.Client) (*TelegramInfra, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram alert bot: %w", err)
	}
	return &TelegramInfra{bot: bot, chatID: chatID}, nil
}

func (i *TelegramInfra) Notify(ctx context.Context, source string, err error, details string) error {
	text := fmt.Sprintf(
		"❗ speechflow: %s\n\nError: %v\n\nDetails: %s",
		source,
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, text)); sendErr != nil {
		return fmt.Errorf("telegram send: %w", sendErr)
	}
	return nil
}

// LogInfra is used when no alert chat is configured.
type LogInfra struct {
	log *zap.Logger
}

func NewLogInfra(log *zap.Logger) *LogInfra {
	return &LogInfra{log: log}
}

func (i *LogInfra) Notify(_ context.Context, source string, err error, details string) error {
	i.log.Error("operator alert",
		zap.String("source", source),
		zap.Error(err),
		zap.String("details", details),
	)
	return nil
}
