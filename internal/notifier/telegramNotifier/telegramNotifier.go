package telegramNotifier

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/stockpicking_tracker/config"
	"github.com/KotFed0t/stockpicking_tracker/utils"
	tele "gopkg.in/telebot.v4"
)

// TelegramNotifier posts messages to a single chat. It never polls for updates.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatID tele.ChatID
}

func New(cfg *config.Config) *TelegramNotifier {
	n, err := NewWithSettings(cfg, tele.Settings{Token: cfg.Telegram.Token})
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}
	return n
}

func NewWithSettings(cfg *config.Config, settings tele.Settings) (*TelegramNotifier, error) {
	settings.Offline = true

	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}

	return &TelegramNotifier{bot: b, chatID: tele.ChatID(cfg.Telegram.ChatID)}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, text string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TelegramNotifier.Send"

	slog.Debug("Send start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("Send failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Send completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = n.bot.Send(n.chatID, text)
	return err
}
