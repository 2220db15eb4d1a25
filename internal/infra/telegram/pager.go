package telegram

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v3"

	"staff_record_notifier/internal/app"
)

// TelebotPager raises run alarms to the administrator chat using the
// gopkg.in/telebot.v3 library. It satisfies app.Pager; when no bot token is
// configured, main wires no pager and alarms stay in the logs.
type TelebotPager struct {
	bot    *telebot.Bot
	chatID int64
}

func NewTelebotPager(b *telebot.Bot, chatID int64) *TelebotPager {
	return &TelebotPager{bot: b, chatID: chatID}
}

func (p *TelebotPager) Page(_ context.Context, level app.AlarmLevel, text string) error {
	recipient := &telebot.User{ID: p.chatID}
	_, err := p.bot.Send(recipient, fmt.Sprintf("[%s] %s", level, text), &telebot.SendOptions{})
	return err
}
