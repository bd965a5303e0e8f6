package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Chqrety/reservation/internal/config"
	"github.com/Chqrety/reservation/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts reservation notices to a fixed set of chats.
type Telegram struct {
	bot   Sender
	chats []int64
}

// NewTelegram connects to the bot API with the configured token.
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return NewTelegramWithSender(bot, cfg.NotifyChat), nil
}

func NewTelegramWithSender(bot Sender, chats []int64) *Telegram {
	return &Telegram{bot: bot, chats: append([]int64(nil), chats...)}
}

// Recipients returns the configured chat ids.
func (t *Telegram) Recipients() []int64 {
	return append([]int64(nil), t.chats...)
}

// NotifyChat sends the reservation notice to one chat.
func (t *Telegram) NotifyChat(ctx context.Context, chatID int64, p events.ReservationPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, FormatReservation(p))
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// FormatReservation renders the plain-text notice of a new reservation.
func FormatReservation(p events.ReservationPayload) string {
	var sb strings.Builder
	sb.WriteString("Reservasi baru\n")
	fmt.Fprintf(&sb, "Order: %s\n", p.OrderNumber)
	fmt.Fprintf(&sb, "Nama: %s\n", p.CustomerName)
	fmt.Fprintf(&sb, "HP: %s\n", p.PhoneNumber)
	location := p.LocationName
	if location == "" {
		location = fmt.Sprintf("#%d", p.LocationID)
	}
	fmt.Fprintf(&sb, "Gedung: %s\n", location)
	fmt.Fprintf(&sb, "Tanggal: %s", p.Date)
	if p.Note != "" {
		fmt.Fprintf(&sb, "\nCatatan: %s", p.Note)
	}
	return sb.String()
}
