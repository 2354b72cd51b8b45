package notify

import (
	"encoding/json"
	"fmt"

	"voyago/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the slice of the bot API the notifier needs;
// satisfied by *tgbotapi.BotAPI and by test doubles.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier pushes booking lifecycle events into the operations chat.
// Delivery is best effort: a Telegram outage is logged, never surfaced
// to the customer flow.
type Notifier struct {
	bot       TelegramSender
	opsChatID int64
	logger    *zerolog.Logger
}

func NewNotifier(bot TelegramSender, opsChatID int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, opsChatID: opsChatID, logger: logger}
}

func NewBot(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// Subscribe registers the notifier on the event bus.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, n.handle("New booking"))
	bus.Subscribe(events.EventBookingConfirmed, n.handle("Booking confirmed"))
	bus.Subscribe(events.EventBookingCancelled, n.handle("Booking cancelled"))
	bus.Subscribe(events.EventPaymentFailed, n.handle("Payment failed"))
}

func (n *Notifier) handle(title string) events.EventHandler {
	return func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			n.logger.Warn().Err(err).Str("event", event.Type).Msg("failed to decode event payload")
			return nil
		}
		n.send(formatBookingMessage(title, &payload))
		return nil
	}
}

func formatBookingMessage(title string, p *events.BookingEventPayload) string {
	return fmt.Sprintf("%s\n%s - %s (%s)\n%s to %s, %.2f\nstatus: %s",
		title,
		p.Reference, p.ItemName, p.BookingType,
		p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"),
		p.TotalPrice, p.Status,
	)
}

func (n *Notifier) send(text string) {
	if n.bot == nil || n.opsChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(n.opsChatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn().Err(err).Msg("failed to send telegram notification")
	}
}
