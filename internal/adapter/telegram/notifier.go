package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

// OperatorNotifier sends a summary of every stored lead to the operator chat.
type OperatorNotifier struct {
	client Client
	chatID int64
	tz     string
}

// NewOperatorNotifier returns a notifier; chatID 0 turns SendLead into a no-op.
func NewOperatorNotifier(client Client, chatID int64, tz string) *OperatorNotifier {
	return &OperatorNotifier{client: client, chatID: chatID, tz: tz}
}

func (n *OperatorNotifier) SendLead(_ context.Context, lead domain.Lead) error {
	if n == nil || n.chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatLead(lead, n.tz))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.client.Send(msg); err != nil {
		return fmt.Errorf("%w: notify operator: %w", domain.ErrDelivery, err)
	}
	return nil
}

// FormatLead renders the operator summary in Telegram HTML.
func FormatLead(lead domain.Lead, tz string) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }
	consent := "Нет"
	if lead.Consent {
		consent = "Да"
	}
	var b strings.Builder
	b.WriteString("<b>Новая заявка</b>\n")
	fmt.Fprintf(&b, "Имя: <b>%s</b>\n", esc(lead.Name))
	fmt.Fprintf(&b, "Компания: <b>%s</b>\n", esc(lead.Company))
	fmt.Fprintf(&b, "Роль: <b>%s</b>\n", esc(lead.Role))
	fmt.Fprintf(&b, "Email: <b>%s</b>\n", esc(lead.Email))
	fmt.Fprintf(&b, "Дата/время звонка: <b>%s</b>\n", esc(lead.CallDateTimeLocal))
	fmt.Fprintf(&b, "Согласие с ПДн: <b>%s</b>\n\n", consent)
	fmt.Fprintf(&b, "TG user: <code>%d</code>", lead.UserID)
	if lead.Username != "" {
		fmt.Fprintf(&b, " (@%s)", esc(lead.Username))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Создано: %s (%s)", lead.CreatedAt.Format("2006-01-02 15:04:05"), esc(tz))
	return b.String()
}
