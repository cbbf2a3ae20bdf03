package usecase

import (
	"context"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

// LeadDelivery описывает внешний канал доставки лида (оператор в Telegram, вебхуки CRM и т.п.)
type LeadDelivery interface {
	SendLead(ctx context.Context, lead domain.Lead) error
}
