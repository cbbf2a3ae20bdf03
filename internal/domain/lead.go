package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPersistence оборачивает любые сбои записи лида в хранилище.
	ErrPersistence = errors.New("lead persistence failed")
	// ErrDelivery оборачивает сбои доставки лида оператору или во внешние системы.
	ErrDelivery = errors.New("lead delivery failed")
)

// Lead is a completed intake form. ID and CreatedAt are set by the store.
type Lead struct {
	ID                int64
	UserID            int64
	Username          string
	Name              string
	Company           string
	Role              string
	Email             string
	CallDateTimeLocal string
	Consent           bool
	CreatedAt         time.Time
}

// LeadRepository is an append-only lead store.
type LeadRepository interface {
	InitSchema(ctx context.Context) error
	// Insert returns the stored copy with ID and CreatedAt filled in.
	Insert(ctx context.Context, lead Lead) (Lead, error)
	ListRecent(ctx context.Context, n int) ([]Lead, error)
}
