package telegram

import (
	"context"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/roman19921993/cybertechno25-bot/internal/usecase"
)

const (
	msgIdleHint     = "Чтобы оставить заявку на звонок, отправьте /start."
	recentLeadsSize = 5
	queueSize       = 16
)

// Client is the subset of *tgbotapi.BotAPI used to talk back to Telegram.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	bot        *tgbotapi.BotAPI
	client     Client
	intake     *usecase.Intake
	funnel     *usecase.FunnelUsecase
	operatorID int64
	workers    int
	logger     *slog.Logger
}

func NewHandler(bot *tgbotapi.BotAPI, intake *usecase.Intake, funnel *usecase.FunnelUsecase, operatorID int64, workers int, logger *slog.Logger) *Handler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		bot:        bot,
		client:     bot,
		intake:     intake,
		funnel:     funnel,
		operatorID: operatorID,
		workers:    workers,
		logger:     logger,
	}
}

// Run polls updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	return h.dispatch(ctx, updates, h.bot.StopReceivingUpdates)
}

// dispatch shards updates by sender so that one user's messages are handled in order,
// while different users are handled in parallel.
func (h *Handler) dispatch(ctx context.Context, updates tgbotapi.UpdatesChannel, stop func()) error {
	g, gctx := errgroup.WithContext(ctx)
	// начатую обработку доводим до конца даже при остановке
	workCtx := context.WithoutCancel(gctx)

	queues := make([]chan tgbotapi.Update, h.workers)
	for i := range queues {
		q := make(chan tgbotapi.Update, queueSize)
		queues[i] = q
		g.Go(func() error {
			for upd := range q {
				h.handleUpdate(workCtx, upd)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		for {
			select {
			case <-gctx.Done():
				if stop != nil {
					stop()
				}
				return nil
			case upd, ok := <-updates:
				if !ok {
					return nil
				}
				queues[shard(senderID(upd), len(queues))] <- upd
			}
		}
	})
	return g.Wait()
}

func shard(id int64, n int) int {
	return int(uint64(id) % uint64(n))
}

func senderID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

// toEvent maps an update to the reply chat and an intake event.
func toEvent(update tgbotapi.Update) (int64, usecase.Event, bool) {
	switch {
	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.Chat == nil {
			return 0, usecase.Event{}, false
		}
		text := m.Text
		if m.IsCommand() && m.Command() == "start" {
			text = usecase.RestartCommand
		}
		return m.Chat.ID, usecase.TextEvent(m.From.ID, m.From.UserName, text), true
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return 0, usecase.Event{}, false
		}
		return cb.Message.Chat.ID, usecase.ActionEvent(cb.From.ID, cb.From.UserName, cb.Data), true
	}
	return 0, usecase.Event{}, false
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if _, err := h.client.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			h.logger.Warn("answer callback failed", "error", err)
		}
	}
	chatID, ev, ok := toEvent(update)
	if !ok {
		return
	}
	if ev.Kind == usecase.EventText && h.isOperator(chatID) && h.handleOperatorCommand(ctx, chatID, ev.Text) {
		return
	}

	// ошибку сохранения Intake уже залогировал, пользователю уйдет текст из ответа
	out, _ := h.intake.Handle(ctx, ev)
	if out.Reply.OutOfFlow {
		if ev.Kind == usecase.EventText {
			h.sendText(chatID, msgIdleHint)
		}
		return
	}
	if out.Reply.Text == "" {
		return
	}
	h.sendReply(chatID, out.Reply)
}

func (h *Handler) isOperator(chatID int64) bool {
	return h.operatorID != 0 && chatID == h.operatorID
}

// handleOperatorCommand returns false when text is not an operator command.
func (h *Handler) handleOperatorCommand(ctx context.Context, chatID int64, text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/funnel":
		if h.funnel == nil {
			h.sendText(chatID, "Воронка недоступна")
			return true
		}
		labels, values, err := h.funnel.GraphData()
		if err == nil {
			err = h.sendFunnelChart(chatID, labels, values)
		}
		if err != nil {
			h.logger.Error("funnel chart failed", "error", err)
			h.sendText(chatID, h.funnel.Chart())
		}
		return true
	case "/leads":
		h.sendText(chatID, h.intake.RecentSummary(ctx, recentLeadsSize))
		return true
	}
	return false
}

func (h *Handler) sendReply(chatID int64, r usecase.Reply) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if kb, ok := inlineKeyboard(r.Affordances); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := h.client.Send(msg); err != nil {
		h.logger.Error("send reply failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendText(chatID int64, text string) {
	if _, err := h.client.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error("send text failed", "chat_id", chatID, "error", err)
	}
}

// inlineKeyboard puts every affordance on its own row; links become URL buttons.
func inlineKeyboard(affs []usecase.Affordance) (tgbotapi.InlineKeyboardMarkup, bool) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(affs))
	for _, a := range affs {
		switch {
		case a.URL != "":
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(a.Label, a.URL)))
		case a.Action != "":
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Action)))
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}, true
}
