package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

// Outcome is what the transport needs after one event: what to say and where the user is now.
type Outcome struct {
	Reply Reply
	State State
	// Lead is set once a lead has been stored for this event.
	Lead *domain.Lead
}

type sessionSlot struct {
	mu sync.Mutex
	s  Session
	// refs считает обработчики, которые держат или ждут mu; защищено Intake.mu
	refs int
}

// Intake drives per-user sessions through the Dialog and performs its side effects.
type Intake struct {
	dialog     *Dialog
	leads      domain.LeadRepository
	deliveries []LeadDelivery
	funnel     *FunnelUsecase
	logger     *slog.Logger

	// sessions хранит только активные анкеты: слот в Idle без ожидающих удаляется
	mu       sync.Mutex
	sessions map[int64]*sessionSlot
}

func NewIntake(dialog *Dialog, leads domain.LeadRepository, logger *slog.Logger, deliveries ...LeadDelivery) *Intake {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Intake{
		dialog:     dialog,
		leads:      leads,
		deliveries: deliveries,
		logger:     logger,
		sessions:   make(map[int64]*sessionSlot),
	}
}

func (i *Intake) SetFunnel(f *FunnelUsecase) { i.funnel = f }

func (i *Intake) acquire(userID int64) *sessionSlot {
	i.mu.Lock()
	sl, ok := i.sessions[userID]
	if !ok {
		sl = &sessionSlot{s: NewSession(userID, "")}
		i.sessions[userID] = sl
	}
	sl.refs++
	i.mu.Unlock()

	sl.mu.Lock()
	return sl
}

// release must be called with sl.mu held.
func (i *Intake) release(userID int64, sl *sessionSlot) {
	i.mu.Lock()
	sl.refs--
	if sl.refs == 0 && sl.s.State == StateIdle {
		delete(i.sessions, userID)
	}
	i.mu.Unlock()
	sl.mu.Unlock()
}

// Session returns a snapshot of the user's session.
func (i *Intake) Session(userID int64) Session {
	i.mu.Lock()
	sl, ok := i.sessions[userID]
	i.mu.Unlock()
	if !ok {
		return NewSession(userID, "")
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	snap := sl.s
	if sl.s.Fields != nil {
		snap.Fields = make(map[Field]string, len(sl.s.Fields))
		for k, v := range sl.s.Fields {
			snap.Fields[k] = v
		}
	}
	return snap
}

// Handle processes one event under the user's lock. A non-nil error means the lead
// could not be stored; the session is then left in AwaitingConsent and the outcome
// carries the failure message for the user.
func (i *Intake) Handle(ctx context.Context, ev Event) (Outcome, error) {
	sl := i.acquire(ev.UserID)
	defer i.release(ev.UserID, sl)

	next, reply := i.dialog.Handle(sl.s, ev)
	lead, pending := reply.Lead()
	if !pending {
		if next.State != sl.s.State {
			i.trackFunnel(ev.UserID, next.State)
		}
		sl.s = next
		return Outcome{Reply: reply, State: next.State}, nil
	}

	stored, err := i.leads.Insert(ctx, lead)
	if err != nil {
		i.logger.Error("lead save failed", "user_id", ev.UserID, "error", err)
		return Outcome{Reply: Reply{Text: MsgSaveFailed}, State: sl.s.State}, err
	}
	sl.s = next
	i.logger.Info("lead saved", "user_id", ev.UserID, "lead_id", stored.ID)
	i.trackFunnel(ev.UserID, StageLeadSaved)

	for _, d := range i.deliveries {
		if err := d.SendLead(ctx, stored); err != nil {
			i.logger.Error("lead delivery failed", "user_id", ev.UserID, "lead_id", stored.ID, "error", err)
		}
	}
	return Outcome{Reply: reply, State: next.State, Lead: &stored}, nil
}

func (i *Intake) trackFunnel(userID int64, state State) {
	if i.funnel != nil && state != StateIdle {
		i.funnel.Reach(userID, state)
	}
}

// RecentSummary renders the last n stored leads for the operator.
func (i *Intake) RecentSummary(ctx context.Context, n int) string {
	leads, err := i.leads.ListRecent(ctx, n)
	if err != nil {
		i.logger.Error("list leads failed", "error", err)
		return "Список заявок недоступен"
	}
	if len(leads) == 0 {
		return "Заявок пока нет"
	}
	var b strings.Builder
	b.WriteString("Последние заявки:\n")
	for idx, l := range leads {
		fmt.Fprintf(&b, "%d) %s: %s, %s (%s), %s, звонок %s\n",
			idx+1, l.CreatedAt.Format("2006-01-02 15:04"), l.Name, l.Company, l.Role, l.Email, l.CallDateTimeLocal)
	}
	return b.String()
}
