package usecase

import (
	"fmt"
	"strings"

	"github.com/roman19921993/cybertechno25-bot/internal/domain"
)

// Логические состояния и ответы, независимые от Telegram

type State string

const (
	StateIdle             State = "idle"
	StateAwaitingName     State = "awaiting_name"
	StateAwaitingCompany  State = "awaiting_company"
	StateAwaitingRole     State = "awaiting_role"
	StateAwaitingEmail    State = "awaiting_email"
	StateAwaitingCallTime State = "awaiting_call_time"
	StateAwaitingConsent  State = "awaiting_consent"
)

type Field string

const (
	FieldName     Field = "name"
	FieldCompany  Field = "company"
	FieldRole     Field = "role"
	FieldEmail    Field = "email"
	FieldCallTime Field = "call_dt_local"
)

const (
	RestartCommand = "/start"
	ActionConsent  = "consent_next"

	PolicyBtn  = "Открыть политику"
	ConsentBtn = "Далее"
)

const (
	msgGreeting      = "Добро пожаловать в Технологии Киберугроз! Как Вас зовут?"
	msgAskCompany    = "Здравствуйте, %s! Какую компанию Вы представляете?"
	msgAskRole       = "Спасибо, какова ваша роль в компании?"
	msgAskEmail      = "На какой мейл выслать Вам приглашение на звонок?"
	msgAskCallTime   = "Введите дату и время звонка в формате ДД.ММ.ГГ - ЧЧ.ММ (например: 25.08.25 - 14.30)."
	msgAskConsent    = "Прочтите политику сбора ПДн (ссылка выше) и согласитесь с ней нажатием «Далее»."
	msgRetryName     = "Пожалуйста, укажите имя текстом."
	msgRetryCompany  = "Пожалуйста, укажите компанию текстом."
	msgRetryRole     = "Пожалуйста, укажите вашу роль текстом."
	msgRetryEmail    = "Похоже, в email есть ошибка. Пример: name@example.com\nПопробуйте снова."
	msgRetryCallTime = "Не удалось распознать дату. Формат: ДД.ММ.ГГ - ЧЧ.ММ (например: 25.08.25 - 14.30)."
	MsgCompleted     = "Спасибо, мы вышлем вам приглашение на звонок."
	MsgSaveFailed    = "Не удалось сохранить заявку. Пожалуйста, нажмите «Далее» ещё раз чуть позже."
)

type EventKind int

const (
	EventText EventKind = iota
	EventAction
)

// Event is a transport-neutral inbound message: typed text or a pressed button.
type Event struct {
	UserID   int64
	Username string
	Kind     EventKind
	Text     string
}

func TextEvent(userID int64, username, text string) Event {
	return Event{UserID: userID, Username: username, Kind: EventText, Text: text}
}

func ActionEvent(userID int64, username, action string) Event {
	return Event{UserID: userID, Username: username, Kind: EventAction, Text: action}
}

type Session struct {
	UserID   int64
	Username string
	State    State
	Fields   map[Field]string
}

func NewSession(userID int64, username string) Session {
	return Session{UserID: userID, Username: username, State: StateIdle}
}

// with returns a copy of s with one more validated field; s itself is left untouched.
func (s Session) with(f Field, v string, next State) Session {
	fields := make(map[Field]string, len(s.Fields)+1)
	for k, val := range s.Fields {
		fields[k] = val
	}
	fields[f] = v
	s.Fields = fields
	s.State = next
	return s
}

func (s Session) reset(next State) Session {
	s.Fields = nil
	s.State = next
	return s
}

// Affordance is a button attached to a reply: either a link or an action.
type Affordance struct {
	Label  string
	URL    string
	Action string
}

type Reply struct {
	Text        string
	Affordances []Affordance
	// OutOfFlow marks input that the intake flow does not handle (e.g. chatter in idle).
	OutOfFlow bool

	lead *domain.Lead
}

// Lead returns the lead that has to be persisted before the reply's session is committed.
func (r Reply) Lead() (domain.Lead, bool) {
	if r.lead == nil {
		return domain.Lead{}, false
	}
	return *r.lead, true
}

type Dialog struct {
	policyURL string
}

func NewDialog(policyURL string) *Dialog { return &Dialog{policyURL: policyURL} }

// Handle is the transition function. It never mutates s; the returned session is the
// state to commit once the reply's side effects (if any) have succeeded.
func (d *Dialog) Handle(s Session, ev Event) (Session, Reply) {
	if ev.Username != "" {
		s.Username = ev.Username
	}
	if ev.Kind == EventText && strings.TrimSpace(ev.Text) == RestartCommand {
		return s.reset(StateAwaitingName), Reply{Text: msgGreeting}
	}

	switch s.State {
	case StateAwaitingName:
		if ev.Kind != EventText {
			return s, Reply{}
		}
		name, ok := ValidateNonEmpty(ev.Text)
		if !ok {
			return s, Reply{Text: msgRetryName}
		}
		return s.with(FieldName, name, StateAwaitingCompany), Reply{Text: fmt.Sprintf(msgAskCompany, name)}

	case StateAwaitingCompany:
		if ev.Kind != EventText {
			return s, Reply{}
		}
		company, ok := ValidateNonEmpty(ev.Text)
		if !ok {
			return s, Reply{Text: msgRetryCompany}
		}
		return s.with(FieldCompany, company, StateAwaitingRole), Reply{Text: msgAskRole}

	case StateAwaitingRole:
		if ev.Kind != EventText {
			return s, Reply{}
		}
		role, ok := ValidateNonEmpty(ev.Text)
		if !ok {
			return s, Reply{Text: msgRetryRole}
		}
		return s.with(FieldRole, role, StateAwaitingEmail), Reply{Text: msgAskEmail}

	case StateAwaitingEmail:
		if ev.Kind != EventText {
			return s, Reply{}
		}
		if !ValidateEmail(ev.Text) {
			return s, Reply{Text: msgRetryEmail}
		}
		return s.with(FieldEmail, strings.TrimSpace(ev.Text), StateAwaitingCallTime), Reply{Text: msgAskCallTime}

	case StateAwaitingCallTime:
		if ev.Kind != EventText {
			return s, Reply{}
		}
		callAt, ok := ParseCallDateTime(ev.Text)
		if !ok {
			return s, Reply{Text: msgRetryCallTime}
		}
		return s.with(FieldCallTime, callAt, StateAwaitingConsent), d.consentReply()

	case StateAwaitingConsent:
		if ev.Kind == EventText {
			// Свободный текст не двигает воронку, просто напоминаем про согласие
			return s, d.consentReply()
		}
		if ev.Text != ActionConsent {
			return s, Reply{}
		}
		lead := newLead(s)
		return s.reset(StateIdle), Reply{Text: MsgCompleted, lead: &lead}
	}

	// StateIdle и всё неизвестное
	return s, Reply{OutOfFlow: true}
}

func (d *Dialog) consentReply() Reply {
	return Reply{
		Text: msgAskConsent,
		Affordances: []Affordance{
			{Label: PolicyBtn, URL: d.policyURL},
			{Label: ConsentBtn, Action: ActionConsent},
		},
	}
}
