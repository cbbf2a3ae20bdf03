package usecase

import (
	"regexp"
	"strings"
	"time"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

const (
	// Формат ввода: ДД.ММ.ГГ - ЧЧ.ММ, напр. 25.08.25 - 14.30
	callTimeInputLayout = "2.1.06 - 15.4"
	CallTimeLayout      = "2006-01-02 15:04"
)

func ValidateEmail(raw string) bool {
	return emailRe.MatchString(strings.TrimSpace(raw))
}

// ParseCallDateTime normalizes a "DD.MM.YY - HH.MM" call time to CallTimeLayout.
// The value is taken as already being in the configured local zone.
func ParseCallDateTime(raw string) (string, bool) {
	t, err := time.Parse(callTimeInputLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return t.Format(CallTimeLayout), true
}

func ValidateNonEmpty(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	return v, true
}
