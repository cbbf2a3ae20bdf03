package usecase

import "github.com/roman19921993/cybertechno25-bot/internal/domain"

// newLead is only called from the consent gate, so Consent is always true.
func newLead(s Session) domain.Lead {
	return domain.Lead{
		UserID:            s.UserID,
		Username:          s.Username,
		Name:              s.Fields[FieldName],
		Company:           s.Fields[FieldCompany],
		Role:              s.Fields[FieldRole],
		Email:             s.Fields[FieldEmail],
		CallDateTimeLocal: s.Fields[FieldCallTime],
		Consent:           true,
	}
}
