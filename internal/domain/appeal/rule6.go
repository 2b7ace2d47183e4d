package appeal

import (
	"time"

	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// Rule6Status is the participation state of a registered third party.
type Rule6Status string

const (
	Rule6Active    Rule6Status = "active"
	Rule6Withdrawn Rule6Status = "withdrawn"
)

// Rule6Party is a registered third-party participant entitled to make
// statements and proofs of evidence. Parties are added any time before the
// relevant submission deadline and are never hard-deleted once they have
// submitted representations; withdrawal is a soft unlink.
type Rule6Party struct {
	ID               common.ID   `json:"id"`
	AppealID         common.ID   `json:"appeal_id"`
	OrganisationName string      `json:"organisation_name"`
	ContactEmail     string      `json:"contact_email"`
	Status           Rule6Status `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// NewRule6Party registers a third party on an appeal.
func NewRule6Party(appealID common.ID, organisation, email string, now time.Time) (*Rule6Party, error) {
	if organisation == "" {
		return nil, errors.InvalidParam("rule 6 organisation name must not be empty")
	}
	if email == "" {
		return nil, errors.InvalidParam("rule 6 contact email must not be empty")
	}
	return &Rule6Party{
		ID:               common.NewID(),
		AppealID:         appealID,
		OrganisationName: organisation,
		ContactEmail:     email,
		Status:           Rule6Active,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Withdraw soft-unlinks the party from future submission stages.
func (p *Rule6Party) Withdraw(now time.Time) error {
	if p.Status == Rule6Withdrawn {
		return errors.InvalidState("rule 6 party already withdrawn").
			WithDetail("party_id=" + string(p.ID))
	}
	p.Status = Rule6Withdrawn
	p.UpdatedAt = now
	return nil
}
