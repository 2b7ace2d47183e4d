package casework

import (
	"context"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// RegisterRule6Party adds a third-party participant to a live appeal.
func (s *Service) RegisterRule6Party(ctx context.Context, appealID common.ID, organisation, email string, actor common.UserID) (*appeal.Rule6Party, error) {
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, err
	}
	current, err := a.CurrentStatus()
	if err != nil {
		return nil, err
	}
	if current.IsTerminal() {
		return nil, errors.InvalidAppealState("cannot register a party on a " + string(current) + " appeal").
			WithDetail("appeal_id=" + string(appealID))
	}

	p, err := appeal.NewRule6Party(appealID, organisation, email, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRule6Party(ctx, p); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, appealID, actor, audit.TemplateRule6Added, organisation)
	return p, nil
}

// WithdrawRule6Party soft-unlinks a party from future submission stages. A
// party that has already lodged valid representations is never hard-deleted;
// its submissions remain on the record and withdrawal only removes it from
// the required-submitter set of later stages.
func (s *Service) WithdrawRule6Party(ctx context.Context, appealID, partyID common.ID, actor common.UserID) error {
	parties, err := s.repo.ListRule6Parties(ctx, appealID)
	if err != nil {
		return err
	}
	var party *appeal.Rule6Party
	for i := range parties {
		if parties[i].ID == partyID {
			party = &parties[i]
			break
		}
	}
	if party == nil {
		return errors.NotFound("rule 6 party not registered on this appeal").
			WithDetail("party_id=" + string(partyID))
	}

	if err := party.Withdraw(s.now()); err != nil {
		return err
	}
	if err := s.repo.SaveRule6Party(ctx, party); err != nil {
		return err
	}
	s.recordAudit(ctx, appealID, actor, audit.TemplateRule6Withdrawn, party.OrganisationName)
	return nil
}

// RemoveRule6Party deletes a registration outright. Removal is only
// permitted while the party has no valid representations on record; after
// that point the correct operation is withdrawal, which keeps the party and
// its submissions on the record.
func (s *Service) RemoveRule6Party(ctx context.Context, appealID, partyID common.ID, actor common.UserID) error {
	reps, err := s.repo.ListRepresentations(ctx, appealID, appeal.RepresentationFilter{})
	if err != nil {
		return err
	}
	for i := range reps {
		r := reps[i]
		if r.RepresentedID != nil && *r.RepresentedID == partyID && r.Status == appeal.RepresentationValid {
			return errors.New(errors.ErrCodeRule6HasRepresentations, "").
				WithDetail("party_id=" + string(partyID))
		}
	}

	parties, err := s.repo.ListRule6Parties(ctx, appealID)
	if err != nil {
		return err
	}
	var party *appeal.Rule6Party
	for i := range parties {
		if parties[i].ID == partyID {
			party = &parties[i]
			break
		}
	}
	if party == nil {
		return errors.NotFound("rule 6 party not registered on this appeal").
			WithDetail("party_id=" + string(partyID))
	}

	if err := s.repo.DeleteRule6Party(ctx, partyID); err != nil {
		return err
	}
	s.recordAudit(ctx, appealID, actor, audit.TemplateRule6Removed, party.OrganisationName)
	return nil
}

// ListRule6Parties returns the appeal's registered third parties.
func (s *Service) ListRule6Parties(ctx context.Context, appealID common.ID) ([]appeal.Rule6Party, error) {
	return s.repo.ListRule6Parties(ctx, appealID)
}

// SubmitRepresentation records a new submission in the awaiting-review state.
func (s *Service) SubmitRepresentation(ctx context.Context, r *appeal.Representation) error {
	if r.AppealID == "" {
		return errors.InvalidParam("representation requires an appeal id")
	}
	if r.ID == "" {
		r.ID = common.NewID()
	}
	if r.Status == "" {
		r.Status = appeal.RepresentationAwaitingReview
	}
	now := s.now()
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = now
	}
	r.UpdatedAt = now
	return s.repo.SaveRepresentation(ctx, r)
}

// ReviewRepresentation moves a submission to its reviewed status.
func (s *Service) ReviewRepresentation(ctx context.Context, appealID, repID common.ID, status appeal.RepresentationStatus) error {
	reps, err := s.repo.ListRepresentations(ctx, appealID, appeal.RepresentationFilter{})
	if err != nil {
		return err
	}
	for i := range reps {
		if reps[i].ID != repID {
			continue
		}
		reps[i].Status = status
		reps[i].UpdatedAt = s.now()
		return s.repo.SaveRepresentation(ctx, &reps[i])
	}
	return errors.NotFound("representation not found on this appeal").
		WithDetail("representation_id=" + string(repID))
}
