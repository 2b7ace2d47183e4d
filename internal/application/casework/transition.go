package casework

import (
	"context"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// Transition moves an appeal to the target status under its transition
// table. A version conflict on the conditional write is retried once against
// a fresh read before ConcurrentModification is surfaced.
func (s *Service) Transition(ctx context.Context, appealID common.ID, target appeal.Status, actor common.UserID) (*appeal.Appeal, error) {
	a, from, err := s.attemptTransition(ctx, appealID, target)
	if err != nil && errors.IsCode(err, errors.ErrCodeConcurrentModification) {
		s.metrics.TransitionConflicts.Inc()
		s.logger.Info("retrying transition after version conflict",
			logging.String("appeal_id", string(appealID)),
			logging.String("target", string(target)))
		a, from, err = s.attemptTransition(ctx, appealID, target)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.TransitionsTotal.WithLabelValues(string(target)).Inc()

	now := s.now()
	s.publishEvent(ctx, appeal.NewStatusChangedEvent(a, actor, from, target, now))
	s.recordAudit(ctx, a.ID, actor, audit.TemplateStatusChanged, string(from), string(target))
	return a, nil
}

// attemptTransition performs one read-mutate-conditional-write cycle.
func (s *Service) attemptTransition(ctx context.Context, appealID common.ID, target appeal.Status) (*appeal.Appeal, appeal.Status, error) {
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, "", err
	}
	from, err := a.CurrentStatus()
	if err != nil {
		return nil, "", err
	}
	version := a.Version
	if _, err := a.ApplyTransition(target, s.now()); err != nil {
		return nil, "", err
	}
	if err := s.repo.SetStatus(ctx, a, version); err != nil {
		return nil, "", err
	}
	return a, from, nil
}

// Reopen traverses the corrective re-opening edge out of a terminal status.
// The same single-retry policy as Transition applies.
func (s *Service) Reopen(ctx context.Context, appealID common.ID, actor common.UserID) (*appeal.Appeal, error) {
	a, to, err := s.attemptReopen(ctx, appealID)
	if err != nil && errors.IsCode(err, errors.ErrCodeConcurrentModification) {
		s.metrics.TransitionConflicts.Inc()
		a, to, err = s.attemptReopen(ctx, appealID)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.TransitionsTotal.WithLabelValues(string(to)).Inc()

	now := s.now()
	s.publishEvent(ctx, appeal.Event{
		Type:       appeal.EventReopened,
		AppealID:   a.ID,
		Reference:  a.Reference,
		ActorID:    actor,
		OccurredAt: now,
		Payload:    common.Metadata{"to": string(to)},
	})
	s.recordAudit(ctx, a.ID, actor, audit.TemplateAppealReopened, string(to))
	return a, nil
}

func (s *Service) attemptReopen(ctx context.Context, appealID common.ID) (*appeal.Appeal, appeal.Status, error) {
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, "", err
	}
	version := a.Version
	entry, err := a.ApplyReopen(s.now())
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.SetStatus(ctx, a, version); err != nil {
		return nil, "", err
	}
	return a, entry.Status, nil
}

// AllowedTransitions returns the statuses currently reachable for an appeal.
func (s *Service) AllowedTransitions(ctx context.Context, appealID common.ID) ([]appeal.Status, error) {
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, err
	}
	return a.AllowedTransitions()
}
