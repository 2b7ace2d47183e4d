package casework

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/domain/exchange"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// maxConcurrentDispatch caps in-flight notification sends per publish.
const maxConcurrentDispatch = 8

// PublishResult summarizes one stage publication.
type PublishResult struct {
	Stage exchange.Stage `json:"stage"`

	// Sent counts notifications accepted by the client.
	Sent int `json:"sent"`

	// Warnings lists the recipients whose dispatch failed or was skipped, in
	// recipient order. A warning never rolls back the publish.
	Warnings []string `json:"warnings,omitempty"`
}

// stageStatus maps each publishable stage to the status the appeal must be
// in when it is published.
func stageStatus(stage exchange.Stage) (appeal.Status, error) {
	switch stage {
	case exchange.StageStatements:
		return appeal.StatusStatements, nil
	case exchange.StageProofsOfEvidence:
		return appeal.StatusEvidence, nil
	}
	return "", errors.InvalidParam("unknown publish stage " + string(stage))
}

// PublishStage shares a closed submission stage with every required party.
// Each recipient's template is resolved from the completeness of all
// parties; dispatches run concurrently and fail independently, so one bad
// address or one client rejection never blocks the other recipients.
func (s *Service) PublishStage(ctx context.Context, appealID common.ID, stage exchange.Stage, actor common.UserID) (*PublishResult, error) {
	required, err := stageStatus(stage)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if err := a.RequireStatus(required); err != nil {
		return nil, err
	}

	repType, err := stage.RepresentationType()
	if err != nil {
		return nil, err
	}
	valid := appeal.RepresentationValid
	reps, err := s.repo.ListRepresentations(ctx, appealID, appeal.RepresentationFilter{
		Type:   &repType,
		Status: &valid,
	})
	if err != nil {
		return nil, err
	}
	parties, err := s.repo.ListRule6Parties(ctx, appealID)
	if err != nil {
		return nil, err
	}

	roles := exchange.RequiredRoles(a, parties)
	intents, err := exchange.Resolve(roles, reps, stage)
	if err != nil {
		return nil, err
	}

	sent, warnings := s.dispatch(ctx, a, stage, intents)

	result := &PublishResult{Stage: stage, Sent: sent, Warnings: warnings}
	s.recordAudit(ctx, a.ID, actor, audit.TemplateStagePublished, string(stage), strconv.Itoa(sent))
	s.publishEvent(ctx, appeal.Event{
		Type:       appeal.EventStagePublished,
		AppealID:   a.ID,
		Reference:  a.Reference,
		ActorID:    actor,
		OccurredAt: s.now(),
		Payload: common.Metadata{
			"stage":    string(stage),
			"sent":     sent,
			"warnings": len(warnings),
		},
	})
	return result, nil
}

// dispatch sends one notification per intent. Results are collected per
// intent index so the warning order matches the recipient order regardless
// of goroutine scheduling.
func (s *Service) dispatch(ctx context.Context, a *appeal.Appeal, stage exchange.Stage, intents []exchange.Intent) (int, []string) {
	type outcome struct {
		sent    bool
		warning string
	}
	outcomes := make([]outcome, len(intents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDispatch)
	for i := range intents {
		i := i
		in := intents[i]
		g.Go(func() error {
			if in.Role.Email == "" {
				err := errors.IncompleteRecipientData("no email address for " + in.Role.DisplayName).
					WithDetail("appeal_id=" + string(a.ID))
				outcomes[i] = outcome{warning: err.Error()}
				s.metrics.NotificationsTotal.WithLabelValues(string(in.Template), "skipped").Inc()
				s.logger.Warn("recipient skipped",
					logging.String("appeal_id", string(a.ID)),
					logging.String("recipient", in.Role.DisplayName),
					logging.Err(err))
				return nil
			}

			n := Notification{
				Template:     string(in.Template),
				EmailAddress: in.Role.Email,
				Reference:    a.Reference,
				Personalisation: map[string]string{
					"appeal_reference": a.Reference,
					"stage":            string(stage),
					"recipient":        in.Role.DisplayName,
				},
			}
			if len(in.MissingParties) > 0 {
				n.Personalisation["missing_parties"] = strings.Join(in.MissingParties, ", ")
			}

			if err := s.notifier.Send(gctx, n); err != nil {
				wrapped := errors.Wrap(err, errors.ErrCodeNotifyDispatchFailed,
					"sending to "+in.Role.DisplayName)
				outcomes[i] = outcome{warning: wrapped.Error()}
				s.metrics.NotificationsTotal.WithLabelValues(string(in.Template), "failed").Inc()
				s.logger.Warn("notification dispatch failed",
					logging.String("appeal_id", string(a.ID)),
					logging.String("recipient", in.Role.DisplayName),
					logging.Err(err))
				return nil
			}
			outcomes[i] = outcome{sent: true}
			s.metrics.NotificationsTotal.WithLabelValues(string(in.Template), "sent").Inc()
			return nil
		})
	}
	_ = g.Wait()

	sent := 0
	var warnings []string
	for _, o := range outcomes {
		if o.sent {
			sent++
		}
		if o.warning != "" {
			warnings = append(warnings, o.warning)
		}
	}
	return sent, warnings
}
