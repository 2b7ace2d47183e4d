package casework

import (
	"context"
	"time"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/prometheus"
	"github.com/openappeals/casework/pkg/types/common"
)

// Service orchestrates every appeal mutation. It owns no business rules of
// its own: status policy lives in the appeal package, deadline policy in the
// timetable package, notification policy in the exchange package.
type Service struct {
	repo      appeal.Repository
	timetable timetable.Repository
	calc      *timetable.Calculator
	recorder  *audit.Recorder
	notifier  Notifier
	publisher EventPublisher
	metrics   *prometheus.Metrics
	logger    logging.Logger
	now       func() time.Time
}

// NewService wires the application service. A nil clock uses UTC wall time;
// nil metrics get a private registry so callers without a scrape endpoint
// need not care.
func NewService(
	repo appeal.Repository,
	ttRepo timetable.Repository,
	calc *timetable.Calculator,
	recorder *audit.Recorder,
	notifier Notifier,
	publisher EventPublisher,
	metrics *prometheus.Metrics,
	logger logging.Logger,
	now func() time.Time,
) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if metrics == nil {
		metrics = prometheus.New("casework")
	}
	return &Service{
		repo:      repo,
		timetable: ttRepo,
		calc:      calc,
		recorder:  recorder,
		notifier:  notifier,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("casework"),
		now:       now,
	}
}

// GetAppeal loads an appeal aggregate.
func (s *Service) GetAppeal(ctx context.Context, id common.ID) (*appeal.Appeal, error) {
	return s.repo.GetAppeal(ctx, id)
}

// CreateAppeal registers a new appeal in the ready-to-start state.
func (s *Service) CreateAppeal(ctx context.Context, reference string, caseType appeal.CaseType, appellant, lpa appeal.Party, actor common.UserID) (*appeal.Appeal, error) {
	a, err := appeal.NewAppeal(reference, caseType, appellant, lpa, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveAppeal(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("appeal created",
		logging.String("appeal_id", string(a.ID)),
		logging.String("reference", a.Reference),
		logging.String("case_type", string(a.CaseType)))
	return a, nil
}

// GetTimetable loads the appeal's current deadline record.
func (s *Service) GetTimetable(ctx context.Context, appealID common.ID) (*timetable.Timetable, error) {
	return s.timetable.GetTimetable(ctx, appealID)
}

// ListAudit returns the appeal's audit trail, newest first.
func (s *Service) ListAudit(ctx context.Context, appealID common.ID, p common.Pagination) ([]audit.Entry, error) {
	return s.recorder.List(ctx, appealID, p)
}

// publishEvent emits e on the messaging backbone. Failures are logged and
// swallowed: the mutation has already committed.
func (s *Service) publishEvent(ctx context.Context, e appeal.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed",
			logging.String("event_type", string(e.Type)),
			logging.String("appeal_id", string(e.AppealID)),
			logging.Err(err))
	}
}

// recordAudit appends an audit entry. Failures are logged and swallowed for
// the same reason as publishEvent.
func (s *Service) recordAudit(ctx context.Context, appealID common.ID, actor common.UserID, template string, details ...string) {
	if err := s.recorder.Record(ctx, appealID, actor, template, details...); err != nil {
		s.logger.Warn("audit append failed",
			logging.String("appeal_id", string(appealID)),
			logging.Err(err))
	}
}
