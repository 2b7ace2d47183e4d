package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

type postgresTimetableRepo struct {
	baseRepo
}

// NewPostgresTimetableRepo builds the timetable.Repository backed by
// PostgreSQL. The deadline map is stored as a single jsonb column; the
// record is always written whole.
func NewPostgresTimetableRepo(conn *postgres.Connection, log logging.Logger) timetable.Repository {
	return &postgresTimetableRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func (r *postgresTimetableRepo) GetTimetable(ctx context.Context, appealID common.ID) (*timetable.Timetable, error) {
	row := r.executor().QueryRowContext(ctx,
		`SELECT appeal_id, anchor_date, deadlines, computed_at
		   FROM timetables WHERE appeal_id = $1`, string(appealID))

	t := &timetable.Timetable{}
	var id string
	var deadlines []byte
	err := row.Scan(&id, &t.AnchorDate, &deadlines, &t.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("no timetable for this appeal").
			WithDetail("appeal_id=" + string(appealID))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading timetable")
	}
	t.AppealID = common.ID(id)
	if err := json.Unmarshal(deadlines, &t.Deadlines); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding deadlines")
	}
	return t, nil
}

func (r *postgresTimetableRepo) UpsertTimetable(ctx context.Context, t *timetable.Timetable) error {
	deadlines, err := json.Marshal(t.Deadlines)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding deadlines")
	}
	_, err = r.executor().ExecContext(ctx,
		`INSERT INTO timetables (appeal_id, anchor_date, deadlines, computed_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (appeal_id) DO UPDATE SET
			anchor_date = EXCLUDED.anchor_date,
			deadlines = EXCLUDED.deadlines,
			computed_at = EXCLUDED.computed_at`,
		string(t.AppealID), t.AnchorDate, deadlines, t.ComputedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "upserting timetable")
	}
	return nil
}
