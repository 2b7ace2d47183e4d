package repositories

import (
	"context"

	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

type postgresAuditRepo struct {
	baseRepo
}

// NewPostgresAuditRepo builds the audit.Sink backed by PostgreSQL. The table
// is insert-only; no update or delete statements exist here.
func NewPostgresAuditRepo(conn *postgres.Connection, log logging.Logger) audit.Sink {
	return &postgresAuditRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func (r *postgresAuditRepo) Append(ctx context.Context, e *audit.Entry) error {
	_, err := r.executor().ExecContext(ctx,
		`INSERT INTO audit_entries (id, appeal_id, actor_id, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(e.ID), string(e.AppealID), string(e.ActorID), e.Message, e.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting audit entry")
	}
	return nil
}

func (r *postgresAuditRepo) List(ctx context.Context, appealID common.ID, p common.Pagination) ([]audit.Entry, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = 50
	}

	rows, err := r.executor().QueryContext(ctx,
		`SELECT id, appeal_id, actor_id, message, created_at
		   FROM audit_entries
		  WHERE appeal_id = $1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		string(appealID), size, (page-1)*size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing audit entries")
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var id, aid, actor string
		if err := rows.Scan(&id, &aid, &actor, &e.Message, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning audit entry")
		}
		e.ID = common.ID(id)
		e.AppealID = common.ID(aid)
		e.ActorID = common.UserID(actor)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating audit entries")
	}
	return out, nil
}
