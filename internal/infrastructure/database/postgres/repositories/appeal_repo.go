package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

type postgresAppealRepo struct {
	baseRepo
}

// NewPostgresAppealRepo builds the appeal.Repository backed by PostgreSQL.
func NewPostgresAppealRepo(conn *postgres.Connection, log logging.Logger) appeal.Repository {
	return &postgresAppealRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const appealColumns = `
	id, reference, case_type, procedure, started_at, planning_obligation,
	appellant, agent, lpa, lpa_code, document_folders, version, created_at, updated_at`

func (r *postgresAppealRepo) GetAppeal(ctx context.Context, id common.ID) (*appeal.Appeal, error) {
	row := r.executor().QueryRowContext(ctx,
		`SELECT`+appealColumns+` FROM appeals WHERE id = $1`, string(id))

	a, err := scanAppeal(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeAppealNotFound, "").
			WithDetail("appeal_id=" + string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading appeal")
	}

	rows, err := r.executor().QueryContext(ctx,
		`SELECT status, valid_from, valid
		   FROM appeal_status_history
		  WHERE appeal_id = $1
		  ORDER BY id`, string(id))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading status history")
	}
	defer rows.Close()

	for rows.Next() {
		var e appeal.StatusEntry
		var status string
		if err := rows.Scan(&status, &e.ValidFrom, &e.Valid); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning status history")
		}
		e.Status = appeal.Status(status)
		a.StatusHistory = append(a.StatusHistory, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating status history")
	}
	return a, nil
}

func (r *postgresAppealRepo) SaveAppeal(ctx context.Context, a *appeal.Appeal) error {
	appellant, agent, lpa, folders, err := marshalAppealJSON(a)
	if err != nil {
		return err
	}

	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO appeals (
			id, reference, case_type, procedure, started_at, planning_obligation,
			appellant, agent, lpa, lpa_code, document_folders, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		string(a.ID), a.Reference, string(a.CaseType), procedureArg(a.Procedure),
		a.StartedAt, a.PlanningObligation, appellant, agent, lpa, a.LPACode,
		folders, a.Version, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting appeal")
	}

	if err := replaceStatusHistory(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "committing appeal insert")
	}
	return nil
}

// SetStatus writes the mutated status history under the optimistic version
// check. The version bump and the history rewrite share one transaction so a
// losing writer leaves no partial state.
func (r *postgresAppealRepo) SetStatus(ctx context.Context, a *appeal.Appeal, expectedVersion int) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "beginning transaction")
	}
	defer tx.Rollback()

	if err := bumpVersion(ctx, tx, a.ID, expectedVersion, a.UpdatedAt); err != nil {
		return err
	}
	if err := replaceStatusHistory(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "committing status write")
	}
	a.Version = expectedVersion + 1
	return nil
}

func (r *postgresAppealRepo) UpdateCaseDetails(ctx context.Context, a *appeal.Appeal, expectedVersion int) error {
	res, err := r.executor().ExecContext(ctx,
		`UPDATE appeals
		    SET procedure = $1,
		        started_at = $2,
		        planning_obligation = $3,
		        version = version + 1,
		        updated_at = $4
		  WHERE id = $5 AND version = $6`,
		procedureArg(a.Procedure), a.StartedAt, a.PlanningObligation,
		time.Now().UTC(), string(a.ID), expectedVersion)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "updating case details")
	}
	if err := requireOneRow(res, a.ID); err != nil {
		return err
	}
	a.Version = expectedVersion + 1
	return nil
}

func (r *postgresAppealRepo) ListRepresentations(ctx context.Context, appealID common.ID, filter appeal.RepresentationFilter) ([]appeal.Representation, error) {
	query := `SELECT id, appeal_id, representation_type, status, represented_id, source, submitted_at, updated_at
	            FROM representations WHERE appeal_id = $1`
	args := []interface{}{string(appealID)}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		query += ` AND representation_type = $2`
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		if filter.Type != nil {
			query += ` AND status = $3`
		} else {
			query += ` AND status = $2`
		}
	}
	query += ` ORDER BY submitted_at`

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing representations")
	}
	defer rows.Close()

	var out []appeal.Representation
	for rows.Next() {
		var rep appeal.Representation
		var id, aid, repType, status string
		var represented sql.NullString
		var source sql.NullString
		if err := rows.Scan(&id, &aid, &repType, &status, &represented, &source,
			&rep.SubmittedAt, &rep.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning representation")
		}
		rep.ID = common.ID(id)
		rep.AppealID = common.ID(aid)
		rep.Type = appeal.RepresentationType(repType)
		rep.Status = appeal.RepresentationStatus(status)
		if represented.Valid {
			rid := common.ID(represented.String)
			rep.RepresentedID = &rid
		}
		if source.Valid {
			rep.Source = source.String
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating representations")
	}
	return out, nil
}

func (r *postgresAppealRepo) SaveRepresentation(ctx context.Context, rep *appeal.Representation) error {
	var represented interface{}
	if rep.RepresentedID != nil {
		represented = string(*rep.RepresentedID)
	}
	_, err := r.executor().ExecContext(ctx,
		`INSERT INTO representations (
			id, appeal_id, representation_type, status, represented_id, source, submitted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		string(rep.ID), string(rep.AppealID), string(rep.Type), string(rep.Status),
		represented, nullIfEmpty(rep.Source), rep.SubmittedAt, rep.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "saving representation")
	}
	return nil
}

func (r *postgresAppealRepo) ListRule6Parties(ctx context.Context, appealID common.ID) ([]appeal.Rule6Party, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT id, appeal_id, organisation_name, contact_email, status, created_at, updated_at
		   FROM rule6_parties WHERE appeal_id = $1 ORDER BY created_at`, string(appealID))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing rule 6 parties")
	}
	defer rows.Close()

	var out []appeal.Rule6Party
	for rows.Next() {
		var p appeal.Rule6Party
		var id, aid, status string
		if err := rows.Scan(&id, &aid, &p.OrganisationName, &p.ContactEmail, &status,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning rule 6 party")
		}
		p.ID = common.ID(id)
		p.AppealID = common.ID(aid)
		p.Status = appeal.Rule6Status(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating rule 6 parties")
	}
	return out, nil
}

func (r *postgresAppealRepo) SaveRule6Party(ctx context.Context, p *appeal.Rule6Party) error {
	_, err := r.executor().ExecContext(ctx,
		`INSERT INTO rule6_parties (
			id, appeal_id, organisation_name, contact_email, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			organisation_name = EXCLUDED.organisation_name,
			contact_email = EXCLUDED.contact_email,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		string(p.ID), string(p.AppealID), p.OrganisationName, p.ContactEmail,
		string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "saving rule 6 party")
	}
	return nil
}

func (r *postgresAppealRepo) DeleteRule6Party(ctx context.Context, partyID common.ID) error {
	res, err := r.executor().ExecContext(ctx,
		`DELETE FROM rule6_parties WHERE id = $1`, string(partyID))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "deleting rule 6 party")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "reading rows affected")
	}
	if n == 0 {
		return errors.NotFound("rule 6 party not found").
			WithDetail("party_id=" + string(partyID))
	}
	return nil
}

// bumpVersion performs the conditional version increment. Zero rows affected
// with an existing appeal means a concurrent writer won.
func bumpVersion(ctx context.Context, tx *sql.Tx, id common.ID, expectedVersion int, updatedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE appeals SET version = version + 1, updated_at = $1
		  WHERE id = $2 AND version = $3`,
		updatedAt, string(id), expectedVersion)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "bumping appeal version")
	}
	return requireOneRow(res, id)
}

func requireOneRow(res sql.Result, id common.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "reading rows affected")
	}
	if n == 0 {
		return errors.ConcurrentModification("").WithDetail("appeal_id=" + string(id))
	}
	return nil
}

func replaceStatusHistory(ctx context.Context, tx *sql.Tx, a *appeal.Appeal) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM appeal_status_history WHERE appeal_id = $1`, string(a.ID)); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "clearing status history")
	}
	for _, e := range a.StatusHistory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO appeal_status_history (appeal_id, status, valid_from, valid)
			 VALUES ($1, $2, $3, $4)`,
			string(a.ID), string(e.Status), e.ValidFrom, e.Valid); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "writing status history")
		}
	}
	return nil
}

func scanAppeal(row scanner) (*appeal.Appeal, error) {
	a := &appeal.Appeal{}
	var id, caseType string
	var procedure sql.NullString
	var startedAt sql.NullTime
	var appellant, lpa []byte
	var agent, folders []byte
	if err := row.Scan(&id, &a.Reference, &caseType, &procedure, &startedAt,
		&a.PlanningObligation, &appellant, &agent, &lpa, &a.LPACode, &folders,
		&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.ID = common.ID(id)
	a.CaseType = appeal.CaseType(caseType)
	if procedure.Valid {
		p := appeal.ProcedureType(procedure.String)
		a.Procedure = &p
	}
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if err := json.Unmarshal(appellant, &a.Appellant); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lpa, &a.LPA); err != nil {
		return nil, err
	}
	if len(agent) > 0 {
		a.Agent = &appeal.Party{}
		if err := json.Unmarshal(agent, a.Agent); err != nil {
			return nil, err
		}
	}
	if len(folders) > 0 {
		if err := json.Unmarshal(folders, &a.DocumentFolders); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func marshalAppealJSON(a *appeal.Appeal) (appellant, agent, lpa, folders []byte, err error) {
	if appellant, err = json.Marshal(a.Appellant); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshalling appellant")
	}
	if lpa, err = json.Marshal(a.LPA); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshalling lpa")
	}
	if a.Agent != nil {
		if agent, err = json.Marshal(a.Agent); err != nil {
			return nil, nil, nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshalling agent")
		}
	}
	if a.DocumentFolders != nil {
		if folders, err = json.Marshal(a.DocumentFolders); err != nil {
			return nil, nil, nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshalling document folders")
		}
	}
	return appellant, agent, lpa, folders, nil
}

func procedureArg(p *appeal.ProcedureType) interface{} {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
