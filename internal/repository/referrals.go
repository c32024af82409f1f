package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

const referralsTable = "referral_opportunities"

var referralColumns = []string{"id", "job_id", "connection_id", "created_at", "status", "note"}

// ReferralPatch lists the fields an update changes.
type ReferralPatch struct {
	Status *constants.ReferralStatus
	Note   utils.Patch[string]
}

type ReferralRepository interface {
	// Create fails with a not-found error, and writes nothing, when the job
	// or connection does not exist.
	Create(ctx context.Context, ref *entity.ReferralOpportunity) (*entity.ReferralDetail, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ReferralDetail, error)
	List(ctx context.Context) ([]*entity.ReferralDetail, error)
	Update(ctx context.Context, id uuid.UUID, patch ReferralPatch) (*entity.ReferralDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type referralRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewReferralRepository(db *DB, logger *slog.Logger) ReferralRepository {
	return &referralRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *referralRepository) Create(ctx context.Context, ref *entity.ReferralOpportunity) (*entity.ReferralDetail, error) {
	row := *ref
	row.ID = uuid.New()
	row.CreatedAt = r.now()
	if row.Status == "" {
		row.Status = constants.ReferralStatusNew
	}

	var out *entity.ReferralDetail
	err := r.db.inTx(ctx, func(tx *sql.Tx) error {
		job, err := getJob(ctx, r.db, tx, row.JobID)
		if err != nil {
			if common.IsNotFound(err) {
				return common.MissingReferenceError("Job not found")
			}
			return err
		}
		conn, err := getConnection(ctx, r.db, tx, row.ConnectionID)
		if err != nil {
			if common.IsNotFound(err) {
				return common.MissingReferenceError("Connection not found")
			}
			return err
		}

		query, args := r.db.builder().Insert(referralsTable).
			Columns(referralColumns...).
			Values(row.ID, row.JobID, row.ConnectionID, row.CreatedAt, string(row.Status), utils.NullableArg(row.Note)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.Error("failed to create referral", "job_id", row.JobID, "connection_id", row.ConnectionID, "error", err)
			return storageErr("create referral", err)
		}
		out = &entity.ReferralDetail{ReferralOpportunity: row, Job: *job, Connection: *conn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// detailSelector joins a referral with its job and connection. Column order
// matches scanReferralDetail. The referral table is returned so callers can
// qualify their own predicates.
func (r *referralRepository) detailSelector() (*entsql.Selector, *entsql.SelectTable) {
	b := r.db.builder()
	ro := b.Table(referralsTable).As("r")
	j := b.Table(jobsTable).As("j")
	c := b.Table(connectionsTable).As("c")

	cols := make([]string, 0, len(referralColumns)+len(jobColumns)+len(connectionColumns))
	for _, col := range referralColumns {
		cols = append(cols, ro.C(col))
	}
	for _, col := range jobColumns {
		cols = append(cols, j.C(col))
	}
	for _, col := range connectionColumns {
		cols = append(cols, c.C(col))
	}
	sel := b.Select(cols...).
		From(ro).
		Join(j).On(ro.C("job_id"), j.C("id")).
		Join(c).On(ro.C("connection_id"), c.C("id"))
	return sel, ro
}

func (r *referralRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReferralDetail, error) {
	sel, ro := r.detailSelector()
	query, args := sel.Where(entsql.EQ(ro.C("id"), id)).Query()
	d, err := scanReferralDetail(r.db.SQL().QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr(err, "get referral", "referral", id)
	}
	return d, nil
}

func (r *referralRepository) List(ctx context.Context) ([]*entity.ReferralDetail, error) {
	sel, ro := r.detailSelector()
	query, args := sel.OrderBy(entsql.Desc(ro.C("created_at"))).Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list referrals", "error", err)
		return nil, storageErr("list referrals", err)
	}
	defer rows.Close()

	var out []*entity.ReferralDetail
	for rows.Next() {
		d, err := scanReferralDetail(rows)
		if err != nil {
			return nil, storageErr("scan referral", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list referrals", err)
	}
	return out, nil
}

func (r *referralRepository) Update(ctx context.Context, id uuid.UUID, patch ReferralPatch) (*entity.ReferralDetail, error) {
	if patch.Status == nil && !patch.Note.Set {
		return r.GetByID(ctx, id)
	}
	upd := r.db.builder().Update(referralsTable)
	if patch.Status != nil {
		upd.Set("status", string(*patch.Status))
	}
	if patch.Note.Set {
		upd.Set("note", utils.NullableArg(patch.Note.Value))
	}
	query, args := upd.Where(entsql.EQ("id", id)).Query()
	res, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update referral", "referral_id", id, "error", err)
		return nil, storageErr("update referral", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, common.NotFoundErrorf("referral %s not found", id)
	}
	return r.GetByID(ctx, id)
}

func (r *referralRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.db.builder().Delete(referralsTable).Where(entsql.EQ("id", id)).Query()
	res, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to delete referral", "referral_id", id, "error", err)
		return storageErr("delete referral", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundErrorf("referral %s not found", id)
	}
	return nil
}

func scanReferralDetail(s rowScanner) (*entity.ReferralDetail, error) {
	var (
		d        entity.ReferralDetail
		refState string
		note     sql.NullString

		jobExtID    sql.NullString
		jobLink     sql.NullString
		jobDeadline sql.NullTime
		jobStatus   string

		connCompany   sql.NullString
		connMessageID sql.NullString
		connSubject   sql.NullString
		connSnippet   sql.NullString
		connStatus    string
	)
	err := s.Scan(
		&d.ID, &d.JobID, &d.ConnectionID, &d.CreatedAt, &refState, &note,
		&d.Job.ID, &d.Job.Company, &d.Job.Role, &jobExtID, &jobLink, &jobDeadline, &jobStatus, &d.Job.CreatedAt, &d.Job.UpdatedAt,
		&d.Connection.ID, &d.Connection.Name, &connCompany, &d.Connection.Source, &connMessageID,
		&connSubject, &connSnippet, &d.Connection.AcceptedAt, &connStatus,
	)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.Status = constants.ReferralStatus(refState)
	d.Note = utils.NullString(note)

	d.Job.ExternalID = utils.NullString(jobExtID)
	d.Job.Link = utils.NullString(jobLink)
	d.Job.Deadline = utils.NullTime(jobDeadline)
	d.Job.Status = constants.JobStatus(jobStatus)
	d.Job.CreatedAt = d.Job.CreatedAt.UTC()
	d.Job.UpdatedAt = d.Job.UpdatedAt.UTC()

	d.Connection.CompanyGuess = utils.NullString(connCompany)
	d.Connection.EmailMessageID = utils.NullString(connMessageID)
	d.Connection.RawSubject = utils.NullString(connSubject)
	d.Connection.RawSnippet = utils.NullString(connSnippet)
	d.Connection.AcceptedAt = d.Connection.AcceptedAt.UTC()
	d.Connection.Status = constants.ConnectionStatus(connStatus)
	return &d, nil
}
