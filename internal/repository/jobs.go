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

const jobsTable = "jobs"

var jobColumns = []string{"id", "company", "role", "job_id", "link", "deadline", "status", "created_at", "updated_at"}

// JobPatch lists the fields an update changes. Nil pointers and unset
// Patches leave the column as it is.
type JobPatch struct {
	Company    *string
	Role       *string
	ExternalID utils.Patch[string]
	Link       utils.Patch[string]
	Deadline   utils.Patch[time.Time]
	Status     *constants.JobStatus
}

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) (*entity.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	List(ctx context.Context, filter entity.JobFilter) ([]*entity.Job, error)
	Update(ctx context.Context, id uuid.UUID, patch JobPatch) (*entity.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type jobRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewJobRepository(db *DB, logger *slog.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *jobRepository) Create(ctx context.Context, job *entity.Job) (*entity.Job, error) {
	now := r.now()
	row := *job
	row.ID = uuid.New()
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.Status == "" {
		row.Status = constants.JobStatusActive
	}

	query, args := r.db.builder().Insert(jobsTable).
		Columns(jobColumns...).
		Values(row.ID, row.Company, row.Role,
			utils.NullableArg(row.ExternalID), utils.NullableArg(row.Link), utils.NullableArg(row.Deadline),
			string(row.Status), row.CreatedAt, row.UpdatedAt).
		Query()
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create job", "company", row.Company, "role", row.Role, "error", err)
		return nil, storageErr("create job", err)
	}
	return &row, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return getJob(ctx, r.db, r.db.SQL(), id)
}

func getJob(ctx context.Context, db *DB, q querier, id uuid.UUID) (*entity.Job, error) {
	query, args := db.builder().Select(jobColumns...).
		From(entsql.Table(jobsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	job, err := scanJob(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr(err, "get job", "job", id)
	}
	return job, nil
}

func (r *jobRepository) List(ctx context.Context, filter entity.JobFilter) ([]*entity.Job, error) {
	sel := r.db.builder().Select(jobColumns...).From(entsql.Table(jobsTable))
	if filter.Status != "" {
		sel.Where(entsql.EQ("status", string(filter.Status)))
	}
	if filter.Company != "" {
		sel.Where(entsql.ContainsFold("company", filter.Company))
	}
	query, args := sel.OrderBy(entsql.Desc("created_at")).Query()

	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list jobs", "error", err)
		return nil, storageErr("list jobs", err)
	}
	defer rows.Close()

	var out []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, storageErr("scan job", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list jobs", err)
	}
	return out, nil
}

func (r *jobRepository) Update(ctx context.Context, id uuid.UUID, patch JobPatch) (*entity.Job, error) {
	upd := r.db.builder().Update(jobsTable).Set("updated_at", r.now())
	if patch.Company != nil {
		upd.Set("company", *patch.Company)
	}
	if patch.Role != nil {
		upd.Set("role", *patch.Role)
	}
	if patch.Status != nil {
		upd.Set("status", string(*patch.Status))
	}
	if patch.ExternalID.Set {
		upd.Set("job_id", utils.NullableArg(patch.ExternalID.Value))
	}
	if patch.Link.Set {
		upd.Set("link", utils.NullableArg(patch.Link.Value))
	}
	if patch.Deadline.Set {
		upd.Set("deadline", utils.NullableArg(patch.Deadline.Value))
	}
	query, args := upd.Where(entsql.EQ("id", id)).Query()

	res, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update job", "job_id", id, "error", err)
		return nil, storageErr("update job", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, storageErr("update job", err)
	} else if n == 0 {
		return nil, common.NotFoundErrorf("job %s not found", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the job and its referral opportunities in one transaction.
func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		query, args := r.db.builder().Delete(referralsTable).Where(entsql.EQ("job_id", id)).Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.Error("failed to delete job referrals", "job_id", id, "error", err)
			return storageErr("delete job referrals", err)
		}
		cascaded, _ := res.RowsAffected()

		query, args = r.db.builder().Delete(jobsTable).Where(entsql.EQ("id", id)).Query()
		res, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.Error("failed to delete job", "job_id", id, "error", err)
			return storageErr("delete job", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return common.NotFoundErrorf("job %s not found", id)
		}
		r.logger.Info("job deleted", "job_id", id, "referrals_deleted", cascaded)
		return nil
	})
}

func (r *jobRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(ctx, r.db, r.db.SQL(), jobsTable, id)
}

func exists(ctx context.Context, db *DB, q querier, table string, id uuid.UUID) (bool, error) {
	query, args := db.builder().Select("id").From(entsql.Table(table)).Where(entsql.EQ("id", id)).Query()
	var got string
	switch err := q.QueryRowContext(ctx, query, args...).Scan(&got); err {
	case nil:
		return true, nil
	case sql.ErrNoRows:
		return false, nil
	default:
		return false, storageErr("check "+table+" existence", err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*entity.Job, error) {
	var (
		j        entity.Job
		extID    sql.NullString
		link     sql.NullString
		deadline sql.NullTime
		status   string
	)
	if err := s.Scan(&j.ID, &j.Company, &j.Role, &extID, &link, &deadline, &status, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.ExternalID = utils.NullString(extID)
	j.Link = utils.NullString(link)
	j.Deadline = utils.NullTime(deadline)
	j.Status = constants.JobStatus(status)
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return &j, nil
}
