package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

const connectionsTable = "connections"

var connectionColumns = []string{
	"id", "name", "company_guess", "source", "email_message_id",
	"raw_subject", "raw_snippet", "accepted_at", "status",
}

type ConnectionRepository interface {
	Create(ctx context.Context, c *entity.Connection) (*entity.Connection, error)
	// CreateIfAbsent inserts c unless a row with the same email_message_id
	// already exists. created is false when the row was already there.
	CreateIfAbsent(ctx context.Context, c *entity.Connection) (row *entity.Connection, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Connection, error)
	FindByMessageID(ctx context.Context, messageID string) (*entity.Connection, bool, error)
	List(ctx context.Context, filter entity.ConnectionFilter) ([]*entity.Connection, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ConnectionStatus) (*entity.Connection, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type connectionRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewConnectionRepository(db *DB, logger *slog.Logger) ConnectionRepository {
	return &connectionRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *connectionRepository) prepare(c *entity.Connection) entity.Connection {
	row := *c
	row.ID = uuid.New()
	if row.Name == "" {
		row.Name = constants.UnknownName
	}
	if row.Source == "" {
		row.Source = constants.SourceLinkedInEmail
	}
	if row.Status == "" {
		row.Status = constants.ConnectionStatusNew
	}
	if row.AcceptedAt.IsZero() {
		row.AcceptedAt = r.now()
	}
	row.AcceptedAt = row.AcceptedAt.UTC()
	return row
}

func (r *connectionRepository) insert(row entity.Connection) *entsql.InsertBuilder {
	return r.db.builder().Insert(connectionsTable).
		Columns(connectionColumns...).
		Values(row.ID, row.Name, utils.NullableArg(row.CompanyGuess), row.Source,
			utils.NullableArg(row.EmailMessageID), utils.NullableArg(row.RawSubject), utils.NullableArg(row.RawSnippet),
			row.AcceptedAt, string(row.Status))
}

func (r *connectionRepository) Create(ctx context.Context, c *entity.Connection) (*entity.Connection, error) {
	row := r.prepare(c)
	query, args := r.insert(row).Query()
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create connection", "name", row.Name, "error", err)
		return nil, storageErr("create connection", err)
	}
	return &row, nil
}

func (r *connectionRepository) CreateIfAbsent(ctx context.Context, c *entity.Connection) (*entity.Connection, bool, error) {
	if c.EmailMessageID == nil {
		row, err := r.Create(ctx, c)
		return row, err == nil, err
	}
	row := r.prepare(c)
	query, args := r.insert(row).
		OnConflict(entsql.ConflictColumns("email_message_id"), entsql.DoNothing()).
		Query()
	res, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, nil
		}
		r.logger.Error("failed to insert connection", "email_message_id", *row.EmailMessageID, "error", err)
		return nil, false, storageErr("insert connection", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, storageErr("insert connection", err)
	}
	if n == 0 {
		r.logger.Info("connection already stored by a concurrent writer", "email_message_id", *row.EmailMessageID)
		return nil, false, nil
	}
	return &row, true, nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Connection, error) {
	return getConnection(ctx, r.db, r.db.SQL(), id)
}

func getConnection(ctx context.Context, db *DB, q querier, id uuid.UUID) (*entity.Connection, error) {
	query, args := db.builder().Select(connectionColumns...).
		From(entsql.Table(connectionsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	c, err := scanConnection(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr(err, "get connection", "connection", id)
	}
	return c, nil
}

func (r *connectionRepository) FindByMessageID(ctx context.Context, messageID string) (*entity.Connection, bool, error) {
	query, args := r.db.builder().Select(connectionColumns...).
		From(entsql.Table(connectionsTable)).
		Where(entsql.EQ("email_message_id", messageID)).
		Query()
	c, err := scanConnection(r.db.SQL().QueryRowContext(ctx, query, args...))
	switch {
	case err == nil:
		return c, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	default:
		r.logger.Error("failed to look up connection by message id", "email_message_id", messageID, "error", err)
		return nil, false, storageErr("find connection by message id", err)
	}
}

func (r *connectionRepository) List(ctx context.Context, filter entity.ConnectionFilter) ([]*entity.Connection, error) {
	sel := r.db.builder().Select(connectionColumns...).From(entsql.Table(connectionsTable))
	if filter.Status != "" {
		sel.Where(entsql.EQ("status", string(filter.Status)))
	}
	query, args := sel.OrderBy(entsql.Desc("accepted_at")).Query()

	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list connections", "error", err)
		return nil, storageErr("list connections", err)
	}
	defer rows.Close()

	var out []*entity.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, storageErr("scan connection", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list connections", err)
	}
	return out, nil
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ConnectionStatus) (*entity.Connection, error) {
	query, args := r.db.builder().Update(connectionsTable).
		Set("status", string(status)).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update connection status", "connection_id", id, "error", err)
		return nil, storageErr("update connection", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, common.NotFoundErrorf("connection %s not found", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the connection and its referral opportunities in one transaction.
func (r *connectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		query, args := r.db.builder().Delete(referralsTable).Where(entsql.EQ("connection_id", id)).Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.Error("failed to delete connection referrals", "connection_id", id, "error", err)
			return storageErr("delete connection referrals", err)
		}
		cascaded, _ := res.RowsAffected()

		query, args = r.db.builder().Delete(connectionsTable).Where(entsql.EQ("id", id)).Query()
		res, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.Error("failed to delete connection", "connection_id", id, "error", err)
			return storageErr("delete connection", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return common.NotFoundErrorf("connection %s not found", id)
		}
		r.logger.Info("connection deleted", "connection_id", id, "referrals_deleted", cascaded)
		return nil
	})
}

func (r *connectionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(ctx, r.db, r.db.SQL(), connectionsTable, id)
}

func scanConnection(s rowScanner) (*entity.Connection, error) {
	var (
		c            entity.Connection
		companyGuess sql.NullString
		messageID    sql.NullString
		rawSubject   sql.NullString
		rawSnippet   sql.NullString
		status       string
	)
	if err := s.Scan(&c.ID, &c.Name, &companyGuess, &c.Source, &messageID, &rawSubject, &rawSnippet, &c.AcceptedAt, &status); err != nil {
		return nil, err
	}
	c.CompanyGuess = utils.NullString(companyGuess)
	c.EmailMessageID = utils.NullString(messageID)
	c.RawSubject = utils.NullString(rawSubject)
	c.RawSnippet = utils.NullString(rawSnippet)
	c.AcceptedAt = c.AcceptedAt.UTC()
	c.Status = constants.ConnectionStatus(status)
	return &c, nil
}
