// Package storage is the SQL implementation of store.Store. SQLite and
// Postgres share one repository; queries are written with ? placeholders
// and rebound per dialect.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
}

// NewSQLiteRepository opens (creating if needed) the database file at
// dbPath and migrates it. A nil logger discards repository logs.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath, logger)
}

func NewPostgresRepository(dsn string, logger *log.Logger) (*Repository, error) {
	return open(DialectPostgres, dsn, logger)
}

func open(d Dialect, dsn string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage).With("dialect", string(d))

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if d == DialectSQLite {
		// one writer keeps MarkSettled and Update transactions from
		// tripping over SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	logger.Debug("Database ready", log.FieldOperation, log.OpStartup)
	return &Repository{db: db, dialect: d, logger: logger}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *Repository) rebind(q string) string {
	if r.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

const transactionColumns = "id, date, kind, category, amount, description, payer, method, project_id, settled"

func (r *Repository) List(ctx context.Context, filter store.ListFilter) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		// kind and date are coerced after reading, so filtering happens here
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	r.logger.DebugContext(ctx, "Transactions listed",
		log.FieldOperation, log.OpList,
		"rows", len(out))
	return out, nil
}

func (r *Repository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	rec := encodeTransaction(t)
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO transactions (date, kind, category, amount, description, payer, method, project_id, settled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		rec.date, rec.kind, t.Category, rec.amount, t.Description, t.Payer, rec.method, rec.projectID, t.Settled,
	).Scan(&t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction inserted",
		log.FieldOperation, log.OpInsert,
		log.FieldTransactionID, t.ID,
		"kind", t.Kind,
		log.FieldAmount, t.Amount.String(),
		"date", t.Date.String())

	return t, nil
}

func (r *Repository) Update(ctx context.Context, id int64, patch store.TransactionPatch) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, r.rebind("SELECT "+transactionColumns+" FROM transactions WHERE id = ?"), id)
		current, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", id, err)
		}

		updated, err := patch.Apply(current)
		if err != nil {
			return err
		}

		rec := encodeTransaction(updated)
		_, err = tx.ExecContext(ctx, r.rebind(`
			UPDATE transactions
			SET date = ?, kind = ?, category = ?, amount = ?, description = ?,
			    payer = ?, method = ?, project_id = ?, settled = ?
			WHERE id = ?`),
			rec.date, rec.kind, updated.Category, rec.amount, updated.Description,
			updated.Payer, rec.method, rec.projectID, updated.Settled, id,
		)
		if err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}
		return nil
	})
}

// MarkSettled sets the flag on all ids or on none of them.
func (r *Repository) MarkSettled(ctx context.Context, ids []int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt := r.rebind("UPDATE transactions SET settled = ? WHERE id = ?")
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, stmt, true, id)
			if err != nil {
				return fmt.Errorf("mark transaction %d settled: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("mark transaction %d settled: %w", id, err)
			}
			if n == 0 {
				return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
			}
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM transactions WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListProjects(ctx context.Context, clientID *int64) ([]core.Project, error) {
	q := "SELECT id, client_id, name, agreed_price FROM projects"
	var args []any
	if clientID != nil {
		q += " WHERE client_id = ?"
		args = append(args, *clientID)
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(q+" ORDER BY id"), args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		var (
			p     core.Project
			price string
		)
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &price); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.AgreedPrice, err = core.ParseAmount(price)
		if err != nil {
			r.logger.WarnContext(ctx, "Project with unparseable agreed price counted as zero",
				"project_id", p.ID,
				log.FieldClientID, p.ClientID,
				"raw", price)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (r *Repository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, status FROM clients ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		var c core.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Status); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

// CreateClient adds a client to the directory.
func (r *Repository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	if c.Status == "" {
		c.Status = "active"
	}
	err := r.db.QueryRowContext(ctx, r.rebind("INSERT INTO clients (name, status) VALUES (?, ?) RETURNING id"),
		c.Name, c.Status).Scan(&c.ID)
	if err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// CreateProject adds a project for an existing client.
func (r *Repository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	err := r.db.QueryRowContext(ctx, r.rebind("INSERT INTO projects (client_id, name, agreed_price) VALUES (?, ?, ?) RETURNING id"),
		p.ClientID, p.Name, p.AgreedPrice.String()).Scan(&p.ID)
	if err != nil {
		return core.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (r *Repository) RecordPending(ctx context.Context, w core.PendingWrite) (core.PendingWrite, error) {
	rec := encodePending(w)
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO pending_writes (saga, origin_id, payer, amount, member_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		string(w.Saga), w.OriginID, w.Payer, rec.amount, rec.memberIDs, rec.createdAt,
	).Scan(&w.ID)
	if err != nil {
		return core.PendingWrite{}, fmt.Errorf("record pending write: %w", err)
	}
	w.CreatedAt = rec.created
	return w, nil
}

func (r *Repository) ResolvePending(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM pending_writes WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("resolve pending write %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve pending write %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("pending write %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListPending(ctx context.Context) ([]core.PendingWrite, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, saga, origin_id, payer, amount, member_ids, created_at FROM pending_writes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list pending writes: %w", err)
	}
	defer rows.Close()

	var out []core.PendingWrite
	for rows.Next() {
		w, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending write: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending writes: %w", err)
	}
	return out, nil
}

func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ store.Store = (*Repository)(nil)
