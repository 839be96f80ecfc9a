package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"menutree/internal/domain"
)

const pgMenuColumns = `id::text, name, parent_id::text, sort_order, depth, created_at, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	q      querier
	inTx   bool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, q: pool, logger: logger}
}

func (r *postgresRepo) FindByID(ctx context.Context, id string) (*domain.MenuNode, error) {
	q := `SELECT ` + pgMenuColumns + ` FROM menus WHERE id = $1`
	return r.scanMenu(r.q.QueryRow(ctx, q, id))
}

func (r *postgresRepo) FindMany(ctx context.Context, filter Filter, order Order) ([]domain.MenuNode, error) {
	where, args := pgWhere(filter)
	q := `SELECT ` + pgMenuColumns + ` FROM menus` + where
	if order == BySortOrder {
		q += ` ORDER BY sort_order ASC, created_at ASC, id ASC`
	}

	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MenuNode
	for rows.Next() {
		n, err := r.scanMenu(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Create(ctx context.Context, n domain.MenuNode) (*domain.MenuNode, error) {
	const q = `
INSERT INTO menus (name, parent_id, sort_order, depth)
VALUES ($1, $2, $3, $4)
RETURNING ` + pgMenuColumns
	return r.scanMenu(r.q.QueryRow(ctx, q, n.Name, n.ParentID, n.Order, n.Depth))
}

func (r *postgresRepo) Update(ctx context.Context, id string, patch domain.MenuPatch) (*domain.MenuNode, error) {
	sets := []string{"updated_at = now()"}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Parent.Set {
		add("parent_id", patch.Parent.ID)
	}
	if patch.Order != nil {
		add("sort_order", *patch.Order)
	}
	if patch.Depth != nil {
		add("depth", *patch.Depth)
	}
	args = append(args, id)

	q := fmt.Sprintf(`
UPDATE menus
SET %s
WHERE id = $%d
RETURNING %s`, strings.Join(sets, ", "), len(args), pgMenuColumns)
	return r.scanMenu(r.q.QueryRow(ctx, q, args...))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	where, args := pgWhere(filter)
	cmd, err := r.q.Exec(ctx, `DELETE FROM menus`+where, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &postgresRepo{pool: r.pool, q: tx, inTx: true, logger: r.logger}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresRepo) scanMenu(row pgx.Row) (*domain.MenuNode, error) {
	var n domain.MenuNode
	err := row.Scan(&n.ID, &n.Name, &n.ParentID, &n.Order, &n.Depth, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("menu repo: scan error=%v", err)
		return nil, err
	}
	return &n, nil
}

func pgWhere(filter Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.ParentID != nil {
		args = append(args, *filter.ParentID)
		clauses = append(clauses, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	if filter.RootsOnly {
		clauses = append(clauses, "parent_id IS NULL")
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
