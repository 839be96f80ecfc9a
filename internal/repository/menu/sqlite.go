package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"menutree/internal/domain"
)

// sqliteTimeLayout is fixed width so text comparison matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteMenuColumns = `id, name, parent_id, sort_order, depth, created_at, updated_at`

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

type sqliteRepo struct {
	db   *sql.DB
	q    DBTX
	inTx bool
	now  func() time.Time
}

// NewSQLite returns a Repository backed by a SQLite database with the menus
// schema applied.
func NewSQLite(db *sql.DB) Repository {
	return &sqliteRepo{db: db, q: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *sqliteRepo) FindByID(ctx context.Context, id string) (*domain.MenuNode, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+sqliteMenuColumns+` FROM menus WHERE id = ?`, id)
	return scanSQLiteMenu(row)
}

func (r *sqliteRepo) FindMany(ctx context.Context, filter Filter, order Order) ([]domain.MenuNode, error) {
	where, args := sqliteWhere(filter)
	query := `SELECT ` + sqliteMenuColumns + ` FROM menus` + where
	if order == BySortOrder {
		query += ` ORDER BY sort_order ASC, created_at ASC, id ASC`
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying menus: %w", err)
	}
	defer rows.Close()

	var result []domain.MenuNode
	for rows.Next() {
		n, err := scanSQLiteMenu(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menus: %w", err)
	}
	return result, nil
}

func (r *sqliteRepo) Create(ctx context.Context, n domain.MenuNode) (*domain.MenuNode, error) {
	now := r.now()
	out := n
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.CreatedAt = now
	out.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `INSERT INTO menus (`+sqliteMenuColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		out.ID,
		out.Name,
		out.ParentID, // *string: nil becomes SQL NULL
		out.Order,
		out.Depth,
		now.Format(sqliteTimeLayout),
		now.Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting menu: %w", err)
	}
	return &out, nil
}

func (r *sqliteRepo) Update(ctx context.Context, id string, patch domain.MenuPatch) (*domain.MenuNode, error) {
	sets := []string{"updated_at = ?"}
	args := []any{r.now().Format(sqliteTimeLayout)}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Parent.Set {
		sets = append(sets, "parent_id = ?")
		args = append(args, patch.Parent.ID)
	}
	if patch.Order != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *patch.Order)
	}
	if patch.Depth != nil {
		sets = append(sets, "depth = ?")
		args = append(args, *patch.Depth)
	}
	args = append(args, id)

	res, err := r.q.ExecContext(ctx, `UPDATE menus SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("updating menu: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *sqliteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM menus WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting menu: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sqliteRepo) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	where, args := sqliteWhere(filter)
	res, err := r.q.ExecContext(ctx, `DELETE FROM menus`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting menus: %w", err)
	}
	return res.RowsAffected()
}

func (r *sqliteRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &sqliteRepo{db: r.db, q: tx, inTx: true, now: r.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (r *sqliteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteMenu(row rowScanner) (*domain.MenuNode, error) {
	var (
		n                domain.MenuNode
		parentID         sql.NullString
		created, updated string
	)
	if err := row.Scan(&n.ID, &n.Name, &parentID, &n.Order, &n.Depth, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning menu: %w", err)
	}
	if parentID.Valid {
		p := parentID.String
		n.ParentID = &p
	}
	var err error
	if n.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing created_at for menu %s: %w", n.ID, err)
	}
	if n.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at for menu %s: %w", n.ID, err)
	}
	return &n, nil
}

func sqliteWhere(filter Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.ParentID != nil {
		clauses = append(clauses, "parent_id = ?")
		args = append(args, *filter.ParentID)
	}
	if filter.RootsOnly {
		clauses = append(clauses, "parent_id IS NULL")
	}
	if len(filter.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")
		clauses = append(clauses, "id IN ("+placeholders+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
