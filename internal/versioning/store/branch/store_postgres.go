package branch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/tx"
)

// PostgresStore persists branches in the branches table. The lock flag is owned by the
// versioning service and not stored.
// Writes issued inside an open commit join the commit transaction.
type PostgresStore struct {
	db *sql.DB
}

const uniqueViolation = "23505"

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, branch *models.Branch) error {
	metadata, err := json.Marshal(branch.Metadata)
	if err != nil {
		return fmt.Errorf("marshal branch metadata: %w", err)
	}
	_, err = tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO branches (path, metadata, head, created_at)
		VALUES ($1, $2, $3, $4)
	`, branch.Path, string(metadata), branch.Head, branch.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("branch %s: %w", branch.Path, sentinel.ErrConflict)
		}
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPath(ctx context.Context, path string) (*models.Branch, error) {
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT path, metadata, head, created_at
		FROM branches
		WHERE path = $1
	`, path)
	branch, err := scanBranch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("branch %s: %w", path, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find branch: %w", err)
	}
	return branch, nil
}

func (s *PostgresStore) Update(ctx context.Context, branch *models.Branch) error {
	metadata, err := json.Marshal(branch.Metadata)
	if err != nil {
		return fmt.Errorf("marshal branch metadata: %w", err)
	}
	result, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE branches
		SET metadata = $2, head = $3
		WHERE path = $1
	`, branch.Path, string(metadata), branch.Head)
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update branch rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("branch %s: %w", branch.Path, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Branch, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT path, metadata, head, created_at
		FROM branches
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var out []*models.Branch
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		out = append(out, branch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBranch(row scanner) (*models.Branch, error) {
	var (
		branch   models.Branch
		metadata []byte
	)
	if err := row.Scan(&branch.Path, &metadata, &branch.Head, &branch.CreatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &branch.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal branch metadata: %w", err)
		}
	}
	if branch.Metadata == nil {
		branch.Metadata = map[string]string{}
	}
	branch.Head = branch.Head.UTC()
	branch.CreatedAt = branch.CreatedAt.UTC()
	return &branch, nil
}
