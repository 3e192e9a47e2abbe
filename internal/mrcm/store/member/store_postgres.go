package member

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
	pstrings "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/strings"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/tx"
)

// PostgresStore keeps member versions in refset_members. Statements run on the commit
// transaction when one is in context, so an aborted commit leaves nothing behind.
type PostgresStore struct {
	db *sql.DB
}

const uniqueViolation = "23505"

const memberColumns = `internal_id, member_id, refset_id, referenced_component_id, module_id,
	active, released, effective_time, released_effective_time, release_hash,
	additional_fields, path, start_time, end_time`

// visibleAt selects versions of branch $1 visible at timepoint $2.
const visibleAt = `path = $1 AND start_time <= $2 AND (end_time IS NULL OR end_time > $2)`

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindActiveByRefsets(ctx context.Context, view vmodels.View, refsetIDs []string) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM refset_members
		WHERE ` + visibleAt + ` AND active AND refset_id = ANY($3)
		ORDER BY member_id`
	members, err := s.query(ctx, query, view.Path, view.Timepoint, pq.Array(pstrings.SortedSet(refsetIDs)))
	if err != nil {
		return nil, fmt.Errorf("find active members: %w", err)
	}
	return members, nil
}

func (s *PostgresStore) FindMembers(ctx context.Context, view vmodels.View, memberIDs []string) ([]*models.Member, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + memberColumns + ` FROM refset_members
		WHERE ` + visibleAt + ` AND member_id = ANY($3)
		ORDER BY member_id`
	members, err := s.query(ctx, query, view.Path, view.Timepoint, pq.Array(pstrings.SortedSet(memberIDs)))
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	return members, nil
}

func (s *PostgresStore) FindChangedMemberIDs(ctx context.Context, view vmodels.View, refsetIDs []string) ([]string, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT DISTINCT member_id FROM refset_members
		WHERE path = $1 AND refset_id = ANY($3) AND (start_time = $2 OR end_time = $2)
		ORDER BY member_id
	`, view.Path, view.Timepoint, pq.Array(pstrings.SortedSet(refsetIDs)))
	if err != nil {
		return nil, fmt.Errorf("find changed members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan changed member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changed members: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) PatchFieldsInPlace(ctx context.Context, members []*models.Member) error {
	q := tx.QuerierFrom(ctx, s.db)
	for _, m := range members {
		fields, err := json.Marshal(m.AdditionalFields)
		if err != nil {
			return fmt.Errorf("marshal fields of member %s: %w", m.MemberID, err)
		}
		result, err := q.ExecContext(ctx, `
			UPDATE refset_members
			SET additional_fields = additional_fields || $2::jsonb, effective_time = $3
			WHERE internal_id = $1
		`, m.InternalID, string(fields), m.EffectiveTime)
		if err != nil {
			return fmt.Errorf("patch member %s: %w", m.MemberID, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("patch member rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("member version %s: %w", m.InternalID, sentinel.ErrNotFound)
		}
	}
	return nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, commit *vmodels.Commit, members []*models.Member) error {
	if len(members) == 0 {
		return nil
	}
	path, tp := commit.Branch.Path, commit.Timepoint
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MemberID
	}
	q := tx.QuerierFrom(ctx, s.db)

	var existing string
	err := q.QueryRowContext(ctx, `
		SELECT member_id FROM refset_members
		WHERE path = $1 AND start_time = $2 AND member_id = ANY($3)
		LIMIT 1
	`, path, tp, pq.Array(ids)).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("member %s already has a version at %s: %w",
			existing, tp.Format(time.RFC3339Nano), sentinel.ErrConflict)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check member versions: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE refset_members SET end_time = $2
		WHERE path = $1 AND member_id = ANY($3) AND end_time IS NULL
	`, path, tp, pq.Array(ids)); err != nil {
		return fmt.Errorf("end member versions: %w", err)
	}

	for _, m := range members {
		fields, err := json.Marshal(m.AdditionalFields)
		if err != nil {
			return fmt.Errorf("marshal fields of member %s: %w", m.MemberID, err)
		}
		internalID := uuid.New()
		_, err = q.ExecContext(ctx, `INSERT INTO refset_members (`+memberColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL)
		`, internalID, m.MemberID, m.RefsetID, m.ReferencedComponentID, m.ModuleID,
			m.Active, m.Released, m.EffectiveTime, m.ReleasedEffectiveTime, m.ReleaseHash,
			string(fields), path, tp)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("member %s: %w", m.MemberID, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert member %s: %w", m.MemberID, err)
		}
		m.InternalID = internalID.String()
		m.Path = path
		m.Start = tp
		m.End = nil
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Member, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*models.Member, error) {
	var (
		m      models.Member
		fields []byte
		end    sql.NullTime
	)
	if err := row.Scan(&m.InternalID, &m.MemberID, &m.RefsetID, &m.ReferencedComponentID, &m.ModuleID,
		&m.Active, &m.Released, &m.EffectiveTime, &m.ReleasedEffectiveTime, &m.ReleaseHash,
		&fields, &m.Path, &m.Start, &end); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &m.AdditionalFields); err != nil {
			return nil, fmt.Errorf("unmarshal fields of member %s: %w", m.MemberID, err)
		}
	}
	m.Start = m.Start.UTC()
	if end.Valid {
		t := end.Time.UTC()
		m.End = &t
	}
	return &m, nil
}
