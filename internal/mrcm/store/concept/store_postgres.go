package concept

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
	pstrings "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/strings"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/tx"
)

// PostgresStore reads terms from concept_terms.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindTerms(ctx context.Context, view vmodels.View, conceptIDs []string) (map[string]models.TermSet, error) {
	out := make(map[string]models.TermSet, len(conceptIDs))
	ids := pstrings.SortedSet(conceptIDs)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT concept_id, fsn, pt FROM concept_terms
		WHERE path = $1 AND concept_id = ANY($2)
	`, view.Path, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find concept terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			terms models.TermSet
		)
		if err := rows.Scan(&id, &terms.FSN, &terms.PT); err != nil {
			return nil, fmt.Errorf("scan concept terms: %w", err)
		}
		out[id] = terms
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concept terms: %w", err)
	}
	return out, nil
}

// PutTerms upserts terms on a branch.
func (s *PostgresStore) PutTerms(ctx context.Context, path string, terms map[string]models.TermSet) error {
	q := tx.QuerierFrom(ctx, s.db)
	for id, set := range terms {
		_, err := q.ExecContext(ctx, `
			INSERT INTO concept_terms (path, concept_id, fsn, pt)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (path, concept_id) DO UPDATE SET fsn = EXCLUDED.fsn, pt = EXCLUDED.pt
		`, path, id, set.FSN, set.PT)
		if err != nil {
			return fmt.Errorf("upsert concept terms %s: %w", id, err)
		}
	}
	return nil
}
