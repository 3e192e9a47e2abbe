package concept

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	vmodels "github.com/WestCoastInformatics/snowstorm-1/internal/versioning/models"
)

func TestInMemoryStore_FindTerms(t *testing.T) {
	store := NewInMemory()
	store.PutTerms("MAIN", map[string]models.TermSet{
		"404684003": {FSN: "Clinical finding (finding)", PT: "Clinical finding"},
		"363698007": {FSN: "Finding site (attribute)", PT: "Finding site"},
	})
	view := vmodels.View{Path: "MAIN", Timepoint: time.Now()}

	got, err := store.FindTerms(context.Background(), view, []string{"404684003", "363698007", "unknown"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Finding site", got["363698007"].PT)

	other, err := store.FindTerms(context.Background(), vmodels.View{Path: "MAIN/task"}, []string{"404684003"})
	require.NoError(t, err)
	assert.Empty(t, other)
}
