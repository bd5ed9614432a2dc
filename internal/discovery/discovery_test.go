package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/broll-cli/internal/model"
	"github.com/clipforge/broll-cli/pkg/stockapi"
)

type fakeSearch struct {
	mu      sync.Mutex
	queries []string
	hits    map[string][]stockapi.Video
	errs    map[string]error
}

func (f *fakeSearch) Search(_ context.Context, query string, _ ...stockapi.SearchOption) ([]stockapi.Video, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.hits[query], nil
}

func TestVariations(t *testing.T) {
	scene := model.SceneRequest{
		Keywords:    []string{"rocket", "launch"},
		Description: "A dramatic shot of the rocket leaving the pad",
	}

	got := Variations(scene)
	require.NotEmpty(t, got)
	assert.Equal(t, "rocket launch", got[0])
	assert.LessOrEqual(t, len(got), MaxVariations)

	// Synonym swaps keep the other keyword in place.
	assert.Contains(t, got, "spacecraft launch")
	assert.Contains(t, got, "space launch launch")

	// No duplicates.
	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q], "duplicate query %q", q)
		seen[q] = true
	}
}

func TestVariations_Deterministic(t *testing.T) {
	scene := model.SceneRequest{Keywords: []string{"city", "night"}}
	first := Variations(scene)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Variations(scene))
	}
}

func TestVariations_NoKeywords(t *testing.T) {
	got := Variations(model.SceneRequest{Description: "busy harbor with fishing boats"})
	require.Len(t, got, 1)
	assert.Equal(t, "busy harbor fishing boats", got[0])
}

func TestDiscover_DedupAndMerge(t *testing.T) {
	f := &fakeSearch{hits: map[string][]stockapi.Video{
		"rocket launch": {
			{ID: "a", Title: "Rocket A", Source: "pexels", Tier: 1},
			{ID: "b", Title: "Rocket B", Source: "pexels"},
		},
		"spacecraft launch": {
			{ID: "b", Title: "Rocket B again", Source: "pexels"},
			{ID: "c", Title: "Rocket C", Source: "pixabay", Tier: 3},
		},
	}}

	d := New(f, 10)
	pool, err := d.Discover(context.Background(), model.SceneRequest{
		SceneNumber: 1,
		Keywords:    []string{"rocket", "launch"},
	})
	require.NoError(t, err)

	ids := make([]string, len(pool))
	for i, c := range pool {
		ids[i] = c.SourceID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	assert.Equal(t, model.TierCurated, pool[0].SourceTier)
	// Unknown tiers collapse to general.
	assert.Equal(t, model.TierGeneral, pool[1].SourceTier)
	assert.Equal(t, model.TierGeneral, pool[2].SourceTier)
	// First hit wins on duplicate IDs.
	assert.Equal(t, "Rocket B", pool[1].Title)
}

func TestDiscover_FailedVariationSkipped(t *testing.T) {
	f := &fakeSearch{
		hits: map[string][]stockapi.Video{
			"rocket launch": {{ID: "a", Title: "Rocket A", Source: "pexels"}},
		},
		errs: map[string]error{
			"spacecraft launch": errors.New("stockapi: search returned 500"),
		},
	}

	d := New(f, 0)
	pool, err := d.Discover(context.Background(), model.SceneRequest{Keywords: []string{"rocket", "launch"}})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "a", pool[0].SourceID)
}

func TestDiscover_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(&fakeSearch{}, 0)
	_, err := d.Discover(ctx, model.SceneRequest{Keywords: []string{"rocket"}})
	assert.Error(t, err)
}
