// Package discovery turns a scene request into a deduplicated candidate
// pool by fanning query variations out to the footage search API.
package discovery

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clipforge/broll-cli/internal/model"
	"github.com/clipforge/broll-cli/pkg/stockapi"
)

// MaxVariations caps how many query variations are issued per scene.
const MaxVariations = 5

// synonyms expands common scene terms into alternates that footage
// libraries tag clips with.
var synonyms = map[string][]string{
	"city":       {"urban", "downtown", "skyline"},
	"ocean":      {"sea", "waves", "coastal"},
	"forest":     {"woods", "trees", "woodland"},
	"mountain":   {"peak", "alpine", "summit"},
	"people":     {"crowd", "pedestrians"},
	"night":      {"evening", "dusk"},
	"sunrise":    {"dawn", "morning light"},
	"sunset":     {"dusk", "golden hour"},
	"factory":    {"industrial", "manufacturing"},
	"computer":   {"technology", "screen"},
	"laboratory": {"science", "research lab"},
	"rocket":     {"spacecraft", "space launch"},
	"car":        {"vehicle", "driving"},
	"rain":       {"storm", "rainfall"},
}

// Discoverer searches the footage API and assembles a candidate pool.
type Discoverer struct {
	client   stockapi.Client
	perQuery int
	workers  int
}

// New creates a Discoverer. perQuery caps hits per variation; zero means
// the client default.
func New(client stockapi.Client, perQuery int) *Discoverer {
	return &Discoverer{client: client, perQuery: perQuery, workers: 3}
}

// Variations builds the search queries for a scene: the joined keywords
// first, then synonym swaps on each keyword, then a description-derived
// query. At most MaxVariations, duplicates removed, order deterministic.
func Variations(scene model.SceneRequest) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(q string) {
		q = strings.TrimSpace(strings.ToLower(q))
		if q == "" || seen[q] || len(out) >= MaxVariations {
			return
		}
		seen[q] = true
		out = append(out, q)
	}

	add(strings.Join(scene.Keywords, " "))

	for i, kw := range scene.Keywords {
		alts, ok := synonyms[strings.ToLower(kw)]
		if !ok {
			continue
		}
		// Sorted so variation order never depends on map iteration.
		sorted := append([]string(nil), alts...)
		sort.Strings(sorted)
		for _, alt := range sorted {
			swapped := append([]string(nil), scene.Keywords...)
			swapped[i] = alt
			add(strings.Join(swapped, " "))
		}
	}

	add(descriptionQuery(scene.Description))
	return out
}

// descriptionQuery reduces a free-text scene description to its first few
// content words.
func descriptionQuery(desc string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(desc)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) < 3 || fillerWords[w] {
			continue
		}
		words = append(words, w)
		if len(words) == 4 {
			break
		}
	}
	return strings.Join(words, " ")
}

var fillerWords = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "from": true,
	"that": true, "this": true, "over": true, "into": true, "shot": true,
	"scene": true, "showing": true, "view": true,
}

// Discover runs every variation against the search API and returns the
// merged pool, deduplicated by source ID. A failed variation is logged and
// skipped; Discover errors only when the context is cancelled.
func (d *Discoverer) Discover(ctx context.Context, scene model.SceneRequest) ([]model.CandidateMetadata, error) {
	queries := Variations(scene)
	results := make([][]stockapi.Video, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	var mu sync.Mutex

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			var opts []stockapi.SearchOption
			if d.perQuery > 0 {
				opts = append(opts, stockapi.WithPerQuery(d.perQuery))
			}
			videos, err := d.client.Search(gctx, q, opts...)
			if err != nil {
				zap.L().Warn("search variation failed",
					zap.Int("scene", scene.SceneNumber),
					zap.String("query", q),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			results[i] = videos
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in variation order so the pool is deterministic, keeping the
	// first hit for each source ID.
	seen := make(map[string]bool)
	var pool []model.CandidateMetadata
	for _, videos := range results {
		for _, v := range videos {
			if v.ID == "" || seen[v.ID] {
				continue
			}
			seen[v.ID] = true
			pool = append(pool, toCandidate(v))
		}
	}

	zap.L().Info("candidates discovered",
		zap.Int("scene", scene.SceneNumber),
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(pool)),
	)
	return pool, nil
}

func toCandidate(v stockapi.Video) model.CandidateMetadata {
	tier := model.SourceTier(v.Tier)
	if tier != model.TierCurated {
		tier = model.TierGeneral
	}
	return model.CandidateMetadata{
		SourceID:    v.ID,
		Title:       v.Title,
		Description: v.Description,
		Tags:        v.Tags,
		Duration:    v.Duration,
		ViewCount:   v.ViewCount,
		Resolution:  v.Resolution,
		SourceTier:  tier,
		SourceName:  v.Source,
		URL:         v.URL,
		Thumbnail:   v.Thumbnail,
	}
}
