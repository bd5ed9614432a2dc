package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/broll-cli/internal/model"
)

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlan(t *testing.T) {
	path := writePlanFile(t, `{
		"title": "Space documentary",
		"scenes": [
			{"scene_number": 1, "description": "rocket launch", "keywords": ["rocket", "launch"]}
		],
		"search_results": [
			{"scene_number": 1, "required_clips": 2, "candidates": [
				{"source_id": "a", "title": "Rocket", "source_name": "pexels"}
			]}
		]
	}`)

	plan, err := loadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "Space documentary", plan.Title)
	require.Len(t, plan.Scenes, 1)

	scene, ok := plan.SceneByNumber(1)
	require.True(t, ok)
	assert.Equal(t, []string{"rocket", "launch"}, scene.Keywords)

	candidates, required := candidatesFor(plan, 1)
	assert.Equal(t, 2, required)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].SourceID)
}

func TestLoadPlan_Errors(t *testing.T) {
	_, err := loadPlan(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loadPlan(writePlanFile(t, `not json`))
	assert.Error(t, err)

	_, err = loadPlan(writePlanFile(t, `{"scenes": []}`))
	assert.Error(t, err)
}

func TestCandidatesFor_Defaults(t *testing.T) {
	plan := &model.Plan{
		Scenes: []model.SceneRequest{{SceneNumber: 1}, {SceneNumber: 2}},
		SearchResults: []model.SceneCandidates{
			{SceneNumber: 1, Candidates: []model.CandidateMetadata{{SourceID: "a"}}},
		},
	}

	// required_clips unset defaults to 1.
	candidates, required := candidatesFor(plan, 1)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 1, required)

	// No search results for the scene at all.
	candidates, required = candidatesFor(plan, 2)
	assert.Empty(t, candidates)
	assert.Equal(t, 1, required)
}
