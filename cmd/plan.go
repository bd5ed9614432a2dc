package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/clipforge/broll-cli/internal/model"
)

// loadPlan reads a production plan JSON file.
func loadPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read plan")
	}
	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, eris.Wrap(err, "parse plan")
	}
	if len(plan.Scenes) == 0 {
		return nil, eris.New("plan has no scenes")
	}
	return &plan, nil
}

// candidatesFor returns the candidate pool and required clip count for a
// scene, defaulting required clips to 1 when the plan leaves it unset.
func candidatesFor(plan *model.Plan, sceneNumber int) ([]model.CandidateMetadata, int) {
	for _, sc := range plan.SearchResults {
		if sc.SceneNumber != sceneNumber {
			continue
		}
		required := sc.RequiredClips
		if required <= 0 {
			required = 1
		}
		return sc.Candidates, required
	}
	return nil, 1
}

// writeJSON writes v as indented JSON to path, or stdout when path is "".
func writeJSON(path string, v any) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
