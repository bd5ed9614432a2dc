package model

// Plan is an enriched production plan: the planner's scenes plus the
// retriever's candidate pool for each scene.
type Plan struct {
	Title         string            `json:"title,omitempty"`
	Scenes        []SceneRequest    `json:"scenes"`
	SearchResults []SceneCandidates `json:"search_results"`
}

// SceneCandidates holds the discovered candidate pool for one scene.
type SceneCandidates struct {
	SceneNumber   int                 `json:"scene_number"`
	RequiredClips int                 `json:"required_clips"`
	Candidates    []CandidateMetadata `json:"candidates"`
}

// SceneByNumber finds the plan's scene with the given number.
func (p Plan) SceneByNumber(n int) (SceneRequest, bool) {
	for _, s := range p.Scenes {
		if s.SceneNumber == n {
			return s, true
		}
	}
	return SceneRequest{}, false
}

// RankedPlan is a Plan with per-scene selections attached.
type RankedPlan struct {
	Plan
	Selections []RankedSelection `json:"selections"`
}
