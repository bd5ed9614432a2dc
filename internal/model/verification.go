package model

// Outcome is the terminal state of per-candidate verification. Exactly one
// outcome is assigned to every candidate that enters the pipeline.
type Outcome string

const (
	// OutcomeNoTranscript: no captions were available; lexical and visual
	// evidence are both zero.
	OutcomeNoTranscript Outcome = "no_transcript"
	// OutcomeNotLocalized: a transcript exists but no keyword window of
	// usable length was found; the hybrid lexical score still counts.
	OutcomeNotLocalized Outcome = "not_localized"
	// OutcomeLexicalOnly: a window was localized but frames were not scored
	// (verification disabled, sampling failed, or the oracle errored).
	OutcomeLexicalOnly Outcome = "lexical_only"
	// OutcomeVisual: frames were sampled and scored against the scene text.
	OutcomeVisual Outcome = "visual"
	// OutcomeFailed: an unrecoverable per-candidate error; all downstream
	// scores are zeroed.
	OutcomeFailed Outcome = "failed"
)

// LocalizedWindow is the transcript span selected for a candidate.
type LocalizedWindow struct {
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Text        string  `json:"text"`
	KeywordHits int     `json:"keyword_hits"`
}

// Duration returns the window span in seconds.
func (w LocalizedWindow) Duration() float64 {
	return w.EndTime - w.StartTime
}

// VerificationRecord aggregates every signal gathered for one candidate.
// Each field is written by exactly one pipeline stage.
type VerificationRecord struct {
	MetadataScore   float64          `json:"metadata_score"`
	LexicalScore    float64          `json:"lexical_score"`
	LocalizedWindow *LocalizedWindow `json:"localized_window,omitempty"`
	VisualScore     float64          `json:"visual_score"`
	CombinedScore   float64          `json:"combined_score"`
	Verified        bool             `json:"verified"`
	Outcome         Outcome          `json:"outcome"`
	Error           string           `json:"error,omitempty"`
}

// ScoredCandidate pairs a candidate with its finished verification record.
type ScoredCandidate struct {
	Candidate CandidateMetadata  `json:"candidate"`
	Record    VerificationRecord `json:"record"`
}

// RankedSelection is the pipeline output for one scene: all verified
// candidates in rank order, plus the diversity-bounded accepted subset.
type RankedSelection struct {
	SceneNumber int               `json:"scene_number"`
	Ranked      []ScoredCandidate `json:"ranked"`
	Selected    []ScoredCandidate `json:"selected"`
}

// TopScore returns the combined score of the best-ranked candidate, or 0
// when the selection is empty.
func (rs RankedSelection) TopScore() float64 {
	if len(rs.Ranked) == 0 {
		return 0
	}
	return rs.Ranked[0].Record.CombinedScore
}
