// Package model defines the data types shared across the selection pipeline.
package model

import "strings"

// SceneRequest describes one scene of a video script as produced by the
// external planner. It is read-only input to the pipeline.
type SceneRequest struct {
	SceneNumber     int      `json:"scene_number"`
	Description     string   `json:"description"`
	VisualContext   string   `json:"visual_context"`
	MoodTone        string   `json:"mood_tone"`
	Keywords        []string `json:"keywords"`
	TargetDuration  float64  `json:"target_duration_seconds"`
}

// ContextText combines the visual context and mood into the free-text query
// used for context matching and transcript scoring.
func (s SceneRequest) ContextText() string {
	parts := make([]string, 0, 2)
	if s.VisualContext != "" {
		parts = append(parts, s.VisualContext)
	}
	if s.MoodTone != "" {
		parts = append(parts, s.MoodTone)
	}
	return strings.Join(parts, " ")
}

// QueryText builds the full lexical query for a scene: keywords first, then
// description and visual context.
func (s SceneRequest) QueryText() string {
	parts := make([]string, 0, len(s.Keywords)+2)
	parts = append(parts, s.Keywords...)
	if s.Description != "" {
		parts = append(parts, s.Description)
	}
	if s.VisualContext != "" {
		parts = append(parts, s.VisualContext)
	}
	return strings.Join(parts, " ")
}

// DescriptionTexts returns the non-empty texts a candidate's frames are
// verified against: description, visual context and the joined keywords.
func (s SceneRequest) DescriptionTexts() []string {
	var texts []string
	if s.Description != "" {
		texts = append(texts, s.Description)
	}
	if s.VisualContext != "" {
		texts = append(texts, s.VisualContext)
	}
	if len(s.Keywords) > 0 {
		texts = append(texts, strings.Join(s.Keywords, " "))
	}
	return texts
}
