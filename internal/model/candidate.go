package model

// SourceTier ranks the trustworthiness of a footage source. Tier 1 sources
// are curated archives; tier 2 is everything else.
type SourceTier int

const (
	TierCurated SourceTier = 1
	TierGeneral SourceTier = 2
)

// CandidateMetadata is the raw metadata for one discovered candidate video,
// as returned by the retriever. Never mutated by the pipeline.
type CandidateMetadata struct {
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
	Duration    float64    `json:"duration_seconds"`
	ViewCount   int64      `json:"view_count"`
	Resolution  string     `json:"resolution,omitempty"`
	SourceTier  SourceTier `json:"source_tier"`
	SourceName  string     `json:"source_name"`
	URL         string     `json:"url,omitempty"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
}

// TranscriptSegment is one timed caption line from the transcript provider.
type TranscriptSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// JoinSegments concatenates segment texts into a single transcript document.
func JoinSegments(segments []TranscriptSegment) string {
	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0].Text
	}
	n := 0
	for _, seg := range segments {
		n += len(seg.Text) + 1
	}
	b := make([]byte, 0, n)
	for i, seg := range segments {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, seg.Text...)
	}
	return string(b)
}
