package domain

import "time"

// OpinionSnapshot is one versioned export from the external clustering
// engine: per-comment priority scores plus group memberships. The engine is
// polled by version number, never pushed, so consumers compare Version to
// decide freshness.
type OpinionSnapshot struct {
	Version    int64
	Priorities map[int64]float64
	Groups     map[int32]int32 // pid -> group id
	ComputedAt time.Time
}

// PriorityFor returns the priority score for a comment, defaulting to 1
// when the snapshot carries no score for it. Scores are nonnegative.
func (s *OpinionSnapshot) PriorityFor(commentID int64) float64 {
	if s == nil {
		return 1
	}
	if p, ok := s.Priorities[commentID]; ok && p >= 0 {
		return p
	}
	return 1
}
