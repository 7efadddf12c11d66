package model

import (
	"fmt"
)

// Recommendation is a ranked market entity.
type Recommendation struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// String returns a string representation of the Recommendation.
func (r Recommendation) String() string {
	return fmt.Sprintf("%s(%.6f)", r.ID, r.Score)
}

// MatchStats reports how many of the requested portfolio ids were found in
// the fitted corpus. It is computed per call and never stored on a model.
type MatchStats struct {
	Found int `json:"found"`
	Total int `json:"total"`
}

// Ratio returns Found/Total, or 0 for an empty request.
func (s MatchStats) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Found) / float64(s.Total)
}

// String returns a string representation of the MatchStats.
func (s MatchStats) String() string {
	return fmt.Sprintf("%d/%d", s.Found, s.Total)
}

// Corpus is the encoded market: IDs[i] is described by Contents[i].
type Corpus struct {
	IDs      []string
	Contents []string
}

// Len returns the number of documents.
func (c Corpus) Len() int {
	return len(c.IDs)
}

// Validate checks alignment and id uniqueness.
func (c Corpus) Validate() error {
	if len(c.IDs) != len(c.Contents) {
		return NewSchemaError("", "corpus misaligned: %d ids, %d contents", len(c.IDs), len(c.Contents))
	}
	if len(c.IDs) == 0 {
		return NewSchemaError("", "corpus is empty")
	}
	seen := make(map[string]struct{}, len(c.IDs))
	for _, id := range c.IDs {
		if id == "" {
			return NewSchemaError("", "empty id")
		}
		if _, ok := seen[id]; ok {
			return NewSchemaError("", "duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
