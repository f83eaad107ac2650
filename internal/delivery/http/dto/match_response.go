package dto

import (
	"funnel/internal/domain/matching"

	"github.com/google/uuid"
)

type MatchResponse struct {
	ID          uuid.UUID `json:"id"`
	FirmName    string    `json:"firmName"`
	Slug        string    `json:"slug"`
	Thesis      string    `json:"thesis"`
	Sectors     []string  `json:"sectors"`
	MinCheck    int64     `json:"minCheck"`
	MaxCheck    int64     `json:"maxCheck"`
	MatchScore  int       `json:"matchScore"`
	MatchReason string    `json:"matchReason"`
	Scored      bool      `json:"scored"`
}

type MatchListResponse struct {
	Matches  []MatchResponse `json:"matches"`
	Degraded bool            `json:"degraded"`
}

func NewMatchListResponse(out matching.Outcome) MatchListResponse {
	res := MatchListResponse{
		Matches:  make([]MatchResponse, 0, len(out.Results)),
		Degraded: out.Degraded,
	}
	for _, r := range out.Results {
		res.Matches = append(res.Matches, MatchResponse{
			ID:          r.VC.ID,
			FirmName:    r.VC.FirmName,
			Slug:        r.VC.Slug,
			Thesis:      r.VC.Thesis,
			Sectors:     nonNil(r.VC.Sectors),
			MinCheck:    r.VC.MinCheck,
			MaxCheck:    r.VC.MaxCheck,
			MatchScore:  r.Score,
			MatchReason: r.Reason,
			Scored:      r.Scored,
		})
	}
	return res
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
