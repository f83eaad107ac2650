package dto

import "funnel/internal/oracle"

type PitchAnalysisResponse struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type PitchResponse struct {
	IsMatch  bool                  `json:"isMatch"`
	Memo     string                `json:"memo"`
	Analysis PitchAnalysisResponse `json:"analysis"`
}

func NewPitchResponse(v oracle.Verdict) PitchResponse {
	return PitchResponse{
		IsMatch: v.IsMatch,
		Memo:    v.Memo,
		Analysis: PitchAnalysisResponse{
			Strengths:  nonNil(v.Analysis.Strengths),
			Weaknesses: nonNil(v.Analysis.Weaknesses),
		},
	}
}
