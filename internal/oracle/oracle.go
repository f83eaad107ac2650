// Package oracle is the boundary to the external LLM that scores thesis fit,
// judges pitches and screens decks. Callers treat it as an opaque function of
// its inputs: it returns typed results or an error, never partial output.
package oracle

import (
	"context"
	"errors"

	"funnel/internal/domain/founder"
)

var (
	ErrNotConfigured     = errors.New("oracle: not configured")
	ErrMalformedResponse = errors.New("oracle: malformed response")
)

type Candidate struct {
	ID       string
	FirmName string
	Thesis   string
}

type RankRequest struct {
	FounderSummary string
	Candidates     []Candidate
}

type Ranking struct {
	VCID   string  `json:"vcId"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type PitchRequest struct {
	FounderContent string
	Thesis         string
}

type MatchAnalysis struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type Verdict struct {
	IsMatch  bool          `json:"isMatch"`
	Memo     string        `json:"memo"`
	Analysis MatchAnalysis `json:"analysis"`
}

type DeckRequest struct {
	Sector    string
	AskAmount int64
	Text      string
}

type Ranker interface {
	RankCandidates(ctx context.Context, req RankRequest) ([]Ranking, error)
}

type Judge interface {
	JudgePitch(ctx context.Context, req PitchRequest) (Verdict, error)
}

type Analyst interface {
	AnalyzeDeck(ctx context.Context, req DeckRequest) (founder.Analysis, error)
}

// Client is the full oracle surface.
type Client interface {
	Ranker
	Judge
	Analyst
}
