package oracle

import (
	"context"

	"funnel/internal/domain/founder"
)

// Observer receives the outcome of every oracle call.
type Observer func(op string, err error)

type instrumented struct {
	next    Client
	observe Observer
}

// Instrument wraps c so each call is reported to observe.
func Instrument(c Client, observe Observer) Client {
	if c == nil || observe == nil {
		return c
	}
	return &instrumented{next: c, observe: observe}
}

func (i *instrumented) RankCandidates(ctx context.Context, req RankRequest) ([]Ranking, error) {
	out, err := i.next.RankCandidates(ctx, req)
	i.observe(OpRank, err)
	return out, err
}

func (i *instrumented) JudgePitch(ctx context.Context, req PitchRequest) (Verdict, error) {
	out, err := i.next.JudgePitch(ctx, req)
	i.observe(OpPitch, err)
	return out, err
}

func (i *instrumented) AnalyzeDeck(ctx context.Context, req DeckRequest) (founder.Analysis, error) {
	out, err := i.next.AnalyzeDeck(ctx, req)
	i.observe(OpAnalyze, err)
	return out, err
}
