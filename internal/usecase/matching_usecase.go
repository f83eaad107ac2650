package usecase

import (
	"context"
	"errors"

	"funnel/internal/access"
	"funnel/internal/domain/founder"
	"funnel/internal/domain/matching"
	"funnel/internal/domain/user"
	"funnel/internal/domain/vc"
	"funnel/internal/repository"

	"go.uber.org/zap"
)

type MatchingMetrics interface {
	RankingFallback()
	MalformedSectors(n int)
}

type MatchingUsecase interface {
	FindMatches(ctx context.Context, id access.Identity) (matching.Outcome, error)
}

type Matching struct {
	founders repository.FounderProfileRepository
	vcs      repository.VCProfileRepository
	ranker   *matching.Ranker
	policy   access.Policy
	metrics  MatchingMetrics
	logger   *zap.Logger
}

func NewMatchingUsecase(
	founders repository.FounderProfileRepository,
	vcs repository.VCProfileRepository,
	ranker *matching.Ranker,
	metrics MatchingMetrics,
	logger *zap.Logger,
) *Matching {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matching{
		founders: founders,
		vcs:      vcs,
		ranker:   ranker,
		policy:   access.NewPolicy(),
		metrics:  metrics,
		logger:   logger.Named("matching"),
	}
}

// FindMatches hard-filters VCs for the caller's startup and ranks them. A
// founder without a profile gets an empty list. Oracle trouble degrades the
// ranking but never fails the request.
func (u *Matching) FindMatches(ctx context.Context, id access.Identity) (matching.Outcome, error) {
	if err := u.policy.RequireRole(id, user.RoleFounder); err != nil {
		return matching.Outcome{}, accessError(err)
	}

	f, err := u.founders.GetFounderProfile(ctx, id, id.UserID)
	if err != nil {
		if errors.Is(err, founder.ErrNotFound) {
			return matching.Outcome{Results: []matching.Result{}}, nil
		}
		u.logger.Error("load founder profile failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return matching.Outcome{}, ErrInternal
	}

	records, err := u.vcs.ListVCCandidates(ctx, vc.CandidateFilter{AskAmount: f.AskAmount})
	if err != nil {
		u.logger.Error("list vc candidates failed", zap.Int64("ask_amount", f.AskAmount), zap.Error(err))
		return matching.Outcome{}, ErrInternal
	}

	candidates, anomalies := matching.FilterCandidates(f, records)
	for _, a := range anomalies {
		u.logger.Warn("vc excluded: malformed sectors", zap.String("vc_id", a.VCID.String()), zap.Error(a.Err))
	}
	if u.metrics != nil {
		u.metrics.MalformedSectors(len(anomalies))
	}

	out := u.ranker.Rank(ctx, f, candidates)
	if out.Degraded && u.metrics != nil {
		u.metrics.RankingFallback()
	}
	return out, nil
}
