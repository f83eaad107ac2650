package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"funnel/internal/domain/founder"
	"funnel/internal/domain/vc"
	"funnel/internal/oracle"

	"go.uber.org/zap"
)

const (
	MaxOracleCandidates = 20
	MaxSummaryExcerpt   = 1000
	FallbackScore       = 70
	FallbackReason      = "Matches your sector and check size."
	DefaultOracleWait   = 30 * time.Second
)

type Result struct {
	VC     vc.Profile
	Score  int
	Reason string
	// Scored is false for candidates past the oracle cap.
	Scored bool
}

type Outcome struct {
	Results []Result
	// Degraded is set when the oracle failed and every candidate carries the
	// fallback score.
	Degraded bool
	Cause    error
}

type Ranker struct {
	oracle  oracle.Ranker
	timeout time.Duration
	logger  *zap.Logger
}

func NewRanker(o oracle.Ranker, timeout time.Duration, logger *zap.Logger) *Ranker {
	if timeout <= 0 {
		timeout = DefaultOracleWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{oracle: o, timeout: timeout, logger: logger}
}

// Rank orders hard-filtered candidates by oracle score. The first
// MaxOracleCandidates are scored; the rest follow unscored. Ties keep input
// order. An oracle failure never reaches the caller: every candidate gets
// FallbackScore instead.
func (r *Ranker) Rank(ctx context.Context, f founder.Profile, candidates []vc.Profile) Outcome {
	if len(candidates) == 0 {
		return Outcome{Results: []Result{}}
	}

	head := candidates
	if len(head) > MaxOracleCandidates {
		head = candidates[:MaxOracleCandidates]
	}

	req := oracle.RankRequest{
		FounderSummary: f.RankingSummary(MaxSummaryExcerpt),
		Candidates:     make([]oracle.Candidate, 0, len(head)),
	}
	for _, c := range head {
		req.Candidates = append(req.Candidates, oracle.Candidate{
			ID:       c.ID.String(),
			FirmName: c.FirmName,
			Thesis:   c.Thesis,
		})
	}

	rankings, err := r.call(ctx, req)
	if err != nil {
		r.logger.Warn("ranking degraded, using fallback scores",
			zap.String("founder_id", f.ID.String()),
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return Outcome{Results: fallback(candidates), Degraded: true, Cause: err}
	}

	return Outcome{Results: Merge(candidates, len(head), rankings)}
}

// The oracle call is detached from caller cancellation: an aborted request
// lets the call finish and drops the result. It is still bounded by timeout.
func (r *Ranker) call(ctx context.Context, req oracle.RankRequest) ([]oracle.Ranking, error) {
	if r.oracle == nil {
		return nil, oracle.ErrNotConfigured
	}
	octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	return r.oracle.RankCandidates(octx, req)
}

// Merge joins oracle rankings onto candidates by id. The first scoredCount
// candidates were sent to the oracle; one missing from rankings scores 0 with
// no reason. The result is stably sorted by score, descending.
func Merge(candidates []vc.Profile, scoredCount int, rankings []oracle.Ranking) []Result {
	byID := make(map[string]oracle.Ranking, len(rankings))
	for _, rk := range rankings {
		if _, dup := byID[rk.VCID]; dup {
			continue
		}
		byID[rk.VCID] = rk
	}

	out := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		res := Result{VC: c}
		if i < scoredCount {
			res.Scored = true
			if rk, ok := byID[c.ID.String()]; ok {
				res.Score = clampScore(rk.Score)
				res.Reason = rk.Reason
			}
		}
		out = append(out, res)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func fallback(candidates []vc.Profile) []Result {
	out := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Result{VC: c, Score: FallbackScore, Reason: FallbackReason, Scored: true})
	}
	return out
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	s := int(math.Round(v))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
