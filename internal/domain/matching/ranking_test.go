package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"funnel/internal/domain/founder"
	"funnel/internal/domain/vc"
	"funnel/internal/oracle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRanker struct {
	mu       sync.Mutex
	requests []oracle.RankRequest
	scores   map[string]float64
	err      error
	ctxErr   error
}

func (f *fakeRanker) RankCandidates(ctx context.Context, req oracle.RankRequest) ([]oracle.Ranking, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]oracle.Ranking, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		s, ok := f.scores[c.ID]
		if !ok {
			continue
		}
		out = append(out, oracle.Ranking{VCID: c.ID, Score: s, Reason: "fit " + c.FirmName})
	}
	return out, nil
}

func profiles(n int) []vc.Profile {
	out := make([]vc.Profile, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, vc.Profile{ID: uuid.New(), FirmName: fmt.Sprintf("vc-%02d", i), Thesis: "thesis"})
	}
	return out
}

func testFounder() founder.Profile {
	return founder.Profile{ID: uuid.New(), StartupName: "Acme", Sector: "Fintech", AskAmount: 500000}
}

func TestRank_SortsByScoreDescending(t *testing.T) {
	cands := profiles(3)
	fr := &fakeRanker{scores: map[string]float64{
		cands[0].ID.String(): 40,
		cands[1].ID.String(): 90,
		cands[2].ID.String(): 75,
	}}

	out := NewRanker(fr, time.Second, nil).Rank(context.Background(), testFounder(), cands)
	require.False(t, out.Degraded)
	require.Len(t, out.Results, 3)

	assert.Equal(t, []string{"vc-01", "vc-02", "vc-00"}, names(out.Results))
	assert.Equal(t, []int{90, 75, 40}, scores(out.Results))
	assert.Equal(t, "fit vc-01", out.Results[0].Reason)
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	cands := profiles(5)
	sc := map[string]float64{}
	for _, c := range cands {
		sc[c.ID.String()] = 80
	}
	sc[cands[3].ID.String()] = 95

	out := NewRanker(&fakeRanker{scores: sc}, time.Second, nil).Rank(context.Background(), testFounder(), cands)
	assert.Equal(t, []string{"vc-03", "vc-00", "vc-01", "vc-02", "vc-04"}, names(out.Results))
}

func TestRank_MissingEntriesScoreZero(t *testing.T) {
	cands := profiles(3)
	fr := &fakeRanker{scores: map[string]float64{cands[2].ID.String(): 60}}

	out := NewRanker(fr, time.Second, nil).Rank(context.Background(), testFounder(), cands)
	require.Len(t, out.Results, 3)
	assert.Equal(t, []int{60, 0, 0}, scores(out.Results))
	assert.Empty(t, out.Results[1].Reason)
	assert.True(t, out.Results[1].Scored)
}

func TestRank_TruncatesAtTwentyAndKeepsTail(t *testing.T) {
	cands := profiles(25)
	sc := map[string]float64{}
	for _, c := range cands {
		sc[c.ID.String()] = 50
	}
	fr := &fakeRanker{scores: sc}

	out := NewRanker(fr, time.Second, nil).Rank(context.Background(), testFounder(), cands)

	require.Len(t, fr.requests, 1)
	require.Len(t, fr.requests[0].Candidates, MaxOracleCandidates)
	assert.Equal(t, cands[19].ID.String(), fr.requests[0].Candidates[19].ID)

	require.Len(t, out.Results, 25)
	for i := 0; i < 20; i++ {
		assert.True(t, out.Results[i].Scored)
		assert.Equal(t, 50, out.Results[i].Score)
	}
	for i := 20; i < 25; i++ {
		assert.False(t, out.Results[i].Scored)
		assert.Equal(t, 0, out.Results[i].Score)
		assert.Equal(t, cands[i].ID, out.Results[i].VC.ID)
	}
}

func TestRank_LengthPreservedUpToCap(t *testing.T) {
	for n := 0; n <= MaxOracleCandidates; n++ {
		out := NewRanker(&fakeRanker{}, time.Second, nil).Rank(context.Background(), testFounder(), profiles(n))
		require.Lenf(t, out.Results, n, "n=%d", n)
	}
}

func TestRank_OracleFailureFallsBack(t *testing.T) {
	cands := profiles(22)
	fr := &fakeRanker{err: errors.New("upstream 529")}

	out := NewRanker(fr, time.Second, nil).Rank(context.Background(), testFounder(), cands)
	require.True(t, out.Degraded)
	require.Error(t, out.Cause)
	require.Len(t, out.Results, 22)
	for i, r := range out.Results {
		assert.Equal(t, FallbackScore, r.Score)
		assert.Equal(t, FallbackReason, r.Reason)
		assert.Equal(t, cands[i].ID, r.VC.ID)
	}
}

func TestRank_NilOracleFallsBack(t *testing.T) {
	out := NewRanker(nil, time.Second, nil).Rank(context.Background(), testFounder(), profiles(2))
	require.True(t, out.Degraded)
	assert.ErrorIs(t, out.Cause, oracle.ErrNotConfigured)
}

func TestRank_TimeoutFallsBack(t *testing.T) {
	blocking := rankerFunc(func(ctx context.Context, _ oracle.RankRequest) ([]oracle.Ranking, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	out := NewRanker(blocking, 20*time.Millisecond, nil).Rank(context.Background(), testFounder(), profiles(1))
	require.True(t, out.Degraded)
	assert.ErrorIs(t, out.Cause, context.DeadlineExceeded)
}

func TestRank_CallerCancellationDoesNotAbortOracle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cands := profiles(1)
	fr := &fakeRanker{scores: map[string]float64{cands[0].ID.String(): 88}}
	out := NewRanker(fr, time.Second, nil).Rank(ctx, testFounder(), cands)

	require.False(t, out.Degraded)
	assert.NoError(t, fr.ctxErr)
	assert.Equal(t, 88, out.Results[0].Score)
}

func TestRank_SendsFounderSummaryAndCandidateFields(t *testing.T) {
	cands := profiles(1)
	cands[0].Thesis = "Seed fintech in LATAM"
	fr := &fakeRanker{}

	f := testFounder()
	f.Analysis = &founder.Analysis{Summary: "Card issuing for SMBs."}
	NewRanker(fr, time.Second, nil).Rank(context.Background(), f, cands)

	require.Len(t, fr.requests, 1)
	req := fr.requests[0]
	assert.Equal(t, "Name: Acme, Sector: Fintech, Ask: $500000.\nSummary: Card issuing for SMBs.", req.FounderSummary)
	assert.Equal(t, oracle.Candidate{ID: cands[0].ID.String(), FirmName: "vc-00", Thesis: "Seed fintech in LATAM"}, req.Candidates[0])
}

func TestRank_EmptyCandidatesSkipsOracle(t *testing.T) {
	fr := &fakeRanker{}
	out := NewRanker(fr, time.Second, nil).Rank(context.Background(), testFounder(), nil)
	assert.Empty(t, out.Results)
	assert.NotNil(t, out.Results)
	assert.Empty(t, fr.requests)
}

func TestMerge_ClampsScoresAndIgnoresUnknownIDs(t *testing.T) {
	cands := profiles(2)
	got := Merge(cands, 2, []oracle.Ranking{
		{VCID: cands[0].ID.String(), Score: 140},
		{VCID: cands[1].ID.String(), Score: -3},
		{VCID: uuid.NewString(), Score: 99},
	})
	assert.Equal(t, []int{100, 0}, scores(got))
}

type rankerFunc func(ctx context.Context, req oracle.RankRequest) ([]oracle.Ranking, error)

func (f rankerFunc) RankCandidates(ctx context.Context, req oracle.RankRequest) ([]oracle.Ranking, error) {
	return f(ctx, req)
}

func names(rs []Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.VC.FirmName)
	}
	return out
}

func scores(rs []Result) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Score)
	}
	return out
}
