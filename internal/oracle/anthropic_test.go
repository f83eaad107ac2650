package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolResponse(name string, input string) string {
	return `{"content":[{"type":"tool_use","id":"toolu_1","name":"` + name + `","input":` + input + `}],"stop_reason":"tool_use"}`
}

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "test-model"}, nil)
	require.NoError(t, err)
	return c
}

func TestAnthropic_RankCandidatesForcesTool(t *testing.T) {
	var got anthropicRequest
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = io.WriteString(w, toolResponse("submit_rankings",
			`{"rankings":[{"vcId":"a","score":91,"reason":"thesis fit"}]}`))
	})

	out, err := c.RankCandidates(context.Background(), RankRequest{
		FounderSummary: "Name: Acme",
		Candidates:     []Candidate{{ID: "a", FirmName: "Alpha", Thesis: "fintech"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Ranking{{VCID: "a", Score: 91, Reason: "thesis fit"}}, out)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, anthropicToolChoice{Type: "tool", Name: "submit_rankings"}, got.ToolChoice)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "object", got.Tools[0].InputSchema["type"])
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "ID: a\nFirm: Alpha\nThesis: fintech")
}

func TestAnthropic_JudgePitch(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, toolResponse("submit_verdict",
			`{"isMatch":true,"memo":"Strong fit.","analysis":{"strengths":["team"],"weaknesses":[]}}`))
	})

	v, err := c.JudgePitch(context.Background(), PitchRequest{FounderContent: "deck", Thesis: "seed"})
	require.NoError(t, err)
	assert.True(t, v.IsMatch)
	assert.Equal(t, "Strong fit.", v.Memo)
	assert.Equal(t, []string{"team"}, v.Analysis.Strengths)
	assert.Equal(t, []string{}, v.Analysis.Weaknesses)
}

func TestAnthropic_NoToolCallIsMalformed(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"I think they match."}],"stop_reason":"end_turn"}`)
	})

	_, err := c.JudgePitch(context.Background(), PitchRequest{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAnthropic_ErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(529)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	})

	_, err := c.RankCandidates(context.Background(), RankRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "529")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnthropic_HonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.RankCandidates(ctx, RankRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(AnthropicConfig{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
