package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"funnel/internal/domain/founder"

	"google.golang.org/genai"
)

// MaxDeckChars bounds deck text sent in any single prompt.
const MaxDeckChars = 50000

const (
	OpRank    = "rank"
	OpPitch   = "pitch"
	OpAnalyze = "analyze"
)

// task is one structured-output call: the tool/schema the model must fill.
type task struct {
	name        string
	description string
	system      string
	schema      *genai.Schema
}

var rankTask = task{
	name:        "submit_rankings",
	description: "Submit a thesis-fit score and reason for every candidate firm.",
	system: "You are an expert Deal Flow Manager. Your job is to match a specific startup " +
		"with the most relevant investors based on their detailed investment thesis.",
	schema: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"rankings": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"vcId":   {Type: genai.TypeString},
						"score":  {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)},
						"reason": {Type: genai.TypeString},
					},
					Required: []string{"vcId", "score", "reason"},
				},
			},
		},
		Required: []string{"rankings"},
	},
}

var pitchTask = task{
	name:        "submit_verdict",
	description: "Submit the match verdict for this pitch.",
	system: "You are an AI assistant specialized in venture capital deal flow. Your task is to " +
		"critically assess the fit between a startup's pitch and a VC's investment thesis. " +
		"Be objective and concise.",
	schema: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isMatch":  {Type: genai.TypeBoolean},
			"memo":     {Type: genai.TypeString},
			"analysis": analysisSchema(false),
		},
		Required: []string{"isMatch", "memo", "analysis"},
	},
}

var deckTask = task{
	name:        "submit_investment_memo",
	description: "Submit the screening memo for this deck.",
	system: `You are a General Partner at a Tier 1 Venture Capital firm.
Your job is to screen incoming deal flow. You are highly selective, skeptical and data-driven.
Ignore marketing fluff and look for:
1. Urgent, painful problems.
2. Non-obvious insights.
3. Structural advantages (network effects, proprietary tech, high switching costs).
4. Evidence of product-market fit (retention, organic growth).

You are grading this startup on its potential to return the fund. Be harsh; most startups fail.`,
	schema: analysisSchema(true),
}

func analysisSchema(memo bool) *genai.Schema {
	s := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"strengths":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"weaknesses": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"strengths", "weaknesses"},
	}
	if memo {
		s.Properties["viabilityScore"] = &genai.Schema{Type: genai.TypeInteger, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(100.0)}
		s.Properties["summary"] = &genai.Schema{Type: genai.TypeString}
		s.Required = append(s.Required, "viabilityScore", "summary")
	}
	return s
}

func rankPrompt(req RankRequest) string {
	var vcs []string
	for _, c := range req.Candidates {
		vcs = append(vcs, fmt.Sprintf("ID: %s\nFirm: %s\nThesis: %s\n", c.ID, c.FirmName, c.Thesis))
	}
	return fmt.Sprintf(`Task: Rank these Venture Capital firms based on their likelihood to invest in this startup.

STARTUP CONTEXT:
%s

CANDIDATE VCs:
%s

INSTRUCTIONS:
- Assign a "score" (0-100) based on thesis fit.
- Provide a brief "reason" explaining the specific fit or misalignment.
- Be discerning. A generic match should be ~70. A thesis match should be >85.
- Return the results for ALL provided candidates, using each candidate's ID as "vcId".`,
		req.FounderSummary, strings.Join(vcs, "\n---\n"))
}

func pitchPrompt(req PitchRequest) string {
	return fmt.Sprintf(`Startup Pitch Deck Content:
"""
%s
"""

VC Investment Thesis:
"""
%s
"""

Based on the startup's content and the VC's thesis, determine if there is a strong, viable match.
- "isMatch": true if there's a strong fit, false otherwise.
- "memo": a concise explanation (1-2 sentences) of the match/no-match decision.
- "analysis": relevant strengths and weaknesses of the match.`,
		founder.Truncate(req.FounderContent, MaxDeckChars), req.Thesis)
}

func deckPrompt(req DeckRequest) string {
	return fmt.Sprintf(`Analyze the following pitch deck text for a startup in the %q sector raising $%d.

DECK TEXT:
"""
%s
"""

TASK:
Provide a critical investment memo.

GUIDELINES:
- Strengths: specific unfair advantages, not generic statements like "large market".
- Weaknesses: fatal flaws, competitive risks, or unit economic challenges.
- Viability Score: 0-100. (<60 is a pass, 60-80 is interesting, >80 is a hot deal). Be conservative.
- Summary: a 2-sentence thesis on why we should or should not take a meeting.`,
		req.Sector, req.AskAmount, founder.Truncate(req.Text, MaxDeckChars))
}

// jsonSchema renders s as a plain JSON Schema object (lower-case types).
func jsonSchema(s *genai.Schema) map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": strings.ToLower(string(s.Type))}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	if s.Items != nil {
		out["items"] = jsonSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = jsonSchema(v)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func decodeRankings(raw []byte) ([]Ranking, error) {
	var out struct {
		Rankings *[]Ranking `json:"rankings"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Rankings == nil {
		return nil, fmt.Errorf("%w: missing rankings", ErrMalformedResponse)
	}
	for _, r := range *out.Rankings {
		if strings.TrimSpace(r.VCID) == "" {
			return nil, fmt.Errorf("%w: ranking without vcId", ErrMalformedResponse)
		}
	}
	return *out.Rankings, nil
}

func decodeVerdict(raw []byte) (Verdict, error) {
	var out struct {
		IsMatch  *bool         `json:"isMatch"`
		Memo     string        `json:"memo"`
		Analysis MatchAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.IsMatch == nil {
		return Verdict{}, fmt.Errorf("%w: missing isMatch", ErrMalformedResponse)
	}
	v := Verdict{IsMatch: *out.IsMatch, Memo: out.Memo, Analysis: out.Analysis}
	if v.Analysis.Strengths == nil {
		v.Analysis.Strengths = []string{}
	}
	if v.Analysis.Weaknesses == nil {
		v.Analysis.Weaknesses = []string{}
	}
	return v, nil
}

func decodeAnalysis(raw []byte) (founder.Analysis, error) {
	var out struct {
		Strengths      []string `json:"strengths"`
		Weaknesses     []string `json:"weaknesses"`
		ViabilityScore *float64 `json:"viabilityScore"`
		Summary        string   `json:"summary"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return founder.Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.ViabilityScore == nil || strings.TrimSpace(out.Summary) == "" {
		return founder.Analysis{}, fmt.Errorf("%w: incomplete memo", ErrMalformedResponse)
	}
	score := int(*out.ViabilityScore + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	a := founder.Analysis{
		Strengths:      out.Strengths,
		Weaknesses:     out.Weaknesses,
		ViabilityScore: score,
		Summary:        strings.TrimSpace(out.Summary),
	}
	if a.Strengths == nil {
		a.Strengths = []string{}
	}
	if a.Weaknesses == nil {
		a.Weaknesses = []string{}
	}
	return a, nil
}
