package founder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("founder profile not found")

// Analysis is the oracle's screening memo for a deck.
type Analysis struct {
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	ViabilityScore int      `json:"viabilityScore"`
	Summary        string   `json:"summary"`
}

// Deck is the extracted text of a pitch deck as stored in deck_text.
type Deck struct {
	FullText string `json:"fullText"`
	Pages    int    `json:"pages"`
}

type Profile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	StartupName string
	Sector      string
	AskAmount   int64
	DeckLink    string
	// DeckText holds the stored deck_text column: normally a JSON-encoded
	// Deck, but older rows may carry raw text.
	DeckText  string
	Analysis  *Analysis
	CreatedAt time.Time
	UpdatedAt time.Time
}

func EncodeDeck(d Deck) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deck decodes DeckText. Raw, non-JSON text is returned as the full text.
func (p Profile) Deck() (Deck, bool) {
	raw := strings.TrimSpace(p.DeckText)
	if raw == "" {
		return Deck{}, false
	}
	if strings.HasPrefix(raw, "{") {
		var d Deck
		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			return d, strings.TrimSpace(d.FullText) != ""
		}
	}
	return Deck{FullText: raw}, true
}

// RankingSummary is the bounded founder context sent with a ranking request:
// the analysis summary when present, otherwise an excerpt of the deck.
func (p Profile) RankingSummary(maxExcerpt int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s, Sector: %s, Ask: $%d.", p.StartupName, p.Sector, p.AskAmount)

	if p.Analysis != nil && strings.TrimSpace(p.Analysis.Summary) != "" {
		sb.WriteString("\nSummary: ")
		sb.WriteString(strings.TrimSpace(p.Analysis.Summary))
		return sb.String()
	}
	if d, ok := p.Deck(); ok {
		sb.WriteString("\nDeck Excerpt: ")
		sb.WriteString(Truncate(d.FullText, maxExcerpt))
		sb.WriteString("...")
	}
	return sb.String()
}

// PitchContent is the founder material judged against a VC thesis. Empty
// means the profile has nothing to pitch with.
func (p Profile) PitchContent(maxText int) string {
	if p.Analysis != nil && strings.TrimSpace(p.Analysis.Summary) != "" {
		return fmt.Sprintf("Startup Summary: %s\nStrengths: %s\nWeaknesses: %s",
			strings.TrimSpace(p.Analysis.Summary),
			strings.Join(p.Analysis.Strengths, ", "),
			strings.Join(p.Analysis.Weaknesses, ", "),
		)
	}
	if d, ok := p.Deck(); ok {
		return strings.TrimSpace(Truncate(d.FullText, maxText))
	}
	return ""
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
