package dto

import (
	"time"

	"funnel/internal/domain/founder"
	"funnel/internal/domain/vc"

	"github.com/google/uuid"
)

type AnalysisResponse struct {
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	ViabilityScore int      `json:"viabilityScore"`
	Summary        string   `json:"summary"`
}

type FounderProfileResponse struct {
	ID          uuid.UUID         `json:"id"`
	StartupName string            `json:"startupName"`
	Sector      string            `json:"sector"`
	AskAmount   int64             `json:"askAmount"`
	DeckLink    string            `json:"deckLink"`
	Analysis    *AnalysisResponse `json:"analysis"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func NewFounderProfileResponse(p founder.Profile) FounderProfileResponse {
	res := FounderProfileResponse{
		ID:          p.ID,
		StartupName: p.StartupName,
		Sector:      p.Sector,
		AskAmount:   p.AskAmount,
		DeckLink:    p.DeckLink,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Analysis != nil {
		res.Analysis = &AnalysisResponse{
			Strengths:      nonNil(p.Analysis.Strengths),
			Weaknesses:     nonNil(p.Analysis.Weaknesses),
			ViabilityScore: p.Analysis.ViabilityScore,
			Summary:        p.Analysis.Summary,
		}
	}
	return res
}

// PublicVCResponse is what anyone may see of a VC.
type PublicVCResponse struct {
	ID       uuid.UUID `json:"id"`
	FirmName string    `json:"firmName"`
	Slug     string    `json:"slug"`
	Thesis   string    `json:"thesis"`
	Sectors  []string  `json:"sectors"`
	MinCheck int64     `json:"minCheck"`
	MaxCheck int64     `json:"maxCheck"`
}

func NewPublicVCResponse(p vc.Profile) PublicVCResponse {
	return PublicVCResponse{
		ID:       p.ID,
		FirmName: p.FirmName,
		Slug:     p.Slug,
		Thesis:   p.Thesis,
		Sectors:  nonNil(p.Sectors),
		MinCheck: p.MinCheck,
		MaxCheck: p.MaxCheck,
	}
}

type VCProfileSavedResponse struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
}
