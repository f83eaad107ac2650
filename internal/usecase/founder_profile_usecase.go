package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"funnel/internal/access"
	"funnel/internal/domain/founder"
	"funnel/internal/domain/sector"
	"funnel/internal/domain/user"
	"funnel/internal/infrastructure/extractor"
	"funnel/internal/oracle"
	"funnel/internal/repository"

	"go.uber.org/zap"
)

const uploadedDeckBaseURL = "https://funnel.vc/uploads/"

type DeckExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (extractor.Document, error)
}

type DeckFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// DeckFile is an uploaded deck. Only its extracted text is kept.
type DeckFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type FounderProfileInput struct {
	StartupName string
	Sector      string
	AskAmount   int64
	DeckLink    string
	// File, when set, replaces fetching DeckLink.
	File *DeckFile
}

type FounderProfileUsecase interface {
	SaveProfile(ctx context.Context, id access.Identity, in FounderProfileInput) (founder.Profile, error)
	GetProfile(ctx context.Context, id access.Identity) (founder.Profile, error)
}

type FounderProfile struct {
	profiles  repository.FounderProfileRepository
	extractor DeckExtractor
	fetcher   DeckFetcher
	analyst   oracle.Analyst
	sectors   *sector.Taxonomy
	policy    access.Policy
	timeout   time.Duration
	logger    *zap.Logger
}

func NewFounderProfileUsecase(
	profiles repository.FounderProfileRepository,
	ex DeckExtractor,
	fetcher DeckFetcher,
	analyst oracle.Analyst,
	sectors *sector.Taxonomy,
	oracleTimeout time.Duration,
	logger *zap.Logger,
) *FounderProfile {
	if sectors == nil {
		sectors = sector.Default()
	}
	if oracleTimeout <= 0 {
		oracleTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FounderProfile{
		profiles:  profiles,
		extractor: ex,
		fetcher:   fetcher,
		analyst:   analyst,
		sectors:   sectors,
		policy:    access.NewPolicy(),
		timeout:   oracleTimeout,
		logger:    logger.Named("founder_profile"),
	}
}

// SaveProfile extracts the deck, screens it with the oracle and upserts the
// caller's profile. Nothing is written when the deck cannot be read; a failed
// screening only leaves the analysis empty.
func (u *FounderProfile) SaveProfile(ctx context.Context, id access.Identity, in FounderProfileInput) (founder.Profile, error) {
	if err := u.policy.RequireRole(id, user.RoleFounder); err != nil {
		return founder.Profile{}, accessError(err)
	}

	p, err := u.validate(in)
	if err != nil {
		return founder.Profile{}, err
	}
	p.UserID = id.UserID

	doc, err := u.readDeck(ctx, in, p.DeckLink)
	if err != nil {
		u.logger.Warn("deck extraction failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return founder.Profile{}, ErrExtraction
	}

	p.DeckText, err = founder.EncodeDeck(founder.Deck{FullText: doc.FullText, Pages: doc.Pages})
	if err != nil {
		return founder.Profile{}, ErrInternal
	}
	p.Analysis = u.analyze(ctx, p, doc.FullText)

	saved, err := u.profiles.UpsertFounderProfile(ctx, id, p)
	if err != nil {
		if errors.Is(err, access.ErrUnauthenticated) || errors.Is(err, access.ErrForbidden) {
			return founder.Profile{}, accessError(err)
		}
		u.logger.Error("upsert founder profile failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return founder.Profile{}, ErrInternal
	}
	return saved, nil
}

func (u *FounderProfile) GetProfile(ctx context.Context, id access.Identity) (founder.Profile, error) {
	if err := u.policy.RequireRole(id, user.RoleFounder); err != nil {
		return founder.Profile{}, accessError(err)
	}
	p, err := u.profiles.GetFounderProfile(ctx, id, id.UserID)
	if err != nil {
		switch {
		case errors.Is(err, founder.ErrNotFound):
			return founder.Profile{}, ErrFounderNotFound
		case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, access.ErrForbidden):
			return founder.Profile{}, accessError(err)
		}
		u.logger.Error("load founder profile failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return founder.Profile{}, ErrInternal
	}
	return p, nil
}

func (u *FounderProfile) validate(in FounderProfileInput) (founder.Profile, error) {
	var verr ValidationError
	p := founder.Profile{
		StartupName: strings.TrimSpace(in.StartupName),
		AskAmount:   in.AskAmount,
		DeckLink:    strings.TrimSpace(in.DeckLink),
	}

	if p.StartupName == "" {
		verr.add("startupName", "Startup name is required")
	}
	if strings.TrimSpace(in.Sector) == "" {
		verr.add("sector", "Sector is required")
	} else if c, ok := u.sectors.Canonical(in.Sector); ok {
		p.Sector = c
	} else {
		verr.add("sector", "Unknown sector")
	}
	if p.AskAmount <= 0 {
		verr.add("askAmount", "Ask amount must be a positive number")
	}

	if in.File != nil {
		name := strings.TrimSpace(in.File.Filename)
		if name == "" || len(in.File.Data) == 0 {
			verr.add("file", "No file uploaded")
		}
		p.DeckLink = uploadedDeckBaseURL + name
	} else if !isHTTPURL(p.DeckLink) {
		verr.add("deckLink", "Must be a valid URL")
	}

	if err := verr.err(); err != nil {
		return founder.Profile{}, err
	}
	return p, nil
}

func (u *FounderProfile) readDeck(ctx context.Context, in FounderProfileInput, link string) (extractor.Document, error) {
	if u.extractor == nil {
		return extractor.Document{}, errors.New("deck extractor not configured")
	}
	if in.File != nil {
		return u.extractor.Extract(ctx, in.File.Data, in.File.ContentType)
	}
	if u.fetcher == nil {
		return extractor.Document{}, errors.New("deck fetcher not configured")
	}
	data, contentType, err := u.fetcher.Fetch(ctx, link)
	if err != nil {
		return extractor.Document{}, err
	}
	return u.extractor.Extract(ctx, data, contentType)
}

func (u *FounderProfile) analyze(ctx context.Context, p founder.Profile, text string) *founder.Analysis {
	if u.analyst == nil {
		return nil
	}
	octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()

	a, err := u.analyst.AnalyzeDeck(octx, oracle.DeckRequest{
		Sector:    p.Sector,
		AskAmount: p.AskAmount,
		Text:      text,
	})
	if err != nil {
		u.logger.Warn("deck analysis failed; saving without it", zap.String("user_id", p.UserID.String()), zap.Error(err))
		return nil
	}
	return &a
}
