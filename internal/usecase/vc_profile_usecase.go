package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"funnel/internal/access"
	"funnel/internal/domain/sector"
	"funnel/internal/domain/user"
	"funnel/internal/domain/vc"
	"funnel/internal/repository"

	"go.uber.org/zap"
)

const publicVCTTL = 10 * time.Minute

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

type VCProfileInput struct {
	FirmName      string
	Slug          string
	Thesis        string
	Sectors       []string
	MinCheck      int64
	MaxCheck      int64
	MondayBoardID string
}

type VCProfileUsecase interface {
	SaveProfile(ctx context.Context, id access.Identity, in VCProfileInput) (vc.Profile, error)
	GetPublicBySlug(ctx context.Context, slug string) (vc.Profile, error)
}

type VCProfile struct {
	profiles repository.VCProfileRepository
	cache    ProfileCache
	sectors  *sector.Taxonomy
	policy   access.Policy
	logger   *zap.Logger
}

func NewVCProfileUsecase(profiles repository.VCProfileRepository, cache ProfileCache, sectors *sector.Taxonomy, logger *zap.Logger) *VCProfile {
	if sectors == nil {
		sectors = sector.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VCProfile{
		profiles: profiles,
		cache:    cache,
		sectors:  sectors,
		policy:   access.NewPolicy(),
		logger:   logger.Named("vc_profile"),
	}
}

func (u *VCProfile) SaveProfile(ctx context.Context, id access.Identity, in VCProfileInput) (vc.Profile, error) {
	if err := u.policy.RequireRole(id, user.RoleVC); err != nil {
		return vc.Profile{}, accessError(err)
	}

	p, err := u.validate(in)
	if err != nil {
		return vc.Profile{}, err
	}
	p.UserID = id.UserID

	saved, err := u.profiles.UpsertVCProfile(ctx, id, p)
	if err != nil {
		switch {
		case errors.Is(err, vc.ErrSlugTaken):
			return vc.Profile{}, ErrSlugTaken
		case errors.Is(err, repository.ErrInvalidCheckRange):
			return vc.Profile{}, &ValidationError{Fields: []FieldError{{Field: "minCheck", Message: "Minimum check cannot exceed maximum check"}}}
		case errors.Is(err, access.ErrUnauthenticated), errors.Is(err, access.ErrForbidden):
			return vc.Profile{}, accessError(err)
		}
		u.logger.Error("upsert vc profile failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
		return vc.Profile{}, ErrInternal
	}

	// The slug may have changed, so every cached page is suspect.
	if u.cache != nil {
		if err := u.cache.DeleteByPattern(ctx, publicVCKeyPrefix+"*"); err != nil {
			u.logger.Warn("invalidate public vc cache failed", zap.Error(err))
		}
	}
	return saved, nil
}

// GetPublicBySlug serves the public VC page; cache errors fall through to
// the store.
func (u *VCProfile) GetPublicBySlug(ctx context.Context, slug string) (vc.Profile, error) {
	slug = strings.TrimSpace(slug)
	if !slugRe.MatchString(slug) {
		return vc.Profile{}, ErrVCNotFound
	}
	key := PublicVCCacheKey(slug)

	if u.cache != nil {
		var cached vc.Profile
		if ok, err := u.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	p, err := u.profiles.GetVCProfileBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, vc.ErrNotFound) {
			return vc.Profile{}, ErrVCNotFound
		}
		u.logger.Error("load vc profile failed", zap.String("slug", slug), zap.Error(err))
		return vc.Profile{}, ErrInternal
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, p, publicVCTTL); err != nil {
			u.logger.Warn("cache public vc failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return p, nil
}

func (u *VCProfile) validate(in VCProfileInput) (vc.Profile, error) {
	var verr ValidationError
	p := vc.Profile{
		FirmName: strings.TrimSpace(in.FirmName),
		Slug:     strings.TrimSpace(in.Slug),
		Thesis:   strings.TrimSpace(in.Thesis),
		MinCheck: in.MinCheck,
		MaxCheck: in.MaxCheck,
	}
	if board := strings.TrimSpace(in.MondayBoardID); board != "" {
		p.MondayBoardID = &board
	}

	if p.FirmName == "" {
		verr.add("firmName", "Firm name is required")
	}
	if !slugRe.MatchString(p.Slug) {
		verr.add("slug", "Lowercase letters, numbers, and hyphens only")
	}
	if p.Thesis == "" {
		verr.add("thesis", "Thesis is required")
	}

	sectors, unknown := u.sectors.CanonicalSet(in.Sectors)
	switch {
	case len(unknown) > 0:
		verr.add("sectors", "Unknown sector: "+strings.Join(unknown, ", "))
	case len(sectors) == 0:
		verr.add("sectors", "Please select at least one sector")
	}
	p.Sectors = sectors

	if p.MinCheck < 0 {
		verr.add("minCheck", "Minimum check cannot be negative")
	}
	if p.MinCheck > p.MaxCheck {
		verr.add("minCheck", "Minimum check cannot exceed maximum check")
	}

	if err := verr.err(); err != nil {
		return vc.Profile{}, err
	}
	return p, nil
}
