package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProfileCache is the best-effort cache in front of public VC pages.
type ProfileCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Deduper grants a key once per ttl.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const (
	publicVCKeyPrefix = "vc:public:"
	pitchKeyPrefix    = "crm:pitch:"
)

func PublicVCCacheKey(slug string) string {
	return publicVCKeyPrefix + strings.ToLower(strings.TrimSpace(slug))
}

// PitchNotificationKey identifies one (vc, founder) notification.
func PitchNotificationKey(vcID, founderID uuid.UUID) string {
	return pitchKeyPrefix + vcID.String() + ":" + founderID.String()
}
