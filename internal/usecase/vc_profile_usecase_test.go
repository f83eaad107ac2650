package usecase

import (
	"context"
	"fmt"
	"testing"

	"funnel/internal/domain/vc"
	"funnel/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVCInput() VCProfileInput {
	return VCProfileInput{
		FirmName:      "Acme Ventures",
		Slug:          "acme",
		Thesis:        "Seed fintech infrastructure",
		Sectors:       []string{"fintech", "B2B SaaS", "Fintech"},
		MinCheck:      100000,
		MaxCheck:      1000000,
		MondayBoardID: " 42 ",
	}
}

func TestSaveVCProfile_CanonicalisesAndInvalidates(t *testing.T) {
	id := vcIdentity()
	vcs := newFakeVCs()
	cache := &memCache{}
	uc := NewVCProfileUsecase(vcs, cache, nil, nil)

	got, err := uc.SaveProfile(context.Background(), id, validVCInput())
	require.NoError(t, err)

	assert.Equal(t, id.UserID, got.UserID)
	assert.Equal(t, []string{"Fintech", "B2B SaaS"}, got.Sectors)
	require.NotNil(t, got.MondayBoardID)
	assert.Equal(t, "42", *got.MondayBoardID)
	assert.Equal(t, []string{"vc:public:*"}, cache.deleted)
}

func TestSaveVCProfile_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(in *VCProfileInput)
		field string
	}{
		{"firm name", func(in *VCProfileInput) { in.FirmName = " " }, "firmName"},
		{"slug casing", func(in *VCProfileInput) { in.Slug = "Acme" }, "slug"},
		{"slug chars", func(in *VCProfileInput) { in.Slug = "acme vc" }, "slug"},
		{"thesis", func(in *VCProfileInput) { in.Thesis = "" }, "thesis"},
		{"no sectors", func(in *VCProfileInput) { in.Sectors = nil }, "sectors"},
		{"unknown sector", func(in *VCProfileInput) { in.Sectors = []string{"Basket Weaving"} }, "sectors"},
		{"min above max", func(in *VCProfileInput) { in.MinCheck, in.MaxCheck = 10, 5 }, "minCheck"},
		{"negative min", func(in *VCProfileInput) { in.MinCheck = -1 }, "minCheck"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vcs := newFakeVCs()
			in := validVCInput()
			tt.edit(&in)

			_, err := NewVCProfileUsecase(vcs, nil, nil, nil).SaveProfile(context.Background(), vcIdentity(), in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Empty(t, vcs.upserts)
		})
	}
}

func TestSaveVCProfile_EqualBoundsAllowed(t *testing.T) {
	in := validVCInput()
	in.MinCheck, in.MaxCheck = 250000, 250000

	_, err := NewVCProfileUsecase(newFakeVCs(), nil, nil, nil).SaveProfile(context.Background(), vcIdentity(), in)
	require.NoError(t, err)
}

func TestSaveVCProfile_StoreErrors(t *testing.T) {
	vcs := newFakeVCs()
	uc := NewVCProfileUsecase(vcs, nil, nil, nil)

	vcs.upsertErr = fmt.Errorf("upsert: %w", vc.ErrSlugTaken)
	_, err := uc.SaveProfile(context.Background(), vcIdentity(), validVCInput())
	require.ErrorIs(t, err, ErrSlugTaken)

	vcs.upsertErr = repository.ErrInvalidCheckRange
	_, err = uc.SaveProfile(context.Background(), vcIdentity(), validVCInput())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSaveVCProfile_FounderForbidden(t *testing.T) {
	_, err := NewVCProfileUsecase(newFakeVCs(), nil, nil, nil).SaveProfile(context.Background(), founderIdentity(), validVCInput())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGetPublicBySlug_Caches(t *testing.T) {
	p := vc.Profile{ID: uuid.New(), FirmName: "Acme Ventures", Slug: "acme"}
	vcs := newFakeVCs(p)
	cache := &memCache{}
	uc := NewVCProfileUsecase(vcs, cache, nil, nil)

	for range 3 {
		got, err := uc.GetPublicBySlug(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme Ventures", got.FirmName)
	}
	assert.Equal(t, 1, vcs.slugReads)
	assert.Equal(t, 2, cache.hits)
}

func TestGetPublicBySlug_NotFound(t *testing.T) {
	uc := NewVCProfileUsecase(newFakeVCs(), nil, nil, nil)

	_, err := uc.GetPublicBySlug(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrVCNotFound)

	_, err = uc.GetPublicBySlug(context.Background(), "../etc")
	require.ErrorIs(t, err, ErrVCNotFound)
}
