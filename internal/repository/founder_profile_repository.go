package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"funnel/internal/access"
	"funnel/internal/database"
	"funnel/internal/database/postgres"
	"funnel/internal/domain/founder"

	"github.com/google/uuid"
)

type FounderProfileRepository interface {
	UpsertFounderProfile(ctx context.Context, id access.Identity, p founder.Profile) (founder.Profile, error)
	GetFounderProfile(ctx context.Context, id access.Identity, ownerID uuid.UUID) (founder.Profile, error)
}

type PostgresFounderProfileRepository struct {
	db     database.DB
	policy access.Policy
}

func NewPostgresFounderProfileRepository(db database.DB, policy access.Policy) *PostgresFounderProfileRepository {
	return &PostgresFounderProfileRepository{db: db, policy: policy}
}

const founderColumns = `id, user_id, startup_name, sector, ask_amount, COALESCE(deck_link, ''),
	deck_text, general_analysis, created_at, updated_at`

// UpsertFounderProfile creates or fully replaces the caller's profile. A new
// row gets a fresh id; an existing row keeps its id and created_at.
func (r *PostgresFounderProfileRepository) UpsertFounderProfile(ctx context.Context, id access.Identity, p founder.Profile) (founder.Profile, error) {
	if err := r.policy.AuthorizeWrite(id, p.UserID); err != nil {
		return founder.Profile{}, err
	}

	var analysis []byte
	if p.Analysis != nil {
		b, err := json.Marshal(p.Analysis)
		if err != nil {
			return founder.Profile{}, fmt.Errorf("encode analysis: %w", err)
		}
		analysis = b
	}
	var deck []byte
	if p.DeckText != "" {
		deck = []byte(p.DeckText)
	}

	var out founder.Profile
	err := database.WithIdentity(ctx, r.db, id.UserID, func(tx database.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO founder_profiles
				(id, user_id, startup_name, sector, ask_amount, deck_link, deck_text, general_analysis)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7::jsonb, $8::jsonb)
			 ON CONFLICT (user_id) DO UPDATE SET
				startup_name     = EXCLUDED.startup_name,
				sector           = EXCLUDED.sector,
				ask_amount       = EXCLUDED.ask_amount,
				deck_link        = EXCLUDED.deck_link,
				deck_text        = EXCLUDED.deck_text,
				general_analysis = EXCLUDED.general_analysis,
				updated_at       = NOW()
			 RETURNING `+founderColumns,
			uuid.New(), p.UserID, p.StartupName, p.Sector, p.AskAmount, p.DeckLink, deck, analysis,
		)
		var err error
		out, err = scanFounder(row)
		return err
	})
	if err != nil {
		return founder.Profile{}, err
	}
	return out, nil
}

func (r *PostgresFounderProfileRepository) GetFounderProfile(ctx context.Context, id access.Identity, ownerID uuid.UUID) (founder.Profile, error) {
	if err := r.policy.AuthorizeFounderRead(id, ownerID); err != nil {
		return founder.Profile{}, err
	}

	var out founder.Profile
	err := database.WithIdentity(ctx, r.db, id.UserID, func(tx database.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+founderColumns+`
			 FROM founder_profiles
			 WHERE user_id = $1`,
			ownerID,
		)
		var err error
		out, err = scanFounder(row)
		return err
	})
	if err != nil {
		return founder.Profile{}, err
	}
	return out, nil
}

func scanFounder(row database.Row) (founder.Profile, error) {
	var (
		p        founder.Profile
		deck     []byte
		analysis []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.StartupName, &p.Sector, &p.AskAmount, &p.DeckLink,
		&deck, &analysis, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if postgres.IsNoRows(err) {
			return founder.Profile{}, founder.ErrNotFound
		}
		return founder.Profile{}, err
	}

	p.DeckText = string(deck)
	if len(analysis) > 0 && string(analysis) != "null" {
		var a founder.Analysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return founder.Profile{}, fmt.Errorf("decode analysis for founder %s: %w", p.ID, err)
		}
		p.Analysis = &a
	}
	return p, nil
}
