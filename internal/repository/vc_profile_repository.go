package repository

import (
	"context"

	"funnel/internal/access"
	"funnel/internal/database"
	"funnel/internal/database/postgres"
	"funnel/internal/domain/vc"

	"github.com/google/uuid"
)

// Constraint name from migrations/V2__profiles.sql.
const vcSlugConstraint = "vc_profiles_slug_key"

type VCProfileRepository interface {
	UpsertVCProfile(ctx context.Context, id access.Identity, p vc.Profile) (vc.Profile, error)
	GetVCProfileBySlug(ctx context.Context, slug string) (vc.Profile, error)
	GetVCProfileByID(ctx context.Context, vcID uuid.UUID) (vc.Profile, error)
	ListVCCandidates(ctx context.Context, f vc.CandidateFilter) ([]vc.Record, error)
}

type PostgresVCProfileRepository struct {
	db     database.DB
	policy access.Policy
}

func NewPostgresVCProfileRepository(db database.DB, policy access.Policy) *PostgresVCProfileRepository {
	return &PostgresVCProfileRepository{db: db, policy: policy}
}

const vcColumns = `id, user_id, firm_name, slug, thesis, sectors, min_check, max_check,
	monday_board_id, created_at, updated_at`

func (r *PostgresVCProfileRepository) UpsertVCProfile(ctx context.Context, id access.Identity, p vc.Profile) (vc.Profile, error) {
	if err := r.policy.AuthorizeWrite(id, p.UserID); err != nil {
		return vc.Profile{}, err
	}
	sectors, err := vc.EncodeSectors(p.Sectors)
	if err != nil {
		return vc.Profile{}, err
	}

	var out vc.Profile
	err = database.WithIdentity(ctx, r.db, id.UserID, func(tx database.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO vc_profiles
				(id, user_id, firm_name, slug, thesis, sectors, min_check, max_check, monday_board_id)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
			 ON CONFLICT (user_id) DO UPDATE SET
				firm_name       = EXCLUDED.firm_name,
				slug            = EXCLUDED.slug,
				thesis          = EXCLUDED.thesis,
				sectors         = EXCLUDED.sectors,
				min_check       = EXCLUDED.min_check,
				max_check       = EXCLUDED.max_check,
				monday_board_id = EXCLUDED.monday_board_id,
				updated_at      = NOW()
			 RETURNING `+vcColumns,
			uuid.New(), p.UserID, p.FirmName, p.Slug, p.Thesis, sectors, p.MinCheck, p.MaxCheck, p.MondayBoardID,
		)
		rec, err := scanVC(row)
		if err != nil {
			return err
		}
		out, err = decoded(rec)
		return err
	})
	if err != nil {
		if postgres.IsUniqueViolation(err, vcSlugConstraint) {
			return vc.Profile{}, vc.ErrSlugTaken
		}
		if postgres.IsCheckViolation(err) {
			return vc.Profile{}, ErrInvalidCheckRange
		}
		return vc.Profile{}, err
	}
	return out, nil
}

func (r *PostgresVCProfileRepository) GetVCProfileBySlug(ctx context.Context, slug string) (vc.Profile, error) {
	rec, err := scanVC(r.db.QueryRow(ctx, `SELECT `+vcColumns+` FROM vc_profiles WHERE slug = $1`, slug))
	if err != nil {
		return vc.Profile{}, err
	}
	return decoded(rec)
}

func (r *PostgresVCProfileRepository) GetVCProfileByID(ctx context.Context, vcID uuid.UUID) (vc.Profile, error) {
	rec, err := scanVC(r.db.QueryRow(ctx, `SELECT `+vcColumns+` FROM vc_profiles WHERE id = $1`, vcID))
	if err != nil {
		return vc.Profile{}, err
	}
	return decoded(rec)
}

// ListVCCandidates returns every VC whose check range admits the ask, in a
// stable order. Sectors are left encoded for the matcher.
func (r *PostgresVCProfileRepository) ListVCCandidates(ctx context.Context, f vc.CandidateFilter) ([]vc.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+vcColumns+`
		 FROM vc_profiles
		 WHERE min_check <= $1 AND max_check >= $1
		 ORDER BY firm_name ASC, id ASC`,
		f.AskAmount,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vc.Record, 0)
	for rows.Next() {
		rec, err := scanVC(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanVC(row database.Row) (vc.Record, error) {
	var rec vc.Record
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.FirmName, &rec.Slug, &rec.Thesis, &rec.RawSectors,
		&rec.MinCheck, &rec.MaxCheck, &rec.MondayBoardID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if postgres.IsNoRows(err) {
			return vc.Record{}, vc.ErrNotFound
		}
		return vc.Record{}, err
	}
	return rec, nil
}

// decoded is used for single-row reads, where a malformed sectors value is
// an error rather than an exclusion.
func decoded(rec vc.Record) (vc.Profile, error) {
	sectors, err := rec.DecodeSectors()
	if err != nil {
		return vc.Profile{}, err
	}
	p := rec.Profile
	p.Sectors = sectors
	return p, nil
}
