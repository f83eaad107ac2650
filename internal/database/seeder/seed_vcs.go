package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"funnel/internal/database"
	"funnel/internal/domain/sector"
	"funnel/internal/domain/user"
	"funnel/internal/domain/vc"
	"funnel/internal/pkg/workerpool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	firmAdjectives = []string{
		"Blue", "Red", "Green", "Golden", "Iron", "Velocity", "First", "Next", "Future", "Global", "Local",
		"Alpha", "Omega", "Prime", "Apex", "Summit", "Horizon", "North", "South", "East", "West",
	}
	firmNouns = []string{
		"Rock", "River", "Mountain", "Star", "Gate", "Bridge", "Oak", "Pine", "Wave", "Peak",
		"Valley", "Harbor", "Bay", "Point", "Capital", "Ventures", "Partners", "Fund", "Group", "Associates",
	}
)

var errUserExists = errors.New("demo user already exists")

// DemoVC is one generated VC user and profile.
type DemoVC struct {
	UserID   uuid.UUID
	Email    string
	Name     string
	FirmName string
	Slug     string
	Thesis   string
	Sectors  []string
	MinCheck int64
	MaxCheck int64
}

// NewDemoVC builds the i-th demo VC. The index keeps firm names, slugs and
// emails unique within a run.
func NewDemoVC(i int, rng *rand.Rand, sectors []string) DemoVC {
	adj := firmAdjectives[rng.IntN(len(firmAdjectives))]
	noun := firmNouns[rng.IntN(len(firmNouns))]
	firm := fmt.Sprintf("%s %s %d", adj, noun, i)

	n := 1 + rng.IntN(5)
	if n > len(sectors) {
		n = len(sectors)
	}
	picked := make([]string, 0, n)
	for _, idx := range rng.Perm(len(sectors))[:n] {
		picked = append(picked, sectors[idx])
	}

	minCheck := int64(50+rng.IntN(151)) * 1000
	maxCheck := minCheck + int64(100+rng.IntN(901))*1000

	return DemoVC{
		UserID:   uuid.New(),
		Email:    fmt.Sprintf("vc%d@demo.com", i),
		Name:     "Partner at " + firm,
		FirmName: firm,
		Slug:     fmt.Sprintf("%s-%s-%d", strings.ToLower(adj), strings.ToLower(noun), i),
		Thesis:   fmt.Sprintf("We invest in ambitious founders building in %s. Looking for 10x returns.", strings.Join(picked, ", ")),
		Sectors:  picked,
		MinCheck: minCheck,
		MaxCheck: maxCheck,
	}
}

// VCSeeder inserts Count demo VCs. Each user and profile pair is written in
// its own identity-scoped transaction so the row level security checks
// apply exactly as they do for a signed-in VC.
type VCSeeder struct {
	Count        int
	Workers      int
	PasswordHash string
	Sectors      *sector.Taxonomy
	Rand         *rand.Rand
	Logger       *zap.Logger
}

func (VCSeeder) Name() string { return "vc_profiles" }

func (s VCSeeder) Run(ctx context.Context, db database.DB) error {
	if s.Count <= 0 {
		return nil
	}
	if s.PasswordHash == "" {
		return fmt.Errorf("password hash required")
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	taxonomy := s.Sectors
	if taxonomy == nil {
		taxonomy = sector.Default()
	}
	rng := s.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	if err := EnsureTableColumns(ctx, db, "users", "id", "email", "name", "role", "password_hash"); err != nil {
		return err
	}
	if err := EnsureTableColumns(ctx, db, "vc_profiles",
		"id", "user_id", "firm_name", "slug", "thesis", "sectors", "min_check", "max_check"); err != nil {
		return err
	}

	names := taxonomy.Names()
	pool := workerpool.New(s.Workers, s.Count)
	for i := 0; i < s.Count; i++ {
		d := NewDemoVC(i, rng, names)
		pool.Submit(workerpool.Task{Key: d.Slug, Run: func(ctx context.Context) error {
			return insertDemoVC(ctx, db, d, s.PasswordHash)
		}})
	}
	pool.Close()

	var inserted, skipped int
	var firstErr error
	for res := range pool.Run(ctx) {
		switch {
		case res.Err == nil:
			inserted++
		case errors.Is(res.Err, errUserExists):
			skipped++
		default:
			logger.Warn("demo vc insert failed", zap.String("slug", res.Key), zap.Error(res.Err))
			if firstErr == nil {
				firstErr = res.Err
			}
		}
	}

	logger.Info("demo vcs seeded",
		zap.Int("inserted", inserted),
		zap.Int("skipped", skipped),
		zap.Int("failed", s.Count-inserted-skipped),
	)
	if err := ctx.Err(); err != nil {
		return err
	}
	if inserted == 0 && firstErr != nil {
		return fmt.Errorf("no demo vcs inserted: %w", firstErr)
	}
	return nil
}

func insertDemoVC(ctx context.Context, db database.DB, d DemoVC, passwordHash string) error {
	sectors, err := vc.EncodeSectors(d.Sectors)
	if err != nil {
		return err
	}
	return database.WithIdentity(ctx, db, d.UserID, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, name, role, password_hash)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (email) DO NOTHING`,
			d.UserID, d.Email, d.Name, string(user.RoleVC), passwordHash,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if n == 0 {
			return errUserExists
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO vc_profiles (id, user_id, firm_name, slug, thesis, sectors, min_check, max_check)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`,
			uuid.New(), d.UserID, d.FirmName, d.Slug, d.Thesis, sectors, d.MinCheck, d.MaxCheck,
		); err != nil {
			return fmt.Errorf("insert vc profile: %w", err)
		}
		return nil
	})
}
