package integration

import (
	"context"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"funnel/internal/access"
	"funnel/internal/config"
	"funnel/internal/database"
	"funnel/internal/database/migration"
	dbpostgres "funnel/internal/database/postgres"
	"funnel/internal/database/seeder"
	"funnel/internal/domain/founder"
	"funnel/internal/domain/matching"
	"funnel/internal/domain/user"
	"funnel/internal/domain/vc"
	"funnel/internal/oracle"
	"funnel/internal/repository"
	"funnel/internal/usecase"
	"funnel/migrations"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankByOrder scores candidates in the order given, highest first.
type rankByOrder struct{}

func (rankByOrder) RankCandidates(_ context.Context, req oracle.RankRequest) ([]oracle.Ranking, error) {
	out := make([]oracle.Ranking, 0, len(req.Candidates))
	for i, c := range req.Candidates {
		out = append(out, oracle.Ranking{VCID: c.ID, Score: float64(90 - i), Reason: "fit"})
	}
	return out, nil
}

type nopMetrics struct{}

func (nopMetrics) RankingFallback()     {}
func (nopMetrics) MalformedSectors(int) {}

type fixture struct {
	db       database.DB
	users    *repository.PostgresUserRepository
	founders *repository.PostgresFounderProfileRepository
	vcs      *repository.PostgresVCProfileRepository
}

func setup(t *testing.T, ctx context.Context) fixture {
	t.Helper()

	db := connectTestDB(t, ctx)
	t.Cleanup(func() { _ = db.Close() })
	runMigrations(t, ctx, db)

	policy := access.NewPolicy()
	return fixture{
		db:       db,
		users:    repository.NewPostgresUserRepository(db),
		founders: repository.NewPostgresFounderProfileRepository(db, policy),
		vcs:      repository.NewPostgresVCProfileRepository(db, policy),
	}
}

func (f fixture) createUser(t *testing.T, ctx context.Context, role user.Role) access.Identity {
	t.Helper()

	u := user.User{
		ID:           uuid.New(),
		Email:        "it-" + uuid.NewString() + "@example.com",
		Name:         "Integration",
		Role:         role,
		PasswordHash: "x",
	}
	require.NoError(t, f.users.CreateUser(ctx, u))
	t.Cleanup(func() {
		_, _ = f.db.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, u.ID)
	})
	return access.Identity{UserID: u.ID, Role: role}
}

func TestIntegration_FounderProfileIsOwnerOnly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	f := setup(t, ctx)

	owner := f.createUser(t, ctx, user.RoleFounder)
	other := f.createUser(t, ctx, user.RoleFounder)

	_, err := f.founders.UpsertFounderProfile(ctx, owner, founder.Profile{
		UserID:      owner.UserID,
		StartupName: "Acme",
		Sector:      "Fintech",
		AskAmount:   500_000,
	})
	require.NoError(t, err)

	got, err := f.founders.GetFounderProfile(ctx, owner, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.StartupName)

	_, err = f.founders.GetFounderProfile(ctx, other, owner.UserID)
	assert.ErrorIs(t, err, access.ErrForbidden)

	// Row level security hides the row even from a query the policy object
	// never saw.
	requireRowSecurity(t, ctx, f.db)
	var visible int
	err = database.WithIdentity(ctx, f.db, other.UserID, func(tx database.Tx) error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM founder_profiles WHERE user_id = $1`, owner.UserID).Scan(&visible)
	})
	require.NoError(t, err)
	assert.Zero(t, visible)
}

func TestIntegration_RowSecurityRejectsForeignWrite(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	f := setup(t, ctx)

	requireRowSecurity(t, ctx, f.db)
	owner := f.createUser(t, ctx, user.RoleVC)
	intruder := f.createUser(t, ctx, user.RoleVC)

	err := database.WithIdentity(ctx, f.db, intruder.UserID, func(tx database.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO vc_profiles (id, user_id, firm_name, slug, thesis, sectors, min_check, max_check)
			 VALUES ($1, $2, 'Spoof', $3, 'x', '[]'::jsonb, 0, 1)`,
			uuid.New(), owner.UserID, "spoof-"+owner.UserID.String()[:8],
		)
		return err
	})
	require.Error(t, err)

	var n int
	require.NoError(t, f.db.QueryRow(ctx, `SELECT COUNT(*) FROM vc_profiles WHERE user_id = $1`, owner.UserID).Scan(&n))
	assert.Zero(t, n)
}

func TestIntegration_IdentityDoesNotOutliveTransaction(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	f := setup(t, ctx)

	id := uuid.New()
	for i := 0; i < 20; i++ {
		require.NoError(t, database.WithIdentity(ctx, f.db, id, func(tx database.Tx) error {
			var current string
			if err := tx.QueryRow(ctx, `SELECT current_setting($1, true)`, database.CurrentUserSetting).Scan(&current); err != nil {
				return err
			}
			assert.Equal(t, id.String(), current)
			return nil
		}))

		var leaked string
		require.NoError(t, f.db.QueryRow(ctx,
			`SELECT COALESCE(current_setting($1, true), '')`, database.CurrentUserSetting).Scan(&leaked))
		assert.Empty(t, leaked)
	}
}

func TestIntegration_VCSlugAndCheckRange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	f := setup(t, ctx)

	a := f.createUser(t, ctx, user.RoleVC)
	b := f.createUser(t, ctx, user.RoleVC)
	slug := "it-" + a.UserID.String()[:8]

	_, err := f.vcs.UpsertVCProfile(ctx, a, vc.Profile{
		UserID: a.UserID, FirmName: "A", Slug: slug, Thesis: "t",
		Sectors: []string{"Fintech"}, MinCheck: 100, MaxCheck: 200,
	})
	require.NoError(t, err)

	_, err = f.vcs.UpsertVCProfile(ctx, b, vc.Profile{
		UserID: b.UserID, FirmName: "B", Slug: slug, Thesis: "t",
		Sectors: []string{"Fintech"}, MinCheck: 100, MaxCheck: 200,
	})
	assert.ErrorIs(t, err, vc.ErrSlugTaken)

	_, err = f.vcs.UpsertVCProfile(ctx, b, vc.Profile{
		UserID: b.UserID, FirmName: "B", Slug: slug + "-b", Thesis: "t",
		Sectors: []string{"Fintech"}, MinCheck: 300, MaxCheck: 200,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidCheckRange)

	pub, err := f.vcs.GetVCProfileBySlug(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fintech"}, pub.Sectors)
}

func TestIntegration_MatchesSeededVCs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	f := setup(t, ctx)

	vcOwner := f.createUser(t, ctx, user.RoleVC)
	fid := f.createUser(t, ctx, user.RoleFounder)

	sector := "Climate & CleanTech"
	_, err := f.vcs.UpsertVCProfile(ctx, vcOwner, vc.Profile{
		UserID: vcOwner.UserID, FirmName: "Green", Slug: "it-green-" + vcOwner.UserID.String()[:8],
		Thesis: "climate", Sectors: []string{sector}, MinCheck: 1_000, MaxCheck: 9_000_000_000,
	})
	require.NoError(t, err)

	_, err = f.founders.UpsertFounderProfile(ctx, fid, founder.Profile{
		UserID: fid.UserID, StartupName: "Sun", Sector: sector, AskAmount: 5_000_000,
	})
	require.NoError(t, err)

	uc := usecase.NewMatchingUsecase(f.founders, f.vcs, matching.NewRanker(rankByOrder{}, time.Second, nil), nopMetrics{}, nil)
	out, err := uc.FindMatches(ctx, fid)
	require.NoError(t, err)
	require.False(t, out.Degraded)

	found := false
	for i, r := range out.Results {
		assert.Contains(t, r.VC.Sectors, sector)
		assert.LessOrEqual(t, r.VC.MinCheck, int64(5_000_000))
		assert.GreaterOrEqual(t, r.VC.MaxCheck, int64(5_000_000))
		if i > 0 {
			assert.LessOrEqual(t, r.Score, out.Results[i-1].Score)
		}
		if r.VC.UserID == vcOwner.UserID {
			found = true
		}
	}
	assert.True(t, found, "own VC should be a candidate")
}

func TestIntegration_SeedVCs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	f := setup(t, ctx)

	s := seeder.VCSeeder{
		Count:        3,
		Workers:      2,
		PasswordHash: "x",
		Rand:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1)),
	}
	require.NoError(t, s.Run(ctx, f.db))
	t.Cleanup(func() {
		_, _ = f.db.Exec(context.Background(), `DELETE FROM users WHERE email IN ('vc0@demo.com', 'vc1@demo.com', 'vc2@demo.com')`)
	})

	var n int
	require.NoError(t, f.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM vc_profiles p JOIN users u ON u.id = p.user_id
		 WHERE u.email IN ('vc0@demo.com', 'vc1@demo.com', 'vc2@demo.com')`).Scan(&n))
	assert.Equal(t, 3, n)

	// A second run finds the same emails and leaves them alone.
	require.NoError(t, s.Run(ctx, f.db))
}

// requireRowSecurity skips when the test role bypasses row level security,
// as superusers always do.
func requireRowSecurity(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()

	var bypass bool
	err := db.QueryRow(ctx,
		`SELECT rolsuper OR rolbypassrls FROM pg_roles WHERE rolname = current_user`).Scan(&bypass)
	require.NoError(t, err)
	if bypass {
		t.Skip("test role bypasses row level security; connect as a non-superuser role")
	}
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("FUNNEL_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("FUNNEL_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("FUNNEL_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	usr := stringsOrDefault(os.Getenv("FUNNEL_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("FUNNEL_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("FUNNEL_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || usr == "" {
		t.Skip("missing test DB env vars: set FUNNEL_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     usr,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()

	r := migration.Runner{FS: migrations.Files}
	if err := r.Run(ctx, db.SQLDB()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}

func stringsOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
