package app

import (
	"context"
	"errors"
	"time"

	"funnel/internal/access"
	"funnel/internal/config"
	"funnel/internal/database"
	dbpostgres "funnel/internal/database/postgres"
	"funnel/internal/domain/matching"
	"funnel/internal/domain/sector"
	"funnel/internal/infrastructure/cache"
	"funnel/internal/infrastructure/extractor"
	"funnel/internal/infrastructure/fetcher"
	"funnel/internal/infrastructure/notify"
	"funnel/internal/metrics"
	"funnel/internal/oracle"
	"funnel/internal/pkg/jwt"
	"funnel/internal/repository"
	"funnel/internal/usecase"
	"funnel/internal/ws"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Container owns every long-lived dependency of the server process.
type Container struct {
	Config  config.Config
	Logger  *zap.Logger
	DB      database.DB
	Cache   *cache.Redis
	Metrics *metrics.Metrics
	Oracle  oracle.Client
	Tokens  jwt.Service
	Sectors *sector.Taxonomy
	Hub     *ws.Hub
	NATS    *nats.Conn

	Auth           usecase.AuthUsecase
	User           usecase.UserUsecase
	Matching       usecase.MatchingUsecase
	FounderProfile usecase.FounderProfileUsecase
	VCProfile      usecase.VCProfileUsecase
	Pitch          *usecase.Pitch

	stopHub context.CancelFunc
	hubDone chan struct{}
}

func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Metrics: metrics.New(),
		Tokens:  jwt.NewHMACService(cfg.App.AppName, cfg.JWT),
		Sectors: sector.Default(),
	}

	client, err := oracle.New(ctx, cfg.Oracle, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.Oracle = oracle.Instrument(client, c.Metrics.ObserveOracle)

	c.Cache = cache.NewRedis(ctx, cfg.Redis, logger)

	var crm notify.Notifier
	if cfg.NATS.URL != "" {
		conn, err := notify.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			_ = c.Cache.Close()
			_ = db.Close()
			return nil, err
		}
		c.NATS = conn
		crm = notify.NewNATSNotifier(conn, cfg.NATS.Subject)
	} else {
		logger.Warn("NATS_URL not set, CRM notifications are only logged")
		crm = notify.NewLogNotifier(logger)
	}

	c.Hub = ws.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	c.stopHub = stopHub
	c.hubDone = make(chan struct{})
	go func() {
		defer close(c.hubDone)
		c.Hub.Run(hubCtx)
	}()

	c.wireUsecases(notify.Fanout{CRM: crm, Extras: []notify.Notifier{c.Hub}, Logger: logger.Named("notify")})
	return c, nil
}

func (c *Container) wireUsecases(notifier notify.Notifier) {
	cfg := c.Config
	policy := access.NewPolicy()

	users := repository.NewPostgresUserRepository(c.DB)
	founders := repository.NewPostgresFounderProfileRepository(c.DB, policy)
	vcs := repository.NewPostgresVCProfileRepository(c.DB, policy)

	c.Auth = usecase.NewAuthUsecase(users, c.Tokens)
	c.User = usecase.NewUserUsecase(users)

	ranker := matching.NewRanker(c.Oracle, cfg.Oracle.Timeout, c.Logger)
	c.Matching = usecase.NewMatchingUsecase(founders, vcs, ranker, c.Metrics, c.Logger)

	c.FounderProfile = usecase.NewFounderProfileUsecase(
		founders,
		extractor.New(),
		fetcher.New(cfg.Deck.MaxBytes, cfg.Deck.FetchTimeout),
		c.Oracle,
		c.Sectors,
		cfg.Oracle.Timeout,
		c.Logger,
	)
	c.VCProfile = usecase.NewVCProfileUsecase(vcs, c.Cache, c.Sectors, c.Logger)

	c.Pitch = usecase.NewPitchUsecase(
		founders,
		vcs,
		c.Oracle,
		notifier,
		c.Cache,
		c.Metrics,
		usecase.PitchConfig{OracleTimeout: cfg.Oracle.Timeout},
		c.Logger,
	)
}

// Close waits up to drain for in-flight CRM notifications, then releases
// everything in reverse order of acquisition.
func (c *Container) Close(drain time.Duration) error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Pitch != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drain)
		if err := c.Pitch.Drain(ctx); err != nil {
			c.Logger.Warn("pending CRM notifications abandoned", zap.Error(err))
		}
		cancel()
	}
	if c.stopHub != nil {
		c.stopHub()
		<-c.hubDone
	}
	if c.NATS != nil {
		if err := c.NATS.Drain(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
