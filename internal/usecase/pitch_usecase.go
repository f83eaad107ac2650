package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"funnel/internal/access"
	"funnel/internal/domain/founder"
	"funnel/internal/domain/user"
	"funnel/internal/domain/vc"
	"funnel/internal/infrastructure/notify"
	"funnel/internal/oracle"
	"funnel/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultNotifyTimeout = 10 * time.Second
	notificationDedupe   = 24 * time.Hour
)

type NotificationMetrics interface {
	Notification(outcome string)
}

// PitchDecision is the oracle's verdict on one pitch.
type PitchDecision = oracle.Verdict

type PitchInput struct {
	VCID     string
	DeckLink string
}

type PitchUsecase interface {
	SubmitPitch(ctx context.Context, id access.Identity, in PitchInput) (PitchDecision, error)
}

type PitchConfig struct {
	OracleTimeout time.Duration
	NotifyTimeout time.Duration
}

type Pitch struct {
	founders repository.FounderProfileRepository
	vcs      repository.VCProfileRepository
	judge    oracle.Judge
	notifier notify.Notifier
	dedupe   Deduper
	metrics  NotificationMetrics
	policy   access.Policy
	cfg      PitchConfig
	logger   *zap.Logger

	inflight sync.WaitGroup
}

func NewPitchUsecase(
	founders repository.FounderProfileRepository,
	vcs repository.VCProfileRepository,
	judge oracle.Judge,
	notifier notify.Notifier,
	dedupe Deduper,
	metrics NotificationMetrics,
	cfg PitchConfig,
	logger *zap.Logger,
) *Pitch {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 30 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pitch{
		founders: founders,
		vcs:      vcs,
		judge:    judge,
		notifier: notifier,
		dedupe:   dedupe,
		metrics:  metrics,
		policy:   access.NewPolicy(),
		cfg:      cfg,
		logger:   logger.Named("pitch"),
	}
}

// SubmitPitch asks the oracle whether the caller's startup fits one VC's
// thesis. A match triggers a CRM notification in the background; the
// verdict is returned without waiting for it.
func (u *Pitch) SubmitPitch(ctx context.Context, id access.Identity, in PitchInput) (PitchDecision, error) {
	if err := u.policy.RequireRole(id, user.RoleFounder); err != nil {
		return PitchDecision{}, accessError(err)
	}

	vcID, err := validatePitch(in)
	if err != nil {
		return PitchDecision{}, err
	}

	var (
		f          founder.Profile
		target     vc.Profile
		fErr, vErr error
		loads      errgroup.Group
	)
	loads.Go(func() error {
		f, fErr = u.founders.GetFounderProfile(ctx, id, id.UserID)
		return fErr
	})
	loads.Go(func() error {
		target, vErr = u.vcs.GetVCProfileByID(ctx, vcID)
		return vErr
	})
	if err := loads.Wait(); err != nil {
		return PitchDecision{}, u.loadError(f, fErr, vErr, vcID)
	}

	content := f.PitchContent(oracle.MaxDeckChars)
	if content == "" {
		return PitchDecision{}, ErrNoDeckContent
	}

	verdict, err := u.judgePitch(ctx, oracle.PitchRequest{FounderContent: content, Thesis: target.Thesis})
	if err != nil {
		u.logger.Warn("pitch judgement failed", zap.String("vc_id", vcID.String()), zap.Error(err))
		return PitchDecision{}, ErrOracleUnavailable
	}

	if verdict.IsMatch {
		u.dispatch(ctx, notify.PitchMatched{
			Type:          notify.EventPitchMatched,
			VCID:          target.ID,
			VCUserID:      target.UserID,
			VCSlug:        target.Slug,
			FirmName:      target.FirmName,
			MondayBoardID: target.MondayBoardID,
			FounderID:     f.ID,
			StartupName:   f.StartupName,
			Memo:          verdict.Memo,
			OccurredAt:    time.Now().UTC(),
		})
	}
	return verdict, nil
}

// loadError picks the response for a failed load. The founder side wins, and
// a founder without deck content is reported before a missing VC.
func (u *Pitch) loadError(f founder.Profile, fErr, vErr error, vcID uuid.UUID) error {
	if fErr != nil {
		if errors.Is(fErr, founder.ErrNotFound) {
			return ErrFounderNotFound
		}
		u.logger.Error("load founder profile failed", zap.Error(fErr))
		return ErrInternal
	}
	if f.PitchContent(oracle.MaxDeckChars) == "" {
		return ErrNoDeckContent
	}
	if errors.Is(vErr, vc.ErrNotFound) {
		return ErrVCNotFound
	}
	u.logger.Error("load vc profile failed", zap.String("vc_id", vcID.String()), zap.Error(vErr))
	return ErrInternal
}

func (u *Pitch) judgePitch(ctx context.Context, req oracle.PitchRequest) (PitchDecision, error) {
	if u.judge == nil {
		return PitchDecision{}, oracle.ErrNotConfigured
	}
	octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.OracleTimeout)
	defer cancel()
	return u.judge.JudgePitch(octx, req)
}

// dispatch notifies at most once per (vc, founder) pair. It is detached from
// the request and only logs failures.
func (u *Pitch) dispatch(ctx context.Context, evt notify.PitchMatched) {
	if u.notifier == nil {
		return
	}
	base := context.WithoutCancel(ctx)

	u.inflight.Add(1)
	go func() {
		defer u.inflight.Done()

		ctx, cancel := context.WithTimeout(base, u.cfg.NotifyTimeout)
		defer cancel()

		log := u.logger.With(zap.String("vc_id", evt.VCID.String()), zap.String("founder_id", evt.FounderID.String()))

		if u.dedupe != nil {
			first, err := u.dedupe.Claim(ctx, PitchNotificationKey(evt.VCID, evt.FounderID), notificationDedupe)
			if err != nil {
				log.Warn("crm notification skipped: dedupe unavailable", zap.Error(err))
				u.count("skipped")
				return
			}
			if !first {
				log.Debug("crm notification already sent")
				u.count("duplicate")
				return
			}
		}

		if err := u.notifier.NotifyPitchMatched(ctx, evt); err != nil {
			log.Warn("crm notification failed", zap.Error(err))
			u.count("failed")
			return
		}
		log.Info("crm notification sent", zap.String("firm", evt.FirmName))
		u.count("sent")
	}()
}

func (u *Pitch) count(outcome string) {
	if u.metrics != nil {
		u.metrics.Notification(outcome)
	}
}

// Drain waits for background notifications, up to ctx.
func (u *Pitch) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validatePitch(in PitchInput) (uuid.UUID, error) {
	var verr ValidationError

	vcID, err := uuid.Parse(strings.TrimSpace(in.VCID))
	if strings.TrimSpace(in.VCID) == "" {
		verr.add("vcId", "VC ID is required")
	} else if err != nil {
		verr.add("vcId", "VC ID must be a valid id")
	}

	if !isHTTPURL(in.DeckLink) {
		verr.add("deckLink", "Must be a valid URL")
	}

	if err := verr.err(); err != nil {
		return uuid.Nil, err
	}
	return vcID, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
