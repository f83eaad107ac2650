// Package notify delivers "pitch matched" events to the CRM side: a NATS
// subject for downstream integrations and the live deal feed of the VC.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventPitchMatched = "pitch_matched"

// PitchMatched is published once per (VC, founder) pair when the oracle
// judges a pitch a match.
type PitchMatched struct {
	Type          string    `json:"type"`
	VCID          uuid.UUID `json:"vcId"`
	VCUserID      uuid.UUID `json:"vcUserId"`
	VCSlug        string    `json:"vcSlug"`
	FirmName      string    `json:"firmName"`
	MondayBoardID *string   `json:"mondayBoardId,omitempty"`
	FounderID     uuid.UUID `json:"founderId"`
	StartupName   string    `json:"startupName"`
	Memo          string    `json:"memo"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Notifier interface {
	NotifyPitchMatched(ctx context.Context, evt PitchMatched) error
}

// Fanout delivers to the CRM sink, then to best-effort extras such as the
// VC's live deal feed. Only the CRM sink decides the outcome; an extra that
// fails is logged.
type Fanout struct {
	CRM    Notifier
	Extras []Notifier
	Logger *zap.Logger
}

func (f Fanout) NotifyPitchMatched(ctx context.Context, evt PitchMatched) error {
	var err error
	if f.CRM != nil {
		err = f.CRM.NotifyPitchMatched(ctx, evt)
	}
	for _, n := range f.Extras {
		if n == nil {
			continue
		}
		if extraErr := n.NotifyPitchMatched(ctx, evt); extraErr != nil && f.Logger != nil {
			f.Logger.Warn("pitch matched extra sink failed",
				zap.String("vc_id", evt.VCID.String()),
				zap.Error(extraErr),
			)
		}
	}
	return err
}

// LogNotifier stands in for the bus when NATS is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) NotifyPitchMatched(_ context.Context, evt PitchMatched) error {
	n.logger.Info("pitch matched",
		zap.String("vc_id", evt.VCID.String()),
		zap.String("firm", evt.FirmName),
		zap.String("founder_id", evt.FounderID.String()),
		zap.String("startup", evt.StartupName),
	)
	return nil
}
