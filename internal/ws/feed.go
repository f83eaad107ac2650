package ws

import (
	"context"
	"encoding/json"
	"errors"

	"funnel/internal/infrastructure/notify"
)

var ErrFeedBackpressure = errors.New("deal feed buffer full")

// NotifyPitchMatched pushes the event to the matched VC's open sockets.
// A VC with no open socket simply misses it.
func (h *Hub) NotifyPitchMatched(_ context.Context, evt notify.PitchMatched) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if !h.Send(evt.VCUserID, b) {
		return ErrFeedBackpressure
	}
	return nil
}
