package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/studiopass/internal/model"
)

const unmatchedCols = `external_payment_ref, target_status, event_type, received_at`

// RecordUnmatchedEvent keeps the first outcome seen for a ref. It reports
// whether e was stored.
func (s *SQLStore) RecordUnmatchedEvent(ctx context.Context, e model.UnmatchedEvent) (bool, error) {
	n, err := s.exec(ctx, `INSERT INTO unmatched_payment_events (`+unmatchedCols+`)
		VALUES (?, ?, ?, ?) ON CONFLICT (external_payment_ref) DO NOTHING`,
		e.ExternalPaymentRef, e.TargetStatus, e.EventType, e.ReceivedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert unmatched event: %w", err)
	}
	return n == 1, nil
}

// TakeUnmatchedEvent removes and returns the outcome recorded for ref, or nil.
func (s *SQLStore) TakeUnmatchedEvent(ctx context.Context, ref string) (*model.UnmatchedEvent, error) {
	var e model.UnmatchedEvent
	err := s.get(ctx, &e, `SELECT `+unmatchedCols+` FROM unmatched_payment_events
		WHERE external_payment_ref = ?`, ref)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unmatched event: %w", err)
	}
	if _, err := s.exec(ctx, `DELETE FROM unmatched_payment_events WHERE external_payment_ref = ?`, ref); err != nil {
		return nil, fmt.Errorf("delete unmatched event: %w", err)
	}
	return &e, nil
}
