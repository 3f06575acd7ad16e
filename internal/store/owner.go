package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/studiopass/internal/model"
)

// DeleteOwner removes every session and package of an owner.
func (s *SQLStore) DeleteOwner(ctx context.Context, ownerID string) (model.DeleteResult, error) {
	var res model.DeleteResult
	err := s.InTx(ctx, func(tx Store) error {
		txs := tx.(*SQLStore)
		n, err := txs.exec(ctx, `DELETE FROM sessions WHERE owner_id = ?`, ownerID)
		if err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		res.Sessions = n

		n, err = txs.exec(ctx, `DELETE FROM packages WHERE owner_id = ?`, ownerID)
		if err != nil {
			return fmt.Errorf("delete packages: %w", err)
		}
		res.Packages = n
		return nil
	})
	if err != nil {
		return model.DeleteResult{}, err
	}
	return res, nil
}

func (s *SQLStore) Stats(ctx context.Context, since time.Time) (StatsRow, error) {
	var row StatsRow
	since = since.UTC()
	err := s.get(ctx, &row, `SELECT
		(SELECT COALESCE(SUM(amount_paid), 0) FROM packages
			WHERE status = 'completed' AND purchase_date >= ?) AS revenue,
		(SELECT COUNT(DISTINCT owner_id) FROM packages
			WHERE status = 'completed' AND purchase_date >= ?) AS owners,
		(SELECT COUNT(*) FROM sessions WHERE occurred_on >= ?) AS sessions`,
		since, since, since)
	if err != nil {
		return StatsRow{}, fmt.Errorf("ledger stats: %w", err)
	}
	return row, nil
}
