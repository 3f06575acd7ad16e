package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/studiopass/internal/model"
	"github.com/jmoiron/sqlx"
)

const sessionCols = `id, owner_id, package_id, occurred_on, duration_hours, kind, recorded_by, created_at`

func (s *SQLStore) CreateSession(ctx context.Context, sess *model.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO sessions (`+sessionCols+`)
		VALUES (:id, :owner_id, :package_id, :occurred_on, :duration_hours, :kind, :recorded_by, :created_at)`, sess)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLStore) ListSessionsByOwner(ctx context.Context, ownerID string) ([]model.Session, error) {
	var sessions []model.Session
	err := s.sel(ctx, &sessions, `SELECT `+sessionCols+` FROM sessions
		WHERE owner_id = ? ORDER BY occurred_on DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
