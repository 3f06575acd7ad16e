package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/studiopass/internal/model"
	"github.com/jmoiron/sqlx"
)

const packageCols = `id, owner_id, package_kind, total_sessions, remaining_sessions, purchase_date,
	amount_paid, external_payment_ref, status, created_by, created_at`

func (s *SQLStore) CreatePackage(ctx context.Context, p *model.Package) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = p.CreatedAt
	}
	_, err := sqlx.NamedExecContext(ctx, s.q, `INSERT INTO packages (`+packageCols+`)
		VALUES (:id, :owner_id, :package_kind, :total_sessions, :remaining_sessions, :purchase_date,
			:amount_paid, :external_payment_ref, :status, :created_by, :created_at)`, p)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

func (s *SQLStore) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	var p model.Package
	err := s.get(ctx, &p, `SELECT `+packageCols+` FROM packages WHERE id = ?`, id)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &p, nil
}

func (s *SQLStore) GetPackageByPaymentRef(ctx context.Context, ref string) (*model.Package, error) {
	var p model.Package
	err := s.get(ctx, &p, `SELECT `+packageCols+` FROM packages WHERE external_payment_ref = ?`, ref)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get package by payment ref: %w", err)
	}
	return &p, nil
}

// ListUsablePackages returns the owner's completed packages that still hold
// credits, oldest purchase first.
func (s *SQLStore) ListUsablePackages(ctx context.Context, ownerID string) ([]model.Package, error) {
	var pkgs []model.Package
	err := s.sel(ctx, &pkgs, `SELECT `+packageCols+` FROM packages
		WHERE owner_id = ? AND status = 'completed' AND remaining_sessions > 0
		ORDER BY purchase_date ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list usable packages: %w", err)
	}
	return pkgs, nil
}

func (s *SQLStore) ListPackagesByOwner(ctx context.Context, ownerID string) ([]model.Package, error) {
	var pkgs []model.Package
	err := s.sel(ctx, &pkgs, `SELECT `+packageCols+` FROM packages
		WHERE owner_id = ? ORDER BY purchase_date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

// DecrementRemaining takes one credit from a completed package. It returns 0
// when the package is no longer usable.
func (s *SQLStore) DecrementRemaining(ctx context.Context, packageID string) (int64, error) {
	n, err := s.exec(ctx, `UPDATE packages SET remaining_sessions = remaining_sessions - 1
		WHERE id = ? AND status = 'completed' AND remaining_sessions > 0`, packageID)
	if err != nil {
		return 0, fmt.Errorf("decrement remaining: %w", err)
	}
	return n, nil
}

// TransitionPending moves the package holding ref out of pending. It returns
// 0 when no pending package carries ref.
func (s *SQLStore) TransitionPending(ctx context.Context, ref string, to model.PackageStatus) (int64, error) {
	n, err := s.exec(ctx, `UPDATE packages SET status = ?
		WHERE external_payment_ref = ? AND status = 'pending'`, to, ref)
	if err != nil {
		return 0, fmt.Errorf("transition package: %w", err)
	}
	return n, nil
}
