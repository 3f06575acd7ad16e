package model

import "time"

// Package is a purchased or granted bundle of session credits.
type Package struct {
	ID                 string        `db:"id" json:"id"`
	OwnerID            string        `db:"owner_id" json:"owner_id"`
	Kind               PackageKind   `db:"package_kind" json:"package_kind"`
	TotalSessions      int           `db:"total_sessions" json:"total_sessions"`
	RemainingSessions  int           `db:"remaining_sessions" json:"remaining_sessions"`
	PurchaseDate       time.Time     `db:"purchase_date" json:"purchase_date"`
	AmountPaid         int64         `db:"amount_paid" json:"amount_paid"` // euro cents
	ExternalPaymentRef *string       `db:"external_payment_ref" json:"external_payment_ref"`
	Status             PackageStatus `db:"status" json:"status"`
	CreatedBy          *string       `db:"created_by" json:"created_by"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// Usable reports whether the package can currently back a new session.
func (p Package) Usable() bool {
	return p.Status == StatusCompleted && p.RemainingSessions > 0
}

// Balance summarizes the credits an owner holds.
type Balance struct {
	OwnerID           string `json:"owner_id"`
	RemainingSessions int    `json:"remaining_sessions"`
	TotalSessions     int    `json:"total_sessions"`
	CompletedPackages int    `json:"completed_packages"`
	PendingPackages   int    `json:"pending_packages"`
}

// BalanceOf folds a list of packages into a Balance. Only completed packages
// contribute credits.
func BalanceOf(ownerID string, pkgs []Package) Balance {
	b := Balance{OwnerID: ownerID}
	for _, p := range pkgs {
		switch p.Status {
		case StatusCompleted:
			b.CompletedPackages++
			b.RemainingSessions += p.RemainingSessions
			b.TotalSessions += p.TotalSessions
		case StatusPending:
			b.PendingPackages++
		}
	}
	return b
}

// DeleteResult reports what an owner deletion removed.
type DeleteResult struct {
	Packages int64 `json:"packages_deleted"`
	Sessions int64 `json:"sessions_deleted"`
}

// UnmatchedEvent is a reconciliation outcome received for a payment
// reference that had no package yet.
type UnmatchedEvent struct {
	ExternalPaymentRef string        `db:"external_payment_ref" json:"external_payment_ref"`
	TargetStatus       PackageStatus `db:"target_status" json:"target_status"`
	EventType          string        `db:"event_type" json:"event_type"`
	ReceivedAt         time.Time     `db:"received_at" json:"received_at"`
}

// Stats aggregates ledger activity since a point in time.
type Stats struct {
	Period          StatsPeriod `json:"period"`
	Since           time.Time   `json:"since"`
	RevenueCents    int64       `json:"revenue_cents"`
	Owners          int         `json:"owners"`
	Sessions        int         `json:"sessions"`
	AveragePerOwner float64     `json:"average_sessions_per_owner"`
}

// LedgerEvent describes a ledger change for live dashboards.
type LedgerEvent struct {
	Entity  string         `json:"entity"`
	Action  string         `json:"action"`
	ID      string         `json:"id"`
	OwnerID string         `json:"owner_id"`
	Extra   map[string]any `json:"extra,omitempty"`
}
