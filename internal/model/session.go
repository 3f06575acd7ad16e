package model

import "time"

// Session is one delivered service unit. It consumed exactly one credit from
// PackageID and is never updated afterwards.
type Session struct {
	ID            string    `db:"id" json:"id"`
	OwnerID       string    `db:"owner_id" json:"owner_id"`
	PackageID     string    `db:"package_id" json:"package_id"`
	OccurredOn    time.Time `db:"occurred_on" json:"occurred_on"`
	DurationHours float64   `db:"duration_hours" json:"duration_hours"`
	Kind          *string   `db:"kind" json:"kind"`
	RecordedBy    string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
