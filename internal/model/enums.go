package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PackageKind is the closed set of package offers.
type PackageKind string

const (
	KindSingle PackageKind = "single"
	KindCard5  PackageKind = "card_5"
	KindCard10 PackageKind = "card_10"
	KindCustom PackageKind = "custom"
)

// ParsePackageKind rejects anything outside the closed set.
func ParsePackageKind(s string) (PackageKind, error) {
	k := PackageKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown package kind %q", s)
	}
	return k, nil
}

func (k PackageKind) Valid() bool {
	switch k {
	case KindSingle, KindCard5, KindCard10, KindCustom:
		return true
	}
	return false
}

func (k PackageKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown package kind %q", string(k))
	}
	return string(k), nil
}

func (k *PackageKind) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scan package kind: %w", err)
	}
	parsed, err := ParsePackageKind(s)
	if err != nil {
		return fmt.Errorf("scan package kind: %w", err)
	}
	*k = parsed
	return nil
}

func (k *PackageKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePackageKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// PackageStatus is the reconciliation state of a package.
type PackageStatus string

const (
	StatusPending   PackageStatus = "pending"
	StatusCompleted PackageStatus = "completed"
	StatusCancelled PackageStatus = "cancelled"
)

func ParsePackageStatus(s string) (PackageStatus, error) {
	st := PackageStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown package status %q", s)
	}
	return st, nil
}

func (s PackageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may be applied.
func (s PackageStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s PackageStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown package status %q", string(s))
	}
	return string(s), nil
}

func (s *PackageStatus) Scan(src any) error {
	text, err := scanText(src)
	if err != nil {
		return fmt.Errorf("scan package status: %w", err)
	}
	parsed, err := ParsePackageStatus(text)
	if err != nil {
		return fmt.Errorf("scan package status: %w", err)
	}
	*s = parsed
	return nil
}

func (s *PackageStatus) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err != nil {
		return err
	}
	parsed, err := ParsePackageStatus(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PaymentOutcome is what a verified provider event means for a package.
type PaymentOutcome string

const (
	OutcomeNone      PaymentOutcome = ""
	OutcomeConfirmed PaymentOutcome = "confirmed"
	OutcomeFailed    PaymentOutcome = "failed"
)

// TargetStatus maps an outcome onto the package state it leads to. The
// second return is false for events without side effect.
func (o PaymentOutcome) TargetStatus() (PackageStatus, bool) {
	switch o {
	case OutcomeConfirmed:
		return StatusCompleted, true
	case OutcomeFailed:
		return StatusCancelled, true
	}
	return "", false
}

// StatsPeriod selects the window for ledger statistics.
type StatsPeriod string

const (
	PeriodMonth StatsPeriod = "month"
	PeriodYear  StatsPeriod = "year"
)

func ParseStatsPeriod(s string) (StatsPeriod, error) {
	switch StatsPeriod(s) {
	case PeriodMonth, PeriodYear:
		return StatsPeriod(s), nil
	}
	return "", fmt.Errorf("unknown stats period %q", s)
}

// Since returns the start of the period containing now, in UTC.
func (p StatsPeriod) Since(now time.Time) time.Time {
	now = now.UTC()
	if p == PeriodYear {
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func scanText(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL")
	}
	return "", fmt.Errorf("unexpected type %T", src)
}
