package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParsePackageKind(t *testing.T) {
	for _, s := range []string{"single", "card_5", "card_10", "custom"} {
		k, err := ParsePackageKind(s)
		if err != nil {
			t.Fatalf("ParsePackageKind(%q) error: %v", s, err)
		}
		if string(k) != s {
			t.Errorf("kind = %q, want %q", k, s)
		}
	}
	if _, err := ParsePackageKind("card_20"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPackageStatusScan(t *testing.T) {
	var s PackageStatus
	if err := s.Scan([]byte("completed")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s != StatusCompleted {
		t.Errorf("status = %q, want %q", s, StatusCompleted)
	}
	if err := s.Scan("refunded"); err == nil {
		t.Error("expected error scanning unknown status")
	}
	if err := s.Scan(nil); err == nil {
		t.Error("expected error scanning NULL")
	}
}

func TestPackageStatusValueRejectsUnknown(t *testing.T) {
	if _, err := PackageStatus("bogus").Value(); err == nil {
		t.Error("expected Value error for unknown status")
	}
	v, err := StatusPending.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "pending" {
		t.Errorf("value = %v, want pending", v)
	}
}

func TestTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("completed and cancelled should be terminal")
	}
}

func TestOutcomeTargetStatus(t *testing.T) {
	tests := []struct {
		outcome PaymentOutcome
		want    PackageStatus
		ok      bool
	}{
		{OutcomeConfirmed, StatusCompleted, true},
		{OutcomeFailed, StatusCancelled, true},
		{OutcomeNone, "", false},
	}
	for _, tt := range tests {
		got, ok := tt.outcome.TargetStatus()
		if got != tt.want || ok != tt.ok {
			t.Errorf("TargetStatus(%q) = (%q, %v), want (%q, %v)", tt.outcome, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStatsPeriodSince(t *testing.T) {
	now := time.Date(2026, time.March, 17, 15, 4, 5, 0, time.UTC)
	if got, want := PeriodMonth.Since(now), time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("month since = %v, want %v", got, want)
	}
	if got, want := PeriodYear.Since(now), time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("year since = %v, want %v", got, want)
	}
	if _, err := ParseStatsPeriod("week"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestBalanceOf(t *testing.T) {
	pkgs := []Package{
		{Status: StatusCompleted, TotalSessions: 5, RemainingSessions: 2},
		{Status: StatusCompleted, TotalSessions: 1, RemainingSessions: 0},
		{Status: StatusPending, TotalSessions: 10, RemainingSessions: 10},
		{Status: StatusCancelled, TotalSessions: 10, RemainingSessions: 10},
	}
	b := BalanceOf("owner-1", pkgs)
	if b.RemainingSessions != 2 {
		t.Errorf("remaining = %d, want 2", b.RemainingSessions)
	}
	if b.TotalSessions != 6 {
		t.Errorf("total = %d, want 6", b.TotalSessions)
	}
	if b.CompletedPackages != 2 || b.PendingPackages != 1 {
		t.Errorf("completed/pending = %d/%d, want 2/1", b.CompletedPackages, b.PendingPackages)
	}
}

func TestLookupOffer(t *testing.T) {
	o, ok := LookupOffer(KindCard5)
	if !ok {
		t.Fatal("card_5 missing from catalog")
	}
	if o.Sessions != 5 || o.PriceCents != 45000 {
		t.Errorf("card_5 = %d sessions / %d cents, want 5 / 45000", o.Sessions, o.PriceCents)
	}
	if _, ok := LookupOffer(KindCustom); ok {
		t.Error("custom should have no catalog entry")
	}
	if got := SessionsLabel(1); got != "1 heure de cours de yoga" {
		t.Errorf("SessionsLabel(1) = %q", got)
	}
}

func TestEnumJSONRejectsUnknown(t *testing.T) {
	var p struct {
		Kind   PackageKind   `json:"kind"`
		Status PackageStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"card_10","status":"completed"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Kind != KindCard10 || p.Status != StatusCompleted {
		t.Errorf("got %q/%q", p.Kind, p.Status)
	}
	if err := json.Unmarshal([]byte(`{"kind":"card_20"}`), &p); err == nil {
		t.Error("expected error for unknown kind")
	}
	if err := json.Unmarshal([]byte(`{"status":"refunded"}`), &p); err == nil {
		t.Error("expected error for unknown status")
	}
}
