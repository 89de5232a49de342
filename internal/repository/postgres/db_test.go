package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"

	"ridehail/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505"}
	if !isUniqueViolation(dup) {
		t.Error("expected unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", dup)) {
		t.Error("expected wrapped unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) || isUniqueViolation(nil) {
		t.Error("plain errors are not unique violations")
	}
}

func TestNullTimeRoundTrip(t *testing.T) {
	if nt := nullTime(nil); nt.Valid {
		t.Error("nil time should map to NULL")
	}
	now := time.Now()
	nt := nullTime(&now)
	if !nt.Valid {
		t.Fatal("expected valid NullTime")
	}
	back := timePtr(nt)
	if back == nil || !back.Equal(now) {
		t.Errorf("expected %v, got %v", now, back)
	}
}

func TestMilestoneColumns(t *testing.T) {
	for _, s := range []domain.JourneyStatus{domain.JourneyStatusAccepted, domain.JourneyStatusArrived, domain.JourneyStatusStarted} {
		if _, ok := milestoneColumns[s]; !ok {
			t.Errorf("missing milestone column for %s", s)
		}
	}
	if _, ok := milestoneColumns[domain.JourneyStatusCompleted]; ok {
		t.Error("completion is written by Complete, not AdvanceStatus")
	}
}
