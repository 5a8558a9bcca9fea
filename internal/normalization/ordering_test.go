package normalization

import (
	"testing"
	"time"

	"fx-calendar-lab/internal/domain"
)

func at(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func TestSortEvents(t *testing.T) {
	events := []*domain.Event{
		{EventID: "d", DateLocal: "2025-01-10", Currency: "USD"},
		{EventID: "c", DateLocal: "2025-01-10", Currency: "EUR", WhenUTC: at("2025-01-10T13:30:00Z")},
		{EventID: "b", DateLocal: "2025-01-10", Currency: "USD", WhenUTC: at("2025-01-10T13:30:00Z")},
		{EventID: "a", DateLocal: "2025-01-09", Currency: "USD", WhenUTC: at("2025-01-10T13:30:00Z")},
		{EventID: "e", DateLocal: "2025-01-10", Currency: "JPY", WhenUTC: at("2025-01-09T23:50:00Z")},
	}

	SortEvents(events)

	want := []string{"e", "a", "c", "b", "d"}
	for i, id := range want {
		if events[i].EventID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, events[i].EventID)
		}
	}
}

func TestDedupeByID(t *testing.T) {
	v := 1.5
	kind := domain.KindPct
	events := []*domain.Event{
		{EventID: "x", Title: "CPI m/m"},
		{EventID: "y", Title: "GDP q/q"},
		{EventID: "x", Title: "CPI m/m", Actual: "1.5%", ActualVal: &v, ActualKind: &kind},
	}

	out := DedupeByID(events)

	if len(out) != 2 {
		t.Fatalf("expected 2 events, got %d", len(out))
	}
	if out[0].EventID != "x" || out[0].Actual != "1.5%" {
		t.Errorf("expected merged actual on x, got %+v", out[0])
	}
	if events[0].Actual != "" {
		t.Errorf("input event was mutated")
	}
}
