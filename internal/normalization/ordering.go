package normalization

import (
	"sort"

	"fx-calendar-lab/internal/domain"
)

// SortEvents orders events by (when_utc ASC with undefined last, date_local ASC,
// currency ASC, event_id ASC). This is the canonical corpus order.
func SortEvents(events []*domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// SortScored orders scored events by the canonical corpus order.
func SortScored(events []*domain.ScoredEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(&events[i].Event, &events[j].Event) < 0
	})
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareEvents(a, b *domain.Event) int {
	switch {
	case a.WhenUTC != nil && b.WhenUTC == nil:
		return -1
	case a.WhenUTC == nil && b.WhenUTC != nil:
		return 1
	case a.WhenUTC != nil && b.WhenUTC != nil && !a.WhenUTC.Equal(*b.WhenUTC):
		if a.WhenUTC.Before(*b.WhenUTC) {
			return -1
		}
		return 1
	}
	if a.DateLocal != b.DateLocal {
		if a.DateLocal < b.DateLocal {
			return -1
		}
		return 1
	}
	if a.Currency != b.Currency {
		if a.Currency < b.Currency {
			return -1
		}
		return 1
	}
	if a.EventID != b.EventID {
		if a.EventID < b.EventID {
			return -1
		}
		return 1
	}
	return 0
}

// DedupeByID keeps the first occurrence of each event_id and folds later
// occurrences into it with Event.MergeFill. Input order of first occurrences is kept.
func DedupeByID(events []*domain.Event) []*domain.Event {
	index := make(map[string]int, len(events))
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if i, ok := index[e.EventID]; ok {
			out[i].MergeFill(e)
			continue
		}
		index[e.EventID] = len(out)
		out = append(out, e.Clone())
	}
	return out
}
