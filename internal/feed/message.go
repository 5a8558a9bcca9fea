// Package feed serves the latest filtered pair signals to the price-join
// consumer over HTTP and WebSocket.
package feed

import (
	"time"

	"fx-calendar-lab/internal/domain"
)

// Message types pushed on the stream.
const (
	TypeSnapshot = "snapshot" // sent once on connect
	TypeBatch    = "batch"    // sent on every Publish
)

// Signal is the wire form of one filtered pair signal.
type Signal struct {
	SignalID      string   `json:"signal_id"`
	EventID       string   `json:"event_id"`
	Pair          string   `json:"pair"`
	DirectionSign int      `json:"direction_sign"`
	WhenUTC       string   `json:"when_utc"`
	ImpactNum     int      `json:"impact_num"`
	SurpriseZ     *float64 `json:"surprise_z"`
	Currency      string   `json:"currency"`
	Title         string   `json:"title"`
}

// Message is one stream frame or the body of GET /v1/signals.
type Message struct {
	Type        string   `json:"type,omitempty"`
	RunID       string   `json:"run_id"`
	PublishedAt string   `json:"published_at,omitempty"`
	Signals     []Signal `json:"signals"`
}

// ToSignal converts a pair signal to its wire form.
func ToSignal(p *domain.PairSignal) Signal {
	s := Signal{
		SignalID:      p.SignalID,
		EventID:       p.EventID,
		Pair:          p.Pair,
		DirectionSign: p.DirectionSign,
		WhenUTC:       p.WhenISO(),
		ImpactNum:     p.ImpactNum(),
		Currency:      p.Currency,
		Title:         p.Title,
	}
	if p.SurpriseZ != nil {
		z := *p.SurpriseZ
		s.SurpriseZ = &z
	}
	return s
}

// Snapshot is the most recently published batch.
type Snapshot struct {
	RunID       string
	PublishedAt time.Time
	Signals     []Signal
}

func (s Snapshot) message(msgType string) Message {
	m := Message{
		Type:    msgType,
		RunID:   s.RunID,
		Signals: s.Signals,
	}
	if m.Signals == nil {
		m.Signals = []Signal{}
	}
	if !s.PublishedAt.IsZero() {
		m.PublishedAt = s.PublishedAt.UTC().Format(time.RFC3339)
	}
	return m
}
