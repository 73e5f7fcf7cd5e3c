// Package events defines the port for announcing completed ingestion runs.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SubjectIngested is the default subject for Ingested events.
const SubjectIngested = "subete.repo.ingested"

// Ingested summarizes one successful ingestion run.
type Ingested struct {
	RunID           string    `json:"run_id"`
	ArchiveRevision string    `json:"archive_revision,omitempty"`
	DocsRevision    string    `json:"docs_revision,omitempty"`
	Languages       int       `json:"languages"`
	Programs        int       `json:"programs"`
	Projects        int       `json:"projects"`
	Tested          int       `json:"tested"`
	Untestable      int       `json:"untestable"`
	Enriched        bool      `json:"enriched"`
	DurationMillis  int64     `json:"duration_ms"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Publisher delivers Ingested events.
type Publisher interface {
	Publish(ctx context.Context, ev Ingested) error
}

// Encode validates ev and marshals it to JSON.
func Encode(ev Ingested) ([]byte, error) {
	if ev.RunID == "" {
		return nil, errors.New("events: run_id is required")
	}
	if ev.CompletedAt.IsZero() {
		return nil, errors.New("events: completed_at is required")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("events: encode: %w", err)
	}
	return data, nil
}

// Decode parses an Ingested payload.
func Decode(data []byte) (Ingested, error) {
	var ev Ingested
	if err := json.Unmarshal(data, &ev); err != nil {
		return Ingested{}, fmt.Errorf("events: decode: %w", err)
	}
	if ev.RunID == "" {
		return Ingested{}, errors.New("events: run_id is required")
	}
	return ev, nil
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Ingested) error { return nil }
