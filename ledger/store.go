// Package ledger keeps a history of settled hands. It is a log only: stacks
// are never restored from it.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/domain/events"
)

const defaultRecentLimit = 50

var ErrEmptyPath = errors.New("empty ledger database path")

// HandRecord is one settled hand as stored in the ledger.
type HandRecord struct {
	TableID     string            `json:"tableId"`
	HandID      string            `json:"handId"`
	HandNumber  int               `json:"handNumber"`
	Pot         int               `json:"pot"`
	Distributed int               `json:"distributed"`
	Remainder   int               `json:"remainder"`
	WinByFold   bool              `json:"winByFold"`
	Refunded    bool              `json:"refunded"`
	Board       string            `json:"board"`
	Winners     []events.Winner   `json:"winners"`
	Rankings    []events.Standing `json:"rankings"`
	SettledAt   time.Time         `json:"settledAt"`
}

// NewHandRecord converts a table settlement into a ledger row.
func NewHandRecord(tableID string, s *domain.Settlement) HandRecord {
	return HandRecord{
		TableID:     tableID,
		HandID:      s.HandID,
		HandNumber:  s.HandNumber,
		Pot:         s.Pot,
		Distributed: s.Distributed,
		Remainder:   s.Remainder,
		WinByFold:   s.WinByFold,
		Refunded:    s.Refunded,
		Board:       s.Board.String(),
		Winners:     s.Winners,
		Rankings:    s.Rankings,
		SettledAt:   s.SettledAt,
	}
}

type Store interface {
	RecordHand(ctx context.Context, rec HandRecord) error
	// RecentHands returns the latest hands of a table, newest first.
	RecentHands(ctx context.Context, tableID string, limit int) ([]HandRecord, error)
	Close() error
}

// NopStore discards everything. Used when no ledger path is configured.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) RecordHand(context.Context, HandRecord) error { return nil }

func (NopStore) RecentHands(context.Context, string, int) ([]HandRecord, error) {
	return []HandRecord{}, nil
}

func (NopStore) Close() error { return nil }
