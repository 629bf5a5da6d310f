package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/compass-wrapped/internal/domain/model"
)

// MemoryStore keeps records in process memory. It is safe for concurrent
// use and loses its contents on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.UserStats
	cfg     settings
}

// NewMemoryStore creates an empty MemoryStore. Only WithClock applies.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{cfg: *newSettings(opts)}
}

// Insert appends a copy of stats.
func (s *MemoryStore) Insert(ctx context.Context, stats *model.UserStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stats.ID = uuid.NewString()
	stats.CreatedAt = s.cfg.now().UTC()

	s.mu.Lock()
	s.records = append(s.records, clone(*stats))
	s.mu.Unlock()
	return nil
}

// Latest returns the last inserted record of userID.
func (s *MemoryStore) Latest(ctx context.Context, userID string) (model.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return model.UserStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID {
			return clone(s.records[i]), nil
		}
	}
	return model.UserStats{}, ErrNotFound
}

// ListByPeriod returns matching records in insertion order.
func (s *MemoryStore) ListByPeriod(ctx context.Context, periodType string) ([]model.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserStats, 0, len(s.records))
	for i := range s.records {
		if s.records[i].TimePeriod.PeriodType == periodType {
			out = append(out, clone(s.records[i]))
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func clone(s model.UserStats) model.UserStats {
	s.TopStops = append([]model.NamedCount(nil), s.TopStops...)
	s.TopRoutes = append([]model.NamedCount(nil), s.TopRoutes...)
	if s.Estimate != nil {
		e := *s.Estimate
		s.Estimate = &e
	}
	return s
}
