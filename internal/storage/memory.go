package storage

import (
	"context"
	"sync"

	"health-assistant/internal/model"
)

type MemoryStorage struct {
	records map[string][]*model.ChatRecord
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string][]*model.ChatRecord),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Create(ctx context.Context, record *model.ChatRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *record
	m.records[record.UserID] = append(m.records[record.UserID], &stored)
	return nil
}

func (m *MemoryStorage) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ChatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return newestFirst(m.records[userID], limit), nil
}

// newestFirst copies records (stored oldest first) in reverse order.
func newestFirst(records []*model.ChatRecord, limit int) []*model.ChatRecord {
	n := len(records)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]*model.ChatRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(result) < n; i-- {
		r := *records[i]
		result = append(result, &r)
	}
	return result
}

func validateRecord(record *model.ChatRecord) error {
	if record == nil || record.UserID == "" || record.ID == "" {
		return ErrInvalidData
	}
	return nil
}
