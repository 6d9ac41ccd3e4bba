package storage

import (
	"context"

	"health-assistant/internal/model"
)

// ChatRecordStore persists triage exchanges. Records are append-only: the
// assistant never updates or deletes them.
type ChatRecordStore interface {
	Create(ctx context.Context, record *model.ChatRecord) error
	// ListByUser returns the newest records first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.ChatRecord, error)

	Init() error
	Close() error
}
