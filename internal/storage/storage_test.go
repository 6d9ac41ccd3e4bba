package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"health-assistant/internal/config"
	"health-assistant/internal/model"
)

func newRecord(userID string, n int) *model.ChatRecord {
	created := time.Date(2025, 1, 1, 12, n, 0, 0, time.UTC)
	return &model.ChatRecord{
		ID:     fmt.Sprintf("%s-%d", userID, n),
		UserID: userID,
		Messages: []model.ChatMessage{
			{Role: model.RoleUser, Content: fmt.Sprintf("message %d", n), Timestamp: created},
			{Role: model.RoleAssistant, Content: "analysis", Timestamp: created},
		},
		Symptoms:     []string{"fever"},
		UrgencyLevel: model.UrgencyLow,
		Recommendations: model.TriageResponse{
			Analysis:   "analysis",
			Urgency:    model.UrgencyLow,
			Disclaimer: "educational",
		},
		CreatedAt: created,
	}
}

func exerciseStore(t *testing.T, store ChatRecordStore) {
	t.Helper()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := store.Create(ctx, newRecord("alice", i)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := store.Create(ctx, newRecord("bob", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := store.ListByUser(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListByUser returned %d records, want 3", len(all))
	}
	if all[0].ID != "alice-3" || all[2].ID != "alice-1" {
		t.Errorf("records not newest first: %s ... %s", all[0].ID, all[2].ID)
	}
	if all[0].Messages[0].Content != "message 3" || all[0].Symptoms[0] != "fever" {
		t.Errorf("record content not preserved: %+v", all[0])
	}
	if all[0].Recommendations.Disclaimer != "educational" {
		t.Errorf("recommendations not preserved: %+v", all[0].Recommendations)
	}

	limited, err := store.ListByUser(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "alice-3" {
		t.Errorf("limited list = %d records", len(limited))
	}

	none, err := store.ListByUser(ctx, "nobody", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown user has %d records", len(none))
	}

	if err := store.Create(ctx, &model.ChatRecord{ID: "x"}); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Create without user = %v, want ErrInvalidData", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, store)
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()
	if err := store.Create(ctx, newRecord("alice", 1)); err != nil {
		t.Fatal(err)
	}

	got, _ := store.ListByUser(ctx, "alice", 0)
	got[0].UrgencyLevel = model.UrgencyEmergency

	again, _ := store.ListByUser(ctx, "alice", 0)
	if again[0].UrgencyLevel != model.UrgencyLow {
		t.Error("stored record was mutated through a listed copy")
	}
}

func TestMemoryStorageCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryStorage().Create(ctx, newRecord("alice", 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Create = %v, want context.Canceled", err)
	}
}

func TestDiskStorage(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStorage(dir)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, store)

	reopened := NewDiskStorage(dir)
	if err := reopened.Init(); err != nil {
		t.Fatal(err)
	}
	records, err := reopened.ListByUser(context.Background(), "bob", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != "bob-1" {
		t.Errorf("reopened store lost records: %+v", records)
	}
}

func TestDiskStorageUnsafeUserID(t *testing.T) {
	store := NewDiskStorage(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(context.Background(), newRecord("../../etc/passwd", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(store.recordsDir(), "*.json"))
	if len(matches) != 1 {
		t.Errorf("expected one file inside the records dir, got %v", matches)
	}
}

func TestGormStorageSQLite(t *testing.T) {
	db, err := OpenDatabase(config.DatabaseConfig{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "chats.db"),
	})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}

	store := NewGormStorage(db)
	if err := store.Init(); err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New(config.StorageConfig{Type: "s3"}, config.DatabaseConfig{}); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
