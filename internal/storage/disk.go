package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"health-assistant/internal/model"
	"health-assistant/pkg/logger"
)

// DiskStorage keeps one JSON file per user under <dataDir>/records, holding
// that user's records oldest first.
type DiskStorage struct {
	dataDir string
	mu      sync.RWMutex
}

func NewDiskStorage(dataDir string) *DiskStorage {
	return &DiskStorage{dataDir: dataDir}
}

func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(d.recordsDir(), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("Disk storage initialized at %s", d.dataDir)
	return nil
}

func (d *DiskStorage) Close() error {
	return nil
}

func (d *DiskStorage) Create(ctx context.Context, record *model.ChatRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.loadRecords(record.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	records = append(records, record)
	if err := d.saveRecords(record.UserID, records); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskStorage) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ChatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	records, err := d.loadRecords(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return newestFirst(records, limit), nil
}

func (d *DiskStorage) recordsDir() string {
	return filepath.Join(d.dataDir, "records")
}

// userFile encodes the user ID so arbitrary identifiers are safe file names.
func (d *DiskStorage) userFile(userID string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(userID))
	return filepath.Join(d.recordsDir(), name+".json")
}

func (d *DiskStorage) loadRecords(userID string) ([]*model.ChatRecord, error) {
	data, err := os.ReadFile(d.userFile(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []*model.ChatRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return records, nil
}

func (d *DiskStorage) saveRecords(userID string, records []*model.ChatRecord) error {
	path := d.userFile(userID)
	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
