package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"health-assistant/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatRecordModel is the table row for a model.ChatRecord. The nested parts
// are stored as JSON columns.
type ChatRecordModel struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)"`
	UserID          string         `gorm:"index:idx_chat_records_user_created,priority:1;type:varchar(191);not null"`
	Messages        datatypes.JSON `gorm:"not null"`
	Symptoms        datatypes.JSON `gorm:"not null"`
	IsEmergency     bool           `gorm:"not null;default:false"`
	UrgencyLevel    string         `gorm:"type:varchar(16);not null"`
	Recommendations datatypes.JSON `gorm:"not null"`
	CreatedAt       time.Time      `gorm:"index:idx_chat_records_user_created,priority:2"`
}

func (ChatRecordModel) TableName() string {
	return "health_chats"
}

func recordToModel(r *model.ChatRecord) (*ChatRecordModel, error) {
	messages, err := json.Marshal(r.Messages)
	if err != nil {
		return nil, err
	}
	symptoms, err := json.Marshal(r.Symptoms)
	if err != nil {
		return nil, err
	}
	recommendations, err := json.Marshal(r.Recommendations)
	if err != nil {
		return nil, err
	}

	return &ChatRecordModel{
		ID:              r.ID,
		UserID:          r.UserID,
		Messages:        datatypes.JSON(messages),
		Symptoms:        datatypes.JSON(symptoms),
		IsEmergency:     r.IsEmergency,
		UrgencyLevel:    string(r.UrgencyLevel),
		Recommendations: datatypes.JSON(recommendations),
		CreatedAt:       r.CreatedAt,
	}, nil
}

func (m *ChatRecordModel) toRecord() (*model.ChatRecord, error) {
	r := &model.ChatRecord{
		ID:           m.ID,
		UserID:       m.UserID,
		IsEmergency:  m.IsEmergency,
		UrgencyLevel: model.Urgency(m.UrgencyLevel),
		CreatedAt:    m.CreatedAt,
	}
	if err := json.Unmarshal(m.Messages, &r.Messages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(m.Symptoms, &r.Symptoms); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(m.Recommendations, &r.Recommendations); err != nil {
		return nil, err
	}
	return r, nil
}

// GormStorage stores chat records in a SQL database.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (g *GormStorage) Init() error {
	if err := g.db.AutoMigrate(&ChatRecordModel{}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	return nil
}

func (g *GormStorage) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *GormStorage) Create(ctx context.Context, record *model.ChatRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	row, err := recordToModel(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	if err := g.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

func (g *GormStorage) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ChatRecord, error) {
	query := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []ChatRecordModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	records := make([]*model.ChatRecord, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		records = append(records, r)
	}
	return records, nil
}
