package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultDocumentName identifies the leaderboard document row.
const DefaultDocumentName = "leaderboard"

var errMissingDatabase = errors.New("database handle is required")

// DocumentRecord stores the whole leaderboard document as one JSON payload.
type DocumentRecord struct {
	Name      string         `gorm:"column:name;primaryKey;size:64;not null"`
	Payload   datatypes.JSON `gorm:"column:payload;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DocumentRecord) TableName() string {
	return "leaderboard_documents"
}

// GormStore persists the document in a single SQL row. Works with any gorm dialect.
type GormStore struct {
	db    *gorm.DB
	name  string
	clock func() time.Time
}

// NewGormStore binds the store to a migrated database handle.
func NewGormStore(db *gorm.DB, name string) (*GormStore, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDocumentName
	}
	return &GormStore{db: db, name: name, clock: time.Now}, nil
}

func (store *GormStore) Load(ctx context.Context) (leaderboard.Document, error) {
	var record DocumentRecord
	err := store.db.WithContext(ctx).Where("name = ?", store.name).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaderboard.Document{}, leaderboard.ErrDocumentMissing
	}
	if err != nil {
		return leaderboard.Document{}, leaderboard.NewStorageError("load", err)
	}
	return leaderboard.DecodeDocument(record.Payload)
}

func (store *GormStore) Save(ctx context.Context, document leaderboard.Document) error {
	record, err := store.record(document)
	if err != nil {
		return err
	}
	transactionErr := store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return transaction.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&record).Error
	})
	if transactionErr != nil {
		return leaderboard.NewStorageError("save", transactionErr)
	}
	return nil
}

func (store *GormStore) Initialize(ctx context.Context, seed leaderboard.Document) (bool, error) {
	record, err := store.record(seed)
	if err != nil {
		return false, err
	}
	result := store.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		return false, leaderboard.NewStorageError("initialize", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (store *GormStore) record(document leaderboard.Document) (DocumentRecord, error) {
	payload, err := leaderboard.EncodeDocument(document)
	if err != nil {
		return DocumentRecord{}, leaderboard.NewStorageError("encode", err)
	}
	return DocumentRecord{
		Name:      store.name,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: store.clock().UTC(),
	}, nil
}
