// Package archive keeps a copy of the messages found on the SIM in a sqlite
// database, so they survive the SIM being emptied.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"i4.energy/across/simmodem/modem"
)

// ErrNoPath is returned by Open for an empty database path.
var ErrNoPath = errors.New("archive: database path is required")

// Message is an archived SMS. A message is identified by its sender, its
// timestamp and its text; the slot it occupied on the SIM is kept for
// reference only since slots are reused.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slot       int       `json:"slot"`
	Status     string    `json:"status"`
	Sender     string    `gorm:"uniqueIndex:idx_message" json:"sender"`
	Date       string    `gorm:"uniqueIndex:idx_message" json:"date"`
	Time       string    `gorm:"uniqueIndex:idx_message" json:"time"`
	Text       string    `gorm:"uniqueIndex:idx_message" json:"text"`
	ArchivedAt time.Time `gorm:"autoCreateTime" json:"archived_at"`
}

func fromSMS(sms modem.SMS) Message {
	return Message{
		Slot:   sms.Index,
		Status: sms.Status,
		Sender: sms.Sender,
		Date:   sms.Date,
		Time:   sms.Time,
		Text:   sms.Text,
	}
}

// Store is an SMS archive backed by sqlite. It is safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates its schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Message{}); err != nil {
		return nil, fmt.Errorf("archive: failed to auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save archives the given messages and returns how many were new. Messages
// already archived are skipped.
func (s *Store) Save(list []modem.SMS) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	msgs := make([]Message, 0, len(list))
	for _, sms := range list {
		msgs = append(msgs, fromSMS(sms))
	}

	ret := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&msgs)
	if ret.Error != nil {
		return 0, fmt.Errorf("archive: failed to save messages: %w", ret.Error)
	}
	return int(ret.RowsAffected), nil
}

// List returns the most recently archived messages first. A limit of zero
// or less returns all of them.
func (s *Store) List(limit int) ([]Message, error) {
	query := s.db.Model(&Message{}).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var msgs []Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("archive: failed to query messages: %w", err)
	}
	return msgs, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
