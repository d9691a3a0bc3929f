// Package configstore keeps JSON settings documents in the config table.
package configstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"eshop/internal/logger"
	"eshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Keys of the documents kept in the store.
const (
	KeyChatSettings     = "chat-settings"
	KeyInvoiceTemplate  = "invoice-template"
	KeyFlexibeeSettings = "flexibee-settings"
	KeySiteVisual       = "site-visual"
	KeySiteLinks        = "site-links"
	KeySiteMenu         = "site-menu"
	KeySiteSettings     = "site-settings"
	KeyAdminMenu        = "admin-menu"
	KeyTelegramOffset   = "telegram-update-offset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Store struct {
	db      *gorm.DB
	logger  *logger.Logger
	dataDir string

	mu     sync.RWMutex
	legacy map[string]string
}

func New(db *gorm.DB, logger *logger.Logger, dataDir string) *Store {
	s := &Store{
		db:      db,
		logger:  logger,
		dataDir: dataDir,
		legacy:  make(map[string]string),
	}

	// Files written by deployments that predate the config table.
	s.RegisterLegacy(KeyChatSettings, "chatSettings.json")
	s.RegisterLegacy(KeyInvoiceTemplate, "invoiceTemplate.json")
	s.RegisterLegacy(KeyFlexibeeSettings, "flexibee-settings.json")
	s.RegisterLegacy(KeySiteVisual, "siteSettings.json")
	s.RegisterLegacy(KeySiteLinks, "siteSettings.json")
	s.RegisterLegacy(KeySiteMenu, "menuSettings.json")
	s.RegisterLegacy(KeySiteSettings, "siteSettings.json")
	s.RegisterLegacy(KeyAdminMenu, "adminMenu.json")

	return s
}

// RegisterLegacy points key at a JSON file under the data directory.
func (s *Store) RegisterLegacy(key, file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacy[key] = file
}

// Read returns the document stored under key. When nothing usable is stored
// the legacy file or def is used and written back.
func Read[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, found, err := s.load(ctx, key)
	if err != nil {
		return def, err
	}

	if found {
		if value, ok := decode[T](raw); ok {
			return value, nil
		}
		s.logger.Warn("Unable to parse config value for %s", key)
	}

	value := def
	if legacy, ok := s.readLegacy(key); ok {
		if parsed, ok := decode[T](legacy); ok {
			value = parsed
		}
	}

	if err := Write(ctx, s, key, value); err != nil {
		return value, err
	}
	return value, nil
}

// ReadMerged decodes the stored document over a fresh defaults value, so
// fields missing from older documents keep their default.
func ReadMerged[T any](ctx context.Context, s *Store, key string, defaults func() T) (T, error) {
	def, err := json.Marshal(defaults())
	if err != nil {
		return defaults(), fmt.Errorf("failed to encode %s defaults: %w", key, err)
	}

	raw, err := Read(ctx, s, key, json.RawMessage(def))
	if err != nil {
		return defaults(), err
	}

	value := defaults()
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("Unable to merge config value for %s: %v", key, err)
		return defaults(), nil
	}
	return value, nil
}

// Write replaces the document stored under key.
func Write[T any](ctx context.Context, s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.save(ctx, key, string(data))
}

func (s *Store) load(ctx context.Context, key string) (string, bool, error) {
	var entry models.ConfigEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load config %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *Store) save(ctx context.Context, key, value string) error {
	entry := models.ConfigEntry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save config %s: %w", key, err)
	}
	return nil
}

func (s *Store) readLegacy(key string) (string, bool) {
	s.mu.RLock()
	file, ok := s.legacy[key]
	s.mu.RUnlock()
	if !ok || s.dataDir == "" {
		return "", false
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, file))
	if err != nil {
		return "", false
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), true
}

// decode treats empty input and a JSON null as missing.
func decode[T any](raw string) (T, bool) {
	var value T
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return value, false
	}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return value, false
	}
	return value, true
}
