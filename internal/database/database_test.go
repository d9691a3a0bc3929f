package database

import (
	"path/filepath"
	"testing"
	"time"

	"eshop/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eshop.db")

	db, err := New("sqlite://" + path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())

	for _, model := range models.All() {
		assert.True(t, db.DB.Migrator().HasTable(model), "%T table", model)
	}

	entry := models.ConfigEntry{Key: "site-menu", Value: `{"mobileMenuEnabled":true}`}
	require.NoError(t, db.DB.Create(&entry).Error)

	var stored models.ConfigEntry
	require.NoError(t, db.DB.First(&stored, "key = ?", "site-menu").Error)
	assert.Equal(t, entry.Value, stored.Value)
}

func TestOpenPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := OpenPostgres(sqlDB, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"key", "value", "updated_at"}).
		AddRow("admin-menu", "[]", time.Now())
	mock.ExpectQuery(`SELECT \* FROM "config" WHERE key = \$1`).
		WithArgs("admin-menu", 1).
		WillReturnRows(rows)

	var entry models.ConfigEntry
	require.NoError(t, db.First(&entry, "key = ?", "admin-menu").Error)
	assert.Equal(t, "[]", entry.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := New("sqlite://" + filepath.Join(t.TempDir(), "eshop.db"))
	require.NoError(t, err)
	defer db.Close()

	entry := models.ConfigEntry{Key: "site-links", Value: "{}"}
	require.NoError(t, db.DB.Create(&entry).Error)
	duplicate := models.ConfigEntry{Key: "site-links", Value: "{}"}
	err = db.DB.Create(&duplicate).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
}
