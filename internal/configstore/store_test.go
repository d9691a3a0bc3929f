package configstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menu struct {
	MobileMenuEnabled bool     `json:"mobileMenuEnabled"`
	Items             []string `json:"items"`
}

func newStore(t *testing.T) (*Store, string) {
	dir := t.TempDir()
	return New(testutil.NewDB(t), logger.NewNop(), dir), dir
}

func storedValue(t *testing.T, s *Store, key string) string {
	var entry models.ConfigEntry
	require.NoError(t, s.db.First(&entry, "key = ?", key).Error)
	return entry.Value
}

func TestReadDefaultIsPersisted(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	value, err := Read(ctx, s, "unknown-key", menu{MobileMenuEnabled: true})
	require.NoError(t, err)
	assert.True(t, value.MobileMenuEnabled)
	assert.JSONEq(t, `{"mobileMenuEnabled":true,"items":null}`, storedValue(t, s, "unknown-key"))
}

func TestWriteThenRead(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, Write(ctx, s, KeySiteMenu, menu{Items: []string{"home"}}))
	require.NoError(t, Write(ctx, s, KeySiteMenu, menu{Items: []string{"home", "shop"}}))

	value, err := Read(ctx, s, KeySiteMenu, menu{})
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "shop"}, value.Items)

	var count int64
	s.db.Model(&models.ConfigEntry{}).Where("key = ?", KeySiteMenu).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestReadLegacyFileWithBOM(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"mobileMenuEnabled":true,"items":["legacy"]}`)...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "menuSettings.json"), content, 0o644))

	value, err := Read(ctx, s, KeySiteMenu, menu{})
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy"}, value.Items)
	assert.Contains(t, storedValue(t, s, KeySiteMenu), "legacy")
}

func TestReadInvalidOrNullFallsBack(t *testing.T) {
	for name, raw := range map[string]string{
		"null":    "null",
		"invalid": "{not json",
		"empty":   "",
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newStore(t)
			ctx := context.Background()
			require.NoError(t, s.save(ctx, "custom", raw))

			value, err := Read(ctx, s, "custom", menu{Items: []string{"default"}})
			require.NoError(t, err)
			assert.Equal(t, []string{"default"}, value.Items)
			assert.Contains(t, storedValue(t, s, "custom"), "default")
		})
	}
}

func TestRegisterLegacy(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "offset.json"), []byte("42"), 0o644))
	s.RegisterLegacy(KeyTelegramOffset, "offset.json")

	offset, err := Read(ctx, s, KeyTelegramOffset, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, offset)
}

func TestReadMergedKeepsDefaultsForMissingFields(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.save(ctx, KeySiteMenu, `{"items":["stored"]}`))

	defaults := func() menu { return menu{MobileMenuEnabled: true, Items: []string{"default"}} }
	value, err := ReadMerged(ctx, s, KeySiteMenu, defaults)
	require.NoError(t, err)
	assert.True(t, value.MobileMenuEnabled)
	assert.Equal(t, []string{"stored"}, value.Items)
}

func TestReadMergedWrongShape(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.save(ctx, KeySiteMenu, `"just a string"`))

	value, err := ReadMerged(ctx, s, KeySiteMenu, func() menu { return menu{Items: []string{"default"}} })
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, value.Items)
}
