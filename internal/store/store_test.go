package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/db"
)

type failingBackend struct{}

func (failingBackend) GetValue(string, string) (string, error) { return "", errors.New("disk on fire") }
func (failingBackend) SetValue(string, string, string) error   { return errors.New("disk on fire") }

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

func TestGet_MissingReturnsDefault(t *testing.T) {
	s := New(newTestDB(t), "s1")
	assert.Equal(t, 6, Get(s, KeyQty, 6))
	assert.Equal(t, "baker", Get(s, KeyPersona, "baker"))
}

func TestSaveThenGet(t *testing.T) {
	s := New(newTestDB(t), "s1")
	require.NoError(t, s.Save(KeyFlavors, []string{"Chocolate Chip", "Peanut Butter"}))
	require.NoError(t, s.Save(KeyMilk, true))

	assert.Equal(t, []string{"Chocolate Chip", "Peanut Butter"}, Get(s, KeyFlavors, []string{}))
	assert.True(t, Get(s, KeyMilk, false))
}

func TestGet_CorruptReturnsDefault(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.SetValue("s1", KeyQty, "{not json"))
	require.NoError(t, database.SetValue("s1", KeyFlavors, `"a string, not a list"`))

	s := New(database, "s1")
	assert.Equal(t, 6, Get(s, KeyQty, 6))
	assert.Equal(t, []string{}, Get(s, KeyFlavors, []string{}))
}

func TestGet_BackendFailureReturnsDefault(t *testing.T) {
	s := New(failingBackend{}, "s1")
	assert.Equal(t, "neutral", Get(s, KeySentiment, "neutral"))
	assert.Error(t, s.Save(KeySentiment, "focused"))
}

func TestScopesAreIsolated(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, New(database, "a").Save(KeyCustomPrompt, "custom"))
	assert.Equal(t, "", Get(New(database, "b"), KeyCustomPrompt, ""))
}

func TestSaveSurvivesNewStore(t *testing.T) {
	database := newTestDB(t)

	s := New(database, "s1")
	require.NoError(t, s.Save(KeyQty, 12))
	assert.Equal(t, 12, Get(s, KeyQty, 6))

	// A fresh Store over the same database sees the value
	assert.Equal(t, 12, Get(New(database, "s1"), KeyQty, 6))
}
