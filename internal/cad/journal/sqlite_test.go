package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "journal.db"))
	require.NoError(t, err)
	j := New(db)
	t.Cleanup(func() { _ = j.Close() })
	require.NoError(t, j.Init(context.Background()))
	return j
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openJournal(t)

	require.NoError(t, j.Record(ctx, Entry{Method: "ping", Success: true, Duration: 2 * time.Millisecond}))
	require.NoError(t, j.Record(ctx, Entry{Method: "create_object", Error: "Object 'Box' already exists in document 'Doc'."}))
	require.NoError(t, j.Record(ctx, Entry{Method: "get_objects", Success: true}))

	entries, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "get_objects", entries[0].Method)
	assert.Equal(t, "create_object", entries[1].Method)
	assert.False(t, entries[1].Success)
	assert.Contains(t, entries[1].Error, "already exists")
	assert.NotEmpty(t, entries[0].ID)
	assert.WithinDuration(t, time.Now(), entries[0].CreatedAt, time.Minute)

	all, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2*time.Millisecond, all[2].Duration)
	assert.True(t, all[2].Success)
}

func TestInitIsIdempotent(t *testing.T) {
	j := openJournal(t)
	require.NoError(t, j.Init(context.Background()))

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
