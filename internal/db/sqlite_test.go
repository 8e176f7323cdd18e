package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRecordCompletion(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	e := &AuditEntry{Outcome: "ok", Model: "gpt-4o-mini", MessageCount: 3, Status: 200, DurationMS: 420}
	require.NoError(t, d.RecordCompletion(ctx, e))
	assert.NotZero(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecentCompletions_NewestFirst(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for _, outcome := range []string{"ok", "rate_limited", "no_messages"} {
		require.NoError(t, d.RecordCompletion(ctx, &AuditEntry{Outcome: outcome, Model: "m", Status: 200}))
	}

	entries, err := d.RecentCompletions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "no_messages", entries[0].Outcome)
	assert.Equal(t, "rate_limited", entries[1].Outcome)
}

func TestRecentCompletions_Empty(t *testing.T) {
	d := newTestDB(t)
	entries, err := d.RecentCompletions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCountByOutcome(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	for _, outcome := range []string{"ok", "ok", "provider_error"} {
		require.NoError(t, d.RecordCompletion(ctx, &AuditEntry{Outcome: outcome, Model: "m", Status: 200}))
	}

	counts, err := d.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ok": 2, "provider_error": 1}, counts)
}
