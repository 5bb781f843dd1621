package backup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

func TestHistory_NewestFirstAndCapped(t *testing.T) {
	m, _ := newManager(t, &fakeAPI{}, WithHistorySize(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow.Add(time.Duration(i) * time.Minute), Status: StatusSuccess})
	}

	h, err := m.History(ctx)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, fixedNow.Add(4*time.Minute), h[0].Timestamp)
	assert.Equal(t, fixedNow.Add(2*time.Minute), h[2].Timestamp)
	for _, e := range h {
		assert.Contains(t, e.ID, "backup_")
	}
}

func TestHistory_CorruptValueIsEmpty(t *testing.T) {
	m, repo := newManager(t, &fakeAPI{})
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, common.KeyBackupHistory, []byte("{oops")))

	h, err := m.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)

	m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow, Status: StatusFailed})
	h, err = m.History(ctx)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestStats(t *testing.T) {
	m, _ := newManager(t, &fakeAPI{})
	ctx := context.Background()

	m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow.Add(-10 * 24 * time.Hour), Status: StatusSuccess, Duration: 4 * time.Second})
	m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow.Add(-3 * 24 * time.Hour), Status: StatusFailed})
	m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow.Add(-2 * time.Hour), Status: StatusSuccess, Duration: 2 * time.Second})

	s, err := m.Stats(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.RecentWeek)
	assert.Equal(t, 1, s.Today)
	assert.Equal(t, 3*time.Second, s.AvgDuration)
	require.NotNil(t, s.LastBackup)
	assert.Equal(t, fixedNow.Add(-2*time.Hour), s.LastBackup.Timestamp)
}

func TestStats_Empty(t *testing.T) {
	m, _ := newManager(t, &fakeAPI{})

	s, err := m.Stats(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Nil(t, s.LastBackup)
	assert.Zero(t, s.AvgDuration)
}

func TestShouldPerform(t *testing.T) {
	m, _ := newManager(t, &fakeAPI{})
	ctx := context.Background()

	assert.True(t, m.ShouldPerform(ctx, fixedNow))

	m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow.Add(-30 * time.Minute), Status: StatusSuccess})
	assert.False(t, m.ShouldPerform(ctx, fixedNow))
	assert.True(t, m.ShouldPerform(ctx, fixedNow.Add(31*time.Minute)))
}

func TestClearHistory(t *testing.T) {
	m, repo := newManager(t, &fakeAPI{})
	ctx := context.Background()
	m.addToHistory(ctx, HistoryEntry{Timestamp: fixedNow, Status: StatusSuccess})

	require.NoError(t, m.ClearHistory(ctx))

	raw, err := repo.Get(ctx, common.KeyBackupHistory)
	require.NoError(t, err)
	assert.Nil(t, raw)

	h, err := m.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)
}
