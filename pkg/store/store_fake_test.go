package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(slug, state string, at time.Time) Snapshot {
	return Snapshot{
		Slug:       slug,
		Name:       slug,
		EntityID:   "sensor.skolmaten_" + slug,
		State:      state,
		Attributes: map[string]interface{}{"icon": "mdi:food"},
		Published:  true,
		UpdatedAt:  at,
	}
}

func TestFakeStore_Snapshots(t *testing.T) {
	store := NewFakeStore()

	_, err := store.GetSnapshot("svenstorps-forskola")
	assert.ErrorIs(t, err, ErrNotFound)

	snapshots, err := store.GetSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	at := time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC)
	require.NoError(t, store.SetSnapshot(testSnapshot("svenstorps-forskola", "Köttbullar", at)))
	require.NoError(t, store.SetSnapshot(testSnapshot("hovagens-forskola", "Fisk", at)))
	require.NoError(t, store.SetSnapshot(testSnapshot("svenstorps-forskola", "Pannkakor", at)))

	snapshot, err := store.GetSnapshot("svenstorps-forskola")
	require.NoError(t, err)
	assert.Equal(t, "Pannkakor", snapshot.State)

	snapshots, err = store.GetSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "hovagens-forskola", snapshots[0].Slug)
	assert.Equal(t, "svenstorps-forskola", snapshots[1].Slug)
}

func TestFakeStore_EventsLimit(t *testing.T) {
	store := NewFakeStore()

	for i := 0; i < maxEvents+10; i++ {
		require.NoError(t, store.AddEvent(fmt.Sprintf("event%d", i)))
	}

	events, err := store.GetEvents()
	require.NoError(t, err)
	assert.Len(t, events, maxEvents)
	assert.Equal(t, "event10", events[0])
	assert.Equal(t, fmt.Sprintf("event%d", maxEvents+9), events[maxEvents-1])
}
