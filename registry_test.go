package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	// sessionTimeout of zero keeps the reaper out of tests.
	return newRegistry(&Config{
		gameWinCount: 1,
		turnDuration: 10 * time.Second,
	})
}

func TestRegistry_CreateAndGet(t *testing.T) {
	rg := newTestRegistry()

	hub := rg.CreateRoom()
	id, usedLetters, locked := hub.roomInfo()

	assert.Contains(t, id, "-")
	assert.Empty(t, usedLetters)
	assert.False(t, locked)

	found, err := rg.GetRoom(id)
	require.NoError(t, err)
	assert.Same(t, hub, found)
}

func TestRegistry_GetUnknownRoom(t *testing.T) {
	rg := newTestRegistry()

	_, err := rg.GetRoom("no-such")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_RemoveRoom(t *testing.T) {
	rg := newTestRegistry()

	hub := rg.CreateRoom()
	id, _, _ := hub.roomInfo()

	rg.RemoveRoom(id)
	_, err := rg.GetRoom(id)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Removing again is a no-op.
	assert.NotPanics(t, func() {
		rg.RemoveRoom(id)
	})
}

func TestRegistry_IDsAreUnique(t *testing.T) {
	rg := newTestRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		hub := rg.CreateRoom()
		id, _, _ := hub.roomInfo()
		assert.False(t, seen[id], "duplicate room id %s", id)
		seen[id] = true
	}

	assert.Equal(t, 50, rg.roomCount())
}
