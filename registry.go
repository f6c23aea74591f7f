package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jaswdr/faker/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomLocked   = errors.New("room is locked")
)

// Registry owns every room hub for the lifetime of the process. It is the
// only component allowed to create or destroy rooms.
type Registry struct {
	mu   sync.Mutex
	hubs map[string]*Hub
	cfg  *Config
	fake faker.Faker
}

func newRegistry(cfg *Config) *Registry {
	rg := &Registry{
		hubs: make(map[string]*Hub),
		cfg:  cfg,
		fake: faker.New(),
	}
	if cfg.sessionTimeout > 0 {
		go rg.reaperLoop()
	}
	return rg
}

// CreateRoom allocates a fresh word-pair id, constructs an empty room, and
// starts its hub goroutine.
func (rg *Registry) CreateRoom() *Hub {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	id := rg.newRoomIDLocked()
	hub := newHub(rg.cfg, rg, NewRoom(id, rg.cfg.turnSeconds(), rg.cfg.gameWinCount))
	rg.hubs[id] = hub
	go hub.run()

	log.Info().Str("room", id).Msg("room created")

	return hub
}

func (rg *Registry) GetRoom(id string) (*Hub, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	hub, ok := rg.hubs[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return hub, nil
}

// RemoveRoom deletes the room. Safe to call on an id that doesn't exist.
func (rg *Registry) RemoveRoom(id string) {
	rg.mu.Lock()
	_, ok := rg.hubs[id]
	if ok {
		delete(rg.hubs, id)
	}
	rg.mu.Unlock()

	if ok {
		log.Info().Str("room", id).Msg("room removed")
	}
}

func (rg *Registry) roomCount() int {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	return len(rg.hubs)
}

// newRoomIDLocked generates an adjective-noun style id and retries on the
// rare duplicate.
func (rg *Registry) newRoomIDLocked() string {
	for {
		id := fmt.Sprintf("%s-%s", rg.fake.Lorem().Word(), rg.fake.Lorem().Word())
		if _, exists := rg.hubs[id]; !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than the
// configured session timeout.
func (rg *Registry) reaperLoop() {
	ticker := time.NewTicker(rg.cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-rg.cfg.sessionTimeout)

		// Snapshot first; hubs take their own lock and then call back into
		// RemoveRoom, so the registry lock must not be held across hub locks.
		rg.mu.Lock()
		snapshot := make(map[string]*Hub, len(rg.hubs))
		for id, hub := range rg.hubs {
			snapshot[id] = hub
		}
		rg.mu.Unlock()

		for id, hub := range snapshot {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				log.Info().Str("room", id).Msg("idle room reaped")
				rg.RemoveRoom(id)
				hub.closeAll()
			}
		}
	}
}
